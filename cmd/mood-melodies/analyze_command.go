package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/music"
	"github.com/justestif/go-mood-melodies/internal/store"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	var race bool
	var withPlaylist bool

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Detect the mood in a face photo",
		Long: "Send the image to the face-analysis service. If the service cannot be reached a " +
			"generated mood is used instead, unless --remote is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.newDiscoverer(race)
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				svc, err := ctx.newAnalysis(d, st)
				if err != nil {
					return err
				}

				var out analysis.Outcome
				if remote {
					out, err = svc.AnalyzeRemote(cmd.Context(), args[0])
				} else {
					out, err = svc.AnalyzeMood(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				return printOutcome(cmd, ctx, out, withPlaylist)
			})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Fail instead of generating a mood when the service is unavailable")
	cmd.Flags().BoolVar(&race, "race", false, "Probe candidates concurrently during discovery")
	cmd.Flags().BoolVarP(&withPlaylist, "playlist", "p", false, "Also show the matching playlist")
	return cmd
}

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var withPlaylist bool

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a sample mood without contacting the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				svc, err := ctx.newAnalysis(nil, st)
				if err != nil {
					return err
				}
				return printOutcome(cmd, ctx, svc.AnalyzeSample(cmd.Context()), withPlaylist)
			})
		},
	}

	cmd.Flags().BoolVarP(&withPlaylist, "playlist", "p", false, "Also show the matching playlist")
	return cmd
}

func printOutcome(cmd *cobra.Command, ctx *commandContext, out analysis.Outcome, withPlaylist bool) error {
	var playlist *music.Playlist
	if withPlaylist {
		svc, err := ctx.newMusic(cmd.Context())
		if err != nil {
			return err
		}
		p := svc.PlaylistFor(cmd.Context(), string(out.Result.Mood))
		playlist = &p
	}

	if ctx.jsonOutput() {
		if playlist != nil {
			return writeJSON(cmd, map[string]any{"outcome": out, "playlist": playlist})
		}
		return writeJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Mood: %s (%s confidence)\n", out.Result.Mood, percent(out.Result.Confidence))
	switch out.Source {
	case analysis.SourceRemote:
		fmt.Fprintf(w, "Source: %s\n", out.Endpoint)
	default:
		fmt.Fprintln(w, "Source: generated sample")
		if out.FallbackReason != "" {
			fmt.Fprintf(w, "Service unavailable: %s\n", out.FallbackReason)
		}
	}
	fmt.Fprintln(w, renderEmotions(out.Result.Emotions))

	if playlist != nil {
		printPlaylist(w, *playlist)
	}
	return nil
}

func renderEmotions(em mood.Emotions) string {
	keys := mood.EmotionKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return em.Get(keys[i]) > em.Get(keys[j])
	})

	rows := make([][]string, 0, len(keys))
	for _, e := range keys {
		rows = append(rows, []string{string(e), string(mood.LabelFor(e)), percent(em.Get(e))})
	}
	return renderTable([]string{"EMOTION", "MOOD", "SHARE"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func printPlaylist(w io.Writer, p music.Playlist) {
	fmt.Fprintf(w, "%s: %s\n", p.Name, p.Description)
	rows := make([][]string, 0, len(p.Songs))
	for i, s := range p.Songs {
		rows = append(rows, []string{fmt.Sprint(i + 1), s.Title, s.Artist, clock(s.DurationSeconds)})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "TITLE", "ARTIST", "LENGTH"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
}
