package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/music"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	var names bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "playlist <mood>",
		Short: "Show the playlist for a mood",
		Long: "Show songs matching a mood (" + moodList() + "). Unknown moods use the " +
			string(mood.DefaultLabel) + " playlist.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if names {
				list := music.PlaylistNames(args[0])
				if ctx.jsonOutput() {
					return writeJSON(cmd, list)
				}
				for _, n := range list {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}

			svc, err := ctx.newMusic(cmd.Context())
			if err != nil {
				return err
			}
			var p music.Playlist
			if offline {
				p = svc.Offline(mood.LabelOrDefault(args[0]))
			} else {
				p = svc.PlaylistFor(cmd.Context(), args[0])
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, p)
			}
			printPlaylist(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&names, "names", false, "List the suggested playlist names only")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip Spotify and use bundled or demo songs")
	return cmd
}

func moodList() string {
	labels := mood.Labels()
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return strings.Join(out, ", ")
}
