package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-melodies/internal/clustering"
	"github.com/justestif/go-mood-melodies/internal/store"
)

func newLastCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the most recently analyzed mood",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				label, err := st.LastMood(cmd.Context())
				if errors.Is(err, store.ErrNotFound) {
					return errors.New("no mood recorded yet; run `mood-melodies analyze` or `mood-melodies sample`")
				}
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"mood": string(label)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), label)
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				records, err := st.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if records == nil {
						records = []store.Record{}
					}
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No analyses recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{timestamp(r.AnalyzedAt), string(r.Mood), percent(r.Confidence), r.Source})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"TIME", "MOOD", "CONFIDENCE", "SOURCE"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of analyses to show")
	return cmd
}

func newTrendsCommand(ctx *commandContext) *cobra.Command {
	cfg := clustering.DefaultTrendConfig()

	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Group past analyses into recurring moods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.NumClusters <= 0 {
				return errors.New("--clusters must be positive")
			}
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				records, err := st.History(cmd.Context(), 0)
				if err != nil {
					return err
				}
				trends, outliers, err := clustering.DetectTrends(records, cfg)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if trends == nil {
						trends = []clustering.Trend{}
					}
					return writeJSON(cmd, map[string]any{"trends": trends, "outliers": len(outliers)})
				}

				w := cmd.OutOrStdout()
				fmt.Fprint(w, clustering.FormatTrendSummary(trends, len(outliers)))
				if len(trends) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(trends))
				for _, t := range trends {
					dominant, share := t.Centroid.Dominant()
					rows = append(rows, []string{t.Name, strconv.Itoa(t.Count), string(dominant), percent(share), timestamp(t.Last)})
				}
				fmt.Fprintln(w, renderTable(
					[]string{"TREND", "COUNT", "TOP EMOTION", "SHARE", "LAST SEEN"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&cfg.NumClusters, "clusters", "k", cfg.NumClusters, "Number of clusters")
	cmd.Flags().IntVar(&cfg.MinClusterSize, "min-size", cfg.MinClusterSize, "Smallest cluster reported as a trend")
	return cmd
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	cfg := clustering.DefaultSessionConfig()

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Group past analyses into sittings separated by pauses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				records, err := st.History(cmd.Context(), 0)
				if err != nil {
					return err
				}
				sessions, outliers := clustering.DetectSessions(records, cfg)
				if ctx.jsonOutput() {
					if sessions == nil {
						sessions = []clustering.Session{}
					}
					return writeJSON(cmd, sessions)
				}

				w := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintf(w, "No sessions found (%d single analyses)\n", len(outliers))
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						timestamp(s.Start),
						s.End.Sub(s.Start).Round(time.Minute).String(),
						string(s.Dominant),
						strconv.Itoa(s.Count),
					})
				}
				fmt.Fprintln(w, renderTable(
					[]string{"START", "LENGTH", "MOOD", "COUNT"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&cfg.GapThreshold, "gap", cfg.GapThreshold, "Pause that starts a new session")
	cmd.Flags().IntVar(&cfg.MinSize, "min-size", cfg.MinSize, "Smallest session reported")
	return cmd
}
