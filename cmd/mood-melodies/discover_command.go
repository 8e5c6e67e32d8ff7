package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/justestif/go-mood-melodies/internal/config"
	"github.com/justestif/go-mood-melodies/internal/discovery"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var survey bool
	var race bool
	var list bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find the face-analysis service on the local network",
		Long: "Probe candidate addresses (tunnel, localhost, emulator host, private LAN ranges) " +
			"and report the first healthy analysis service.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.newDiscoverer(race)
			if err != nil {
				return err
			}

			switch {
			case list:
				return printCandidates(cmd, ctx, d.Candidates())
			case survey:
				return printSurvey(cmd, ctx, d.Candidates(), d.Survey(cmd.Context()))
			}

			url, err := d.Endpoint(cmd.Context())
			if err != nil {
				return err
			}
			reachable := d.State() == discovery.StateCached
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"url": url, "reachable": reachable})
			}
			if !reachable {
				fmt.Fprintf(cmd.OutOrStdout(), "No service answered; falling back to %s\n", url)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis service: %s\n", url)
			return nil
		},
	}

	cmd.Flags().BoolVar(&survey, "survey", false, "Probe every candidate and show all results")
	cmd.Flags().BoolVar(&race, "race", false, "Probe candidates concurrently instead of in order")
	cmd.Flags().BoolVar(&list, "list", false, "List candidates without probing")
	return cmd
}

func printCandidates(cmd *cobra.Command, ctx *commandContext, candidates []discovery.Candidate) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, candidates)
	}
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.URL, string(c.Kind)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "URL", "KIND"}, rows, []columnAlignment{alignRight}))
	return nil
}

func printSurvey(cmd *cobra.Command, ctx *commandContext, candidates []discovery.Candidate, results []discovery.ProbeResult) error {
	kinds := make(map[string]discovery.Kind, len(candidates))
	for _, c := range candidates {
		kinds[c.URL] = c.Kind
	}

	if ctx.jsonOutput() {
		type item struct {
			URL       string         `json:"url"`
			Kind      discovery.Kind `json:"kind"`
			OK        bool           `json:"ok"`
			Status    int            `json:"status,omitempty"`
			LatencyMS int64          `json:"latency_ms"`
			Error     string         `json:"error,omitempty"`
		}
		items := make([]item, 0, len(results))
		for _, r := range results {
			items = append(items, item{r.URL, kinds[r.URL], r.OK, r.Status, r.Latency.Milliseconds(), r.Error()})
		}
		return writeJSON(cmd, items)
	}

	healthy := 0
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.OK {
			healthy++
		}
		status := ""
		if r.Status != 0 {
			status = strconv.Itoa(r.Status)
		}
		rows = append(rows, []string{
			r.URL,
			string(kinds[r.URL]),
			yesNo(r.OK),
			status,
			r.Latency.Round(time.Millisecond).String(),
			r.Error(),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"URL", "KIND", "OK", "STATUS", "LATENCY", "ERROR"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(out, "%d of %d candidates healthy\n", healthy, len(results))
	return nil
}

func newTunnelCommand(ctx *commandContext) *cobra.Command {
	var apiURL string
	var save bool

	cmd := &cobra.Command{
		Use:   "tunnel",
		Short: "Show the public ngrok tunnel URL",
		Long: "Read the public https URL from the local ngrok agent. With --save the URL is " +
			"written to the config file as discovery.tunnel_url, which a running server picks up.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if apiURL == "" {
				apiURL = cfg.Discovery.TunnelAPI
			}

			url, err := discovery.NewTunnelLocator(apiURL).PublicURL(cmd.Context())
			if err != nil {
				return fmt.Errorf("read tunnel url (is ngrok running?): %w", err)
			}

			if save {
				if err := config.SaveTunnelURL(ctx.configPath(), url); err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"url": url, "saved": save})
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "", "ngrok agent API base URL (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "Write the URL to the config file")
	return cmd
}
