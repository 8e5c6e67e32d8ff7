package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/config"
	"github.com/justestif/go-mood-melodies/internal/discovery"
	"github.com/justestif/go-mood-melodies/internal/store"
	"github.com/justestif/go-mood-melodies/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var race bool
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: "Serve the mood-melodies JSON API. The config file is watched so a tunnel URL " +
			"saved with `mood-melodies tunnel --save` takes effect without a restart.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}
			logger := ctx.log()
			defer logger.Sync() //nolint:errcheck

			d, err := ctx.newDiscoverer(race)
			if err != nil {
				return err
			}

			return ctx.withStore(cmd.Context(), func(st store.MoodStore) error {
				svc, err := ctx.newAnalysis(d, st, analysis.WithDiscoveryWait(web.DiscoveryWait))
				if err != nil {
					return err
				}
				playlists, err := ctx.newMusic(cmd.Context())
				if err != nil {
					return err
				}

				srv, err := web.NewServer(web.ServerConfig{
					Addr:      addr,
					Endpoints: d,
					Analyzer:  svc,
					Playlists: playlists,
					History:   st,
					Logger:    logger.Named("web"),
				})
				if err != nil {
					return fmt.Errorf("create server: %w", err)
				}

				if !noWatch {
					watchConfig(cmd, ctx, *cfg, d, logger)
				}
				return srv.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&race, "race", false, "Probe candidates concurrently instead of in order")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the config file on change")
	return cmd
}

// watchConfig applies endpoint and tunnel changes from the config file to
// the running discoverer. Other settings need a restart.
func watchConfig(cmd *cobra.Command, ctx *commandContext, current config.Config, d *discovery.Discoverer, logger *zap.Logger) {
	w, err := config.NewWatcher(ctx.configPath(), logger.Named("config"))
	if err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
		return
	}

	tunnel := current.Discovery.TunnelURL
	endpoint := current.Discovery.Endpoint
	err = w.Start(cmd.Context(), func(next config.Config) {
		if next.Discovery.TunnelURL != tunnel {
			tunnel = next.Discovery.TunnelURL
			d.SetTunnelURL(tunnel)
		}
		if next.Discovery.Endpoint != endpoint {
			endpoint = next.Discovery.Endpoint
			d.PinEndpoint(endpoint)
		}
	})
	if err != nil {
		logger.Warn("config watch disabled", zap.String("path", w.Path()), zap.Error(err))
	}
}
