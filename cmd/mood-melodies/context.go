package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/config"
	"github.com/justestif/go-mood-melodies/internal/discovery"
	"github.com/justestif/go-mood-melodies/internal/faceapi"
	"github.com/justestif/go-mood-melodies/internal/logging"
	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/music"
	"github.com/justestif/go-mood-melodies/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *zap.Logger
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Log.Level = *c.logLevelFlag
			if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = &cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// log returns the shared logger. A logger that cannot be built (bad log
// file path) degrades to a no-op rather than failing the command.
func (c *commandContext) log() *zap.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = zap.NewNop()
			return
		}
		logger, err := logging.New(cfg.Log)
		if err != nil {
			c.logger = zap.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) newDiscoverer(race bool) (*discovery.Discoverer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	strategy, err := discovery.ParseStrategy(cfg.Discovery.Strategy)
	if err != nil {
		return nil, err
	}
	if race {
		strategy = discovery.Race
	}

	return discovery.New(
		discovery.WithProber(discovery.NewHTTPProber(cfg.Discovery.ProbeTimeout.Std())),
		discovery.WithCache(discovery.NewCache(cfg.Discovery.CacheTTL.Std(), nil)),
		discovery.WithCandidateConfig(cfg.CandidateConfig()),
		discovery.WithStrategy(strategy),
		discovery.WithConcurrency(cfg.Discovery.Concurrency),
		discovery.WithFallback(cfg.Fallback()),
		discovery.WithPinnedEndpoint(cfg.Discovery.Endpoint),
		discovery.WithLogger(c.log().Named("discovery")),
	), nil
}

// withStore opens the configured store for the duration of fn.
func (c *commandContext) withStore(ctx context.Context, fn func(store.MoodStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer st.Close()
	return fn(st)
}

func (c *commandContext) newAnalysis(endpoints analysis.EndpointSource, st store.MoodStore, extra ...analysis.Option) (*analysis.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var genOpts []mood.GeneratorOption
	if cfg.Analysis.Seed != 0 {
		genOpts = append(genOpts, mood.WithSeed(cfg.Analysis.Seed))
	}

	timeout := cfg.Analysis.RequestTimeout.Std()
	opts := append([]analysis.Option{
		analysis.WithStore(st),
		analysis.WithLogger(c.log().Named("analysis")),
		analysis.WithMockDelay(cfg.Analysis.MockDelay.Std()),
		analysis.WithRequestTimeout(timeout),
	}, extra...)
	return analysis.NewService(
		endpoints,
		faceapi.NewClient(faceapi.WithTimeout(timeout)),
		mood.NewGenerator(genOpts...),
		opts...,
	), nil
}

// newMusic builds the playlist service. Spotify and bundled assets are each
// optional; problems with either are logged and the next source is used.
func (c *commandContext) newMusic(ctx context.Context) (*music.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.log().Named("music")

	opts := []music.Option{music.WithLogger(logger)}

	if cfg.Music.SpotifyID != "" || cfg.Music.SpotifySecret != "" {
		provider, err := music.NewSpotifyProvider(ctx, cfg.Music.SpotifyID, cfg.Music.SpotifySecret)
		if err != nil {
			logger.Warn("spotify disabled", zap.Error(err))
		} else {
			opts = append(opts, music.WithProvider(provider))
		}
	}

	if cfg.Music.AssetsDir != "" {
		songs, err := music.LoadBundledAssets(cfg.Music.AssetsDir)
		if err != nil {
			logger.Warn("some bundled tracks were skipped", zap.String("dir", cfg.Music.AssetsDir), zap.Error(err))
		}
		if songs != nil {
			opts = append(opts, music.WithBundled(songs))
		}
	}

	return music.NewService(opts...), nil
}
