// Package config loads mood-melodies settings from defaults, a TOML file,
// .env files and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/discovery"
	"github.com/justestif/go-mood-melodies/internal/logging"
	"github.com/justestif/go-mood-melodies/internal/store"
)

const (
	defaultConfigPath = "~/.config/mood-melodies/config.toml"
	defaultListenAddr = "127.0.0.1:8080"
	defaultEnvFile    = ".env"
)

// Duration is a time.Duration that reads and writes as "30s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	ListenAddr string          `toml:"listen_addr"`
	Discovery  DiscoveryConfig `toml:"discovery"`
	Analysis   AnalysisConfig  `toml:"analysis"`
	Music      MusicConfig     `toml:"music"`
	Store      store.Config    `toml:"store"`
	Log        logging.Config  `toml:"log"`
}

// DiscoveryConfig controls how the analysis service is located.
type DiscoveryConfig struct {
	Endpoint        string   `toml:"endpoint"`   // Skips discovery when set
	TunnelURL       string   `toml:"tunnel_url"` // Tried before any LAN candidate
	TunnelAPI       string   `toml:"tunnel_api"`
	Port            int      `toml:"port"`
	Prefixes        []string `toml:"prefixes"`
	ExtraURLs       []string `toml:"extra_urls"`
	Strategy        string   `toml:"strategy"`
	Concurrency     int      `toml:"concurrency"`
	ProbeTimeout    Duration `toml:"probe_timeout"`
	CacheTTL        Duration `toml:"cache_ttl"`
	FallbackURL     string   `toml:"fallback_url"`
	DisableFallback bool     `toml:"disable_fallback"`
}

// AnalysisConfig controls the analysis facade.
type AnalysisConfig struct {
	MockDelay      Duration `toml:"mock_delay"`
	RequestTimeout Duration `toml:"request_timeout"`
	Seed           uint64   `toml:"seed"` // 0 picks a random seed
}

// MusicConfig controls playlist sources.
type MusicConfig struct {
	SpotifyID     string `toml:"spotify_id"`
	SpotifySecret string `toml:"spotify_secret"`
	AssetsDir     string `toml:"assets_dir"` // Bundled <mood>/*.mp3 tracks for offline playlists
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr: defaultListenAddr,
		Discovery: DiscoveryConfig{
			TunnelAPI:    discovery.DefaultTunnelAPI,
			Port:         discovery.DefaultPort,
			Strategy:     discovery.Sequential.String(),
			Concurrency:  discovery.DefaultRaceConcurrency,
			ProbeTimeout: Duration(discovery.DefaultProbeTimeout),
			CacheTTL:     Duration(discovery.DefaultCacheTTL),
			FallbackURL:  discovery.DefaultFallbackURL,
		},
		Analysis: AnalysisConfig{
			MockDelay:      Duration(analysis.DefaultMockDelay),
			RequestTimeout: Duration(analysis.DefaultRequestTimeout),
		},
		Store: store.Config{
			Driver:       store.DriverFile,
			HistoryLimit: store.DefaultHistoryLimit,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads the TOML file at path (or the default location), then the
// given .env files (".env" when none are named), then the environment.
// A missing config or .env file is not an error. Existing environment
// variables are never overridden by .env values.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{defaultEnvFile}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if _, err := discovery.ParseStrategy(c.Discovery.Strategy); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Discovery.Port <= 0 || c.Discovery.Port > 65535 {
		return fmt.Errorf("discovery port %d out of range", c.Discovery.Port)
	}
	switch c.Store.Driver {
	case "", store.DriverFile, store.DriverPostgres, store.DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Analysis.RequestTimeout < 0 || c.Analysis.MockDelay < 0 {
		return errors.New("analysis durations must not be negative")
	}
	return nil
}

// CandidateConfig returns the discovery candidate settings.
func (c Config) CandidateConfig() discovery.CandidateConfig {
	cc := discovery.DefaultCandidateConfig()
	cc.TunnelURL = c.Discovery.TunnelURL
	if c.Discovery.Port > 0 {
		cc.Port = c.Discovery.Port
	}
	if len(c.Discovery.Prefixes) > 0 {
		cc.Prefixes = c.Discovery.Prefixes
	}
	cc.ExtraURLs = c.Discovery.ExtraURLs
	return cc
}

// Fallback returns the fallback URL, or "" when fallback is disabled.
func (c Config) Fallback() string {
	if c.Discovery.DisableFallback {
		return ""
	}
	return c.Discovery.FallbackURL
}

// Marshal renders the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// SaveTunnelURL sets discovery.tunnel_url in the config file at path,
// creating it if needed. Other keys are preserved but comments are not.
// The file is replaced atomically so a running Watcher sees one change.
func SaveTunnelURL(path, tunnelURL string) error {
	resolved, err := ResolvePath(path)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("read config: %w", err)
	}

	section, _ := doc["discovery"].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	section["tunnel_url"] = tunnelURL
	doc["discovery"] = section

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(resolved), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), resolved)
}

// ResolvePath expands "~" and returns an absolute path, using the default
// location when path is empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
