package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/justestif/go-mood-melodies/internal/logging"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// Environment variables read by applyEnv.
const (
	EnvListenAddr      = "MOOD_LISTEN_ADDR"
	EnvEndpoint        = "MOOD_API_URL"
	EnvTunnelURL       = "MOOD_TUNNEL_URL"
	EnvTunnelAPI       = "MOOD_TUNNEL_API"
	EnvPort            = "MOOD_PORT"
	EnvStrategy        = "MOOD_DISCOVERY_STRATEGY"
	EnvCacheTTL        = "MOOD_CACHE_TTL"
	EnvDisableFallback = "MOOD_DISABLE_FALLBACK"
	EnvMockDelay       = "MOOD_MOCK_DELAY"
	EnvRequestTimeout  = "MOOD_REQUEST_TIMEOUT"
	EnvStoreDriver     = "MOOD_STORE"
	EnvStorePath       = "MOOD_STORE_PATH"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvRedisURL        = "REDIS_URL"
	EnvSpotifyID       = "SPOTIFY_ID"
	EnvSpotifySecret   = "SPOTIFY_SECRET"
	EnvAssetsDir       = "MOOD_ASSETS_DIR"
	EnvLogLevel        = "MOOD_LOG_LEVEL"
	EnvLogFormat       = "MOOD_LOG_FORMAT"
	EnvLogFile         = "MOOD_LOG_FILE"
)

// applyEnv overlays environment variables onto cfg. Malformed numeric or
// duration values are ignored.
func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, EnvListenAddr)
	setString(&cfg.Discovery.Endpoint, EnvEndpoint)
	setString(&cfg.Discovery.TunnelURL, EnvTunnelURL)
	setString(&cfg.Discovery.TunnelAPI, EnvTunnelAPI)
	setInt(&cfg.Discovery.Port, EnvPort)
	setString(&cfg.Discovery.Strategy, EnvStrategy)
	setDuration(&cfg.Discovery.CacheTTL, EnvCacheTTL)
	setBool(&cfg.Discovery.DisableFallback, EnvDisableFallback)

	setDuration(&cfg.Analysis.MockDelay, EnvMockDelay)
	setDuration(&cfg.Analysis.RequestTimeout, EnvRequestTimeout)

	setString(&cfg.Store.Driver, EnvStoreDriver)
	setString(&cfg.Store.Path, EnvStorePath)
	setString(&cfg.Store.DatabaseURL, EnvDatabaseURL)
	setString(&cfg.Store.RedisURL, EnvRedisURL)
	// A bare DATABASE_URL or REDIS_URL selects its driver unless MOOD_STORE says otherwise
	if !envSet(EnvStoreDriver) {
		switch {
		case envSet(EnvDatabaseURL):
			cfg.Store.Driver = store.DriverPostgres
		case envSet(EnvRedisURL):
			cfg.Store.Driver = store.DriverRedis
		}
	}

	setString(&cfg.Music.SpotifyID, EnvSpotifyID)
	setString(&cfg.Music.SpotifySecret, EnvSpotifySecret)
	setString(&cfg.Music.AssetsDir, EnvAssetsDir)

	setString(&cfg.Log.Level, EnvLogLevel)
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Log.Format = logging.Format(strings.ToLower(v))
	}
	setString(&cfg.Log.File, EnvLogFile)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envSet(key string) bool {
	_, ok := lookup(key)
	return ok
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v, ok := lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}
