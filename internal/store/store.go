// Package store persists analyzed moods.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

// DefaultHistoryLimit bounds how many records a store retains.
const DefaultHistoryLimit = 50

// ErrNotFound is returned when no mood has been recorded yet.
var ErrNotFound = errors.New("not found")

// Record is one persisted analysis.
type Record struct {
	ID         uuid.UUID     `json:"id" toml:"id"`
	Mood       mood.Label    `json:"mood" toml:"mood"`
	Confidence float64       `json:"confidence" toml:"confidence"`
	Emotions   mood.Emotions `json:"emotions" toml:"emotions"`
	Source     string        `json:"source" toml:"source"`
	AnalyzedAt time.Time     `json:"analyzed_at" toml:"analyzed_at"`
}

// NewRecord builds a record from an analysis result.
func NewRecord(id uuid.UUID, r mood.Result, source string, at time.Time) Record {
	return Record{
		ID:         id,
		Mood:       r.Mood,
		Confidence: r.Confidence,
		Emotions:   r.Emotions,
		Source:     source,
		AnalyzedAt: at.UTC(),
	}
}

// Result returns the mood result carried by the record.
func (r Record) Result() mood.Result {
	return mood.Result{Mood: r.Mood, Confidence: r.Confidence, Emotions: r.Emotions}
}

// MoodStore persists analyzed moods. Implementations must be safe for concurrent use.
type MoodStore interface {
	// SaveResult records an analysis and makes it the last mood.
	SaveResult(ctx context.Context, rec Record) error

	// LastMood returns the most recently recorded mood, or ErrNotFound.
	LastMood(ctx context.Context) (mood.Label, error)

	// History returns up to limit records, newest first.
	History(ctx context.Context, limit int) ([]Record, error)

	// Close releases any underlying connections.
	Close() error
}

// Drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config selects and configures a store backend.
type Config struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	DatabaseURL  string `toml:"database_url"`
	RedisURL     string `toml:"redis_url"`
	HistoryLimit int    `toml:"history_limit"`
}

// Open creates the store named by cfg.Driver. An empty driver means file.
func Open(ctx context.Context, cfg Config) (MoodStore, error) {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	switch cfg.Driver {
	case "", DriverFile:
		if cfg.Path == "" {
			fs, err := DefaultFileStore()
			if err != nil {
				return nil, err
			}
			fs.limit = limit
			return fs, nil
		}
		return NewFileStore(cfg.Path, limit), nil

	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("postgres store requires a database URL")
		}
		ps, err := NewPostgresStore(ctx, cfg.DatabaseURL, limit)
		if err != nil {
			return nil, err
		}
		if err := ps.Migrate(ctx); err != nil {
			ps.Close()
			return nil, err
		}
		return ps, nil

	case DriverRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("redis store requires a redis URL")
		}
		return NewRedisStore(ctx, cfg.RedisURL, limit)

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func clampLimit(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}
