package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

const schema = `
	CREATE TABLE IF NOT EXISTS mood_results (
		id          UUID PRIMARY KEY,
		mood        TEXT NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL,
		emotions    JSONB NOT NULL,
		source      TEXT NOT NULL,
		analyzed_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS mood_results_analyzed_at_idx ON mood_results (analyzed_at DESC);
`

// PostgresStore keeps every analysis in the mood_results table.
type PostgresStore struct {
	pool  *pgxpool.Pool
	limit int
}

// Ensure PostgresStore implements MoodStore at compile time.
var _ MoodStore = (*PostgresStore)(nil)

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string, limit int) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &PostgresStore{pool: pool, limit: limit}, nil
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// SaveResult inserts rec. Re-saving the same ID overwrites it.
func (s *PostgresStore) SaveResult(ctx context.Context, rec Record) error {
	emotions, err := json.Marshal(rec.Emotions)
	if err != nil {
		return fmt.Errorf("encoding emotions: %w", err)
	}

	query := `
		INSERT INTO mood_results (id, mood, confidence, emotions, source, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			mood = EXCLUDED.mood,
			confidence = EXCLUDED.confidence,
			emotions = EXCLUDED.emotions,
			source = EXCLUDED.source,
			analyzed_at = EXCLUDED.analyzed_at
	`
	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		string(rec.Mood),
		rec.Confidence,
		emotions,
		rec.Source,
		rec.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting mood result: %w", err)
	}
	return nil
}

// LastMood returns the mood of the newest row.
func (s *PostgresStore) LastMood(ctx context.Context) (mood.Label, error) {
	query := `
		SELECT mood
		FROM mood_results
		ORDER BY analyzed_at DESC
		LIMIT 1
	`
	var label string
	err := s.pool.QueryRow(ctx, query).Scan(&label)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying last mood: %w", err)
	}
	return mood.Label(label), nil
}

// History returns up to limit rows, newest first.
func (s *PostgresStore) History(ctx context.Context, limit int) ([]Record, error) {
	limit = clampLimit(limit, s.limit)

	query := `
		SELECT id, mood, confidence, emotions, source, analyzed_at
		FROM mood_results
		ORDER BY analyzed_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec      Record
			label    string
			emotions []byte
		)
		if err := rows.Scan(&rec.ID, &label, &rec.Confidence, &emotions, &rec.Source, &rec.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if err := json.Unmarshal(emotions, &rec.Emotions); err != nil {
			return nil, fmt.Errorf("decoding emotions: %w", err)
		}
		rec.Mood = mood.Label(label)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return records, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
