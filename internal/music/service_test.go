package music

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

type fakeProvider struct {
	playlist Playlist
	err      error
	got      []mood.Label
}

func (f *fakeProvider) Playlist(ctx context.Context, l mood.Label) (Playlist, error) {
	f.got = append(f.got, l)
	return f.playlist, f.err
}

func TestService_PlaylistFor(t *testing.T) {
	online := Playlist{ID: "spotify_happy", Mood: mood.Happy}

	tests := []struct {
		name     string
		provider *fakeProvider
		bundled  map[mood.Label][]Song
		label    string
		wantID   string
	}{
		{
			name:     "provider success",
			provider: &fakeProvider{playlist: online},
			label:    "Happy",
			wantID:   "spotify_happy",
		},
		{
			name:     "provider failure falls back to demo",
			provider: &fakeProvider{err: errors.New("unauthorized")},
			label:    "Sad",
			wantID:   "fallback_sad",
		},
		{
			name:    "bundled preferred over demo",
			bundled: map[mood.Label][]Song{mood.Calm: {{ID: "calm_1", Title: "Local", Source: "/tmp/a.mp3"}}},
			label:   "Calm",
			wantID:  "bundled_calm",
		},
		{
			name:    "unknown label resolves to default",
			bundled: map[mood.Label][]Song{},
			label:   "bored",
			wantID:  "fallback_calm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.provider != nil {
				opts = append(opts, WithProvider(tt.provider))
			}
			opts = append(opts, WithBundled(tt.bundled))

			got := NewService(opts...).PlaylistFor(context.Background(), tt.label)
			if got.ID != tt.wantID {
				t.Errorf("PlaylistFor(%q).ID = %q, want %q", tt.label, got.ID, tt.wantID)
			}
		})
	}
}

func TestService_ProviderReceivesResolvedLabel(t *testing.T) {
	p := &fakeProvider{err: errors.New("down")}
	NewService(WithProvider(p)).PlaylistFor(context.Background(), "anxious")
	if len(p.got) != 1 || p.got[0] != mood.Anxious {
		t.Errorf("provider got %v, want [Anxious]", p.got)
	}
}

func TestLoadBundledAssets(t *testing.T) {
	dir := t.TempDir()

	assets, err := LoadBundledAssets(filepath.Join(dir, "missing"))
	if err != nil || len(assets) != 0 {
		t.Fatalf("LoadBundledAssets(missing) = (%v, %v), want empty", assets, err)
	}

	happy := filepath.Join(dir, "happy")
	if err := os.MkdirAll(happy, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(happy, "broken.mp3"), []byte("not an mp3"), 0o600); err != nil {
		t.Fatal(err)
	}

	assets, err = LoadBundledAssets(dir)
	if err == nil {
		t.Error("LoadBundledAssets() error = nil, want decode error for broken file")
	}
	if len(assets[mood.Happy]) != 0 {
		t.Errorf("assets[Happy] = %v, want broken file skipped", assets[mood.Happy])
	}
}

func TestParseAssetName(t *testing.T) {
	tests := []struct {
		name       string
		wantArtist string
		wantTitle  string
	}{
		{"shape-of-you.mp3", "Unknown Artist", "Shape Of You"},
		{"Joji - glimpse_of_us.mp3", "Joji", "Glimpse Of Us"},
		{"calm.mp3", "Unknown Artist", "Calm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := parseAssetName(tt.name)
			if artist != tt.wantArtist || title != tt.wantTitle {
				t.Errorf("parseAssetName(%q) = (%q, %q), want (%q, %q)", tt.name, artist, title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}
