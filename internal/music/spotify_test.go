package music

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

const searchResponse = `{
  "tracks": {
    "href": "",
    "limit": 10,
    "offset": 0,
    "total": 2,
    "items": [
      {
        "id": "track1",
        "name": "Bright Day",
        "artists": [{"name": "Sunny"}, {"name": "Guest"}],
        "album": {"name": "Summer", "images": [{"url": "https://img.example/1.jpg", "height": 640, "width": 640}]},
        "duration_ms": 215000,
        "preview_url": "https://p.scdn.co/preview1"
      },
      {
        "id": "track2",
        "name": "No Preview",
        "artists": [],
        "album": {"name": "", "images": []},
        "duration_ms": 60500,
        "preview_url": ""
      }
    ]
  }
}`

const emptyResponse = `{"tracks": {"href": "", "limit": 10, "offset": 0, "total": 0, "items": []}}`

func newTestSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	api := spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/"))
	return NewSpotifyProviderFromClient(api)
}

func TestSpotifyProvider_Playlist(t *testing.T) {
	var gotQuery, gotType, gotLimit string
	p := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotType = r.URL.Query().Get("type")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	})

	pl, err := p.Playlist(context.Background(), mood.Happy)
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}

	if gotQuery != "genre:pop" || gotType != "track" || gotLimit != "10" {
		t.Errorf("search q=%q type=%q limit=%q, want genre:pop track 10", gotQuery, gotType, gotLimit)
	}
	if pl.ID != "spotify_happy" || pl.Mood != mood.Happy {
		t.Errorf("playlist ID/Mood = %q/%q", pl.ID, pl.Mood)
	}
	if pl.Description != "Upbeat songs to keep your energy high (Spotify)" {
		t.Errorf("Description = %q", pl.Description)
	}
	if len(pl.Songs) != 2 {
		t.Fatalf("len(Songs) = %d, want 2", len(pl.Songs))
	}

	first := pl.Songs[0]
	want := Song{
		ID:              "track1",
		Title:           "Bright Day",
		Artist:          "Sunny",
		Album:           "Summer",
		Image:           "https://img.example/1.jpg",
		DurationSeconds: 215,
		Source:          "https://p.scdn.co/preview1",
	}
	if first != want {
		t.Errorf("Songs[0] = %+v, want %+v", first, want)
	}

	second := pl.Songs[1]
	if second.Artist != "Unknown Artist" {
		t.Errorf("Songs[1].Artist = %q, want Unknown Artist", second.Artist)
	}
	if second.Image != DefaultImage(mood.Happy) || second.Source != FallbackAudio(mood.Happy) {
		t.Errorf("Songs[1] defaults = %q / %q", second.Image, second.Source)
	}
	if second.DurationSeconds != 60 {
		t.Errorf("Songs[1].DurationSeconds = %d, want 60", second.DurationSeconds)
	}
}

func TestSpotifyProvider_BroadFallback(t *testing.T) {
	var calls atomic.Int32
	var queries []string
	p := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		w.Header().Set("Content-Type", "application/json")
		if q == "ballad" {
			_, _ = w.Write([]byte(searchResponse))
			return
		}
		_, _ = w.Write([]byte(emptyResponse))
	})

	pl, err := p.Playlist(context.Background(), mood.Sad)
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}
	if len(pl.Songs) != 2 {
		t.Errorf("len(Songs) = %d, want 2", len(pl.Songs))
	}
	if calls.Load() != 2 || queries[0] != "genre:indie" || queries[1] != "ballad" {
		t.Errorf("queries = %v, want [genre:indie ballad]", queries)
	}
}

func TestSpotifyProvider_NoTracks(t *testing.T) {
	p := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(emptyResponse))
	})

	if _, err := p.Playlist(context.Background(), mood.Angry); !errors.Is(err, ErrNoTracks) {
		t.Errorf("Playlist() error = %v, want ErrNoTracks", err)
	}
}

func TestSpotifyProvider_APIError(t *testing.T) {
	p := newTestSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
	})

	if _, err := p.Playlist(context.Background(), mood.Calm); err == nil {
		t.Error("Playlist() error = nil, want API error")
	}
}

func TestNewSpotifyProvider_MissingCredentials(t *testing.T) {
	if _, err := NewSpotifyProvider(context.Background(), "", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
}
