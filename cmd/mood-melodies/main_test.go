package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// testEnv isolates a command run from the user's config, store and
// credentials.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MOOD_STORE", "file")
	t.Setenv("MOOD_STORE_PATH", filepath.Join(dir, "moods.toml"))
	t.Setenv("MOOD_MOCK_DELAY", "0s")
	t.Setenv("MOOD_LOG_LEVEL", "error")
	t.Setenv("MOOD_LOG_FILE", "")
	t.Setenv("MOOD_API_URL", "")
	t.Setenv("MOOD_TUNNEL_URL", "")
	t.Setenv("SPOTIFY_ID", "")
	t.Setenv("SPOTIFY_SECRET", "")
	t.Setenv("MOOD_ASSETS_DIR", "")
	return filepath.Join(dir, "config.toml")
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSampleCommand(t *testing.T) {
	cfg := testEnv(t)

	out, err := run(t, cfg, "sample", "--json")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	var got analysis.Outcome
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Source != analysis.SourceMock {
		t.Errorf("Source = %q, want %q", got.Source, analysis.SourceMock)
	}
	if err := got.Result.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSampleWithPlaylist(t *testing.T) {
	cfg := testEnv(t)

	out, err := run(t, cfg, "sample", "-p")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for _, want := range []string{"Mood: ", "Source: generated sample", "TITLE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLastAndHistory(t *testing.T) {
	cfg := testEnv(t)

	if _, err := run(t, cfg, "last"); err == nil {
		t.Fatal("last on empty store should fail")
	}

	for i := 0; i < 3; i++ {
		if _, err := run(t, cfg, "sample"); err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
	}

	out, err := run(t, cfg, "last", "--json")
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	var last map[string]string
	if err := json.Unmarshal([]byte(out), &last); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if last["mood"] == "" {
		t.Errorf("last mood empty: %q", out)
	}

	out, err = run(t, cfg, "history", "--json", "-n", "2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var records []store.Record
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(records) != 2 {
		t.Fatalf("history returned %d records, want 2", len(records))
	}
	if string(records[0].Mood) != last["mood"] {
		t.Errorf("newest record = %s, last = %s", records[0].Mood, last["mood"])
	}
}

func TestHistoryEmpty(t *testing.T) {
	cfg := testEnv(t)

	out, err := run(t, cfg, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No analyses recorded") {
		t.Errorf("output = %q", out)
	}
}

func TestTrendsAndSessions(t *testing.T) {
	cfg := testEnv(t)

	for i := 0; i < 4; i++ {
		if _, err := run(t, cfg, "sample"); err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
	}

	out, err := run(t, cfg, "trends", "-k", "2")
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if !strings.Contains(out, "from 4 analyses") {
		t.Errorf("trends output = %q", out)
	}

	if _, err := run(t, cfg, "trends", "-k", "0"); err == nil {
		t.Error("trends -k 0 should fail")
	}

	out, err = run(t, cfg, "sessions", "--json")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	var sessions []map[string]any
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if count, _ := sessions[0]["count"].(float64); count != 4 {
		t.Errorf("session count = %v, want 4", sessions[0]["count"])
	}
}

func TestPlaylistCommand(t *testing.T) {
	cfg := testEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "known mood", args: []string{"playlist", "Happy"}, want: "Feel Good Hits"},
		{name: "lowercase mood", args: []string{"playlist", "happy", "--offline"}, want: "Happy Upbeat"},
		{name: "names", args: []string{"playlist", "Happy", "--names"}, want: "Upbeat Pop Hits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, cfg, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestDiscoverList(t *testing.T) {
	cfg := testEnv(t)
	t.Setenv("MOOD_TUNNEL_URL", "https://abc.ngrok.app")

	out, err := run(t, cfg, "discover", "--list", "--json")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var candidates []map[string]any
	if err := json.Unmarshal([]byte(out), &candidates); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(candidates) == 0 {
		t.Fatal("no candidates")
	}
	if candidates[0]["url"] != "https://abc.ngrok.app" {
		t.Errorf("first candidate = %v, want tunnel", candidates[0]["url"])
	}
}

func TestDiscoverPinnedEndpoint(t *testing.T) {
	cfg := testEnv(t)
	t.Setenv("MOOD_API_URL", "https://pinned.example/")

	out, err := run(t, cfg, "discover", "--json")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["url"] != "https://pinned.example" || got["reachable"] != true {
		t.Errorf("discover = %v, want pinned endpoint", got)
	}
}

func TestConfigCommands(t *testing.T) {
	cfg := testEnv(t)
	t.Setenv("SPOTIFY_SECRET", "hunter2")

	out, err := run(t, cfg, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != cfg {
		t.Errorf("config path = %q, want %q", out, cfg)
	}

	out, err = run(t, cfg, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("config show leaked the spotify secret")
	}
	if !strings.Contains(out, "listen_addr") {
		t.Errorf("config show output = %q", out)
	}

	if _, err := run(t, cfg, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(cfg); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := run(t, cfg, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := run(t, cfg, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}
