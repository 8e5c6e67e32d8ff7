package music

import (
	"reflect"
	"strings"
	"testing"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

func TestLookup_KnownLabels(t *testing.T) {
	for _, l := range mood.Labels() {
		t.Run(string(l), func(t *testing.T) {
			p := Lookup(string(l))
			if p.Mood != l {
				t.Errorf("Mood = %q, want %q", p.Mood, l)
			}
			if want := "fallback_" + strings.ToLower(string(l)); p.ID != want {
				t.Errorf("ID = %q, want %q", p.ID, want)
			}
			if p.Name == "" || !strings.HasSuffix(p.Description, "(Demo)") {
				t.Errorf("Name/Description = %q/%q", p.Name, p.Description)
			}
			if len(p.Songs) == 0 {
				t.Error("playlist has no songs")
			}
			for _, s := range p.Songs {
				if s.Source == "" || s.DurationSeconds <= 0 {
					t.Errorf("song %+v missing source or duration", s)
				}
			}
		})
	}
}

func TestLookup_UnknownUsesDefault(t *testing.T) {
	want := Lookup(string(mood.DefaultLabel))
	for _, in := range []string{"", "Neutral", "excited"} {
		if got := Lookup(in); !reflect.DeepEqual(got, want) {
			t.Errorf("Lookup(%q) = %+v, want default playlist", in, got)
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	if got := Lookup("happy"); got.Mood != mood.Happy {
		t.Errorf("Lookup(happy).Mood = %q, want Happy", got.Mood)
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	p := Lookup("Happy")
	p.Songs[0].Title = "changed"
	if Lookup("Happy").Songs[0].Title == "changed" {
		t.Error("Lookup returned shared song slice")
	}
}

func TestPlaylistNames(t *testing.T) {
	tests := []struct {
		label string
		want  []string
	}{
		{"Happy", []string{"Upbeat Pop Hits", "Feel Good Classics", "Dance Party", "Summer Vibes", "Positive Energy"}},
		{"Angry", []string{"Rock Anthems", "Heavy Metal", "Punk Rock", "Aggressive Hip-Hop", "Power Songs"}},
		{"unknown", []string{"Ambient Chill", "Peaceful Piano", "Nature Sounds", "Meditation Music", "Lo-Fi Beats"}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := PlaylistNames(tt.label); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlaylistNames(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}

	for _, l := range mood.Labels() {
		if n := len(PlaylistNames(string(l))); n != 5 {
			t.Errorf("PlaylistNames(%q) has %d names, want 5", l, n)
		}
	}
}
