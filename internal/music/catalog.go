// Package music maps moods to playlists.
package music

import (
	"strings"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

// Song is one playable track. Source is a remote URL or a bundled file path.
type Song struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album,omitempty"`
	Image           string `json:"image"`
	DurationSeconds int    `json:"duration"`
	Source          string `json:"url"`
}

// Playlist is an ordered set of songs for a mood.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Mood        mood.Label `json:"mood"`
	Songs       []Song     `json:"songs"`
}

const (
	imageBright = "https://images.pexels.com/photos/1105666/pexels-photo-1105666.jpeg?auto=compress&cs=tinysrgb&w=400"
	imageMoody  = "https://images.pexels.com/photos/1761279/pexels-photo-1761279.jpeg?auto=compress&cs=tinysrgb&w=400"
	imageStage  = "https://images.pexels.com/photos/1190298/pexels-photo-1190298.jpeg?auto=compress&cs=tinysrgb&w=400"

	audioLong  = "https://commondatastorage.googleapis.com/codeskulptor-demos/DDR_assets/Kangaroo_MusiQue_-_The_Neverwritten_Role_Playing_Game.mp3"
	audioShort = "https://commondatastorage.googleapis.com/codeskulptor-assets/week7-button.m4a"
)

type moodInfo struct {
	name        string
	description string
	image       string
	audio       string
	collections []string
	demo        []Song
}

var catalog = map[mood.Label]moodInfo{
	mood.Happy: {
		name:        "Feel Good Hits",
		description: "Upbeat songs to keep your energy high",
		image:       imageBright,
		audio:       audioLong,
		collections: []string{"Upbeat Pop Hits", "Feel Good Classics", "Dance Party", "Summer Vibes", "Positive Energy"},
		demo: []Song{
			{ID: "1", Title: "Happy Upbeat", Artist: "Sample Music", Image: imageBright, DurationSeconds: 180, Source: audioLong},
			{ID: "2", Title: "Cheerful Melody", Artist: "Sample Music", Image: imageStage, DurationSeconds: 121, Source: audioShort},
		},
	},
	mood.Sad: {
		name:        "Melancholic Melodies",
		description: "Songs for when you need to feel",
		image:       imageMoody,
		audio:       audioShort,
		collections: []string{"Melancholic Melodies", "Emotional Ballads", "Rainy Day Blues", "Heartbreak Healing", "Introspective Indie"},
		demo: []Song{
			{ID: "3", Title: "Melancholy", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 121, Source: audioShort},
			{ID: "4", Title: "Emotional Ballad", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 180, Source: audioLong},
		},
	},
	mood.Angry: {
		name:        "Rock Anthems",
		description: "Channel your energy with powerful music",
		image:       imageStage,
		audio:       audioShort,
		collections: []string{"Rock Anthems", "Heavy Metal", "Punk Rock", "Aggressive Hip-Hop", "Power Songs"},
		demo: []Song{
			{ID: "5", Title: "Rock Power", Artist: "Sample Music", Image: imageStage, DurationSeconds: 121, Source: audioShort},
			{ID: "6", Title: "Heavy Energy", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 180, Source: audioLong},
		},
	},
	mood.Calm: {
		name:        "Peaceful Moments",
		description: "Gentle melodies for relaxation",
		image:       imageMoody,
		audio:       audioShort,
		collections: []string{"Ambient Chill", "Peaceful Piano", "Nature Sounds", "Meditation Music", "Lo-Fi Beats"},
		demo: []Song{
			{ID: "7", Title: "Peaceful", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 121, Source: audioShort},
			{ID: "8", Title: "Serene Sounds", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 180, Source: audioLong},
		},
	},
	mood.Anxious: {
		name:        "Calming Sounds",
		description: "Soothing sounds to ease anxiety",
		image:       imageBright,
		audio:       audioShort,
		collections: []string{"Calming Instrumentals", "Soothing Sounds", "Relaxation Music", "Mindfulness", "Gentle Acoustic"},
		demo: []Song{
			{ID: "9", Title: "Soothing", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 121, Source: audioShort},
		},
	},
	mood.Surprised: {
		name:        "Discovery Mix",
		description: "New sounds to explore",
		image:       imageBright,
		audio:       audioLong,
		collections: []string{"Energetic Pop", "Uplifting Beats", "Feel Good Mix", "Motivational Music", "Discovery Playlist"},
		demo: []Song{
			{ID: "10", Title: "Energetic", Artist: "Sample Music", Image: imageStage, DurationSeconds: 180, Source: audioLong},
		},
	},
	mood.Disgusted: {
		name:        "Alternative Vibes",
		description: "Raw and authentic music",
		image:       imageBright,
		audio:       audioShort,
		collections: []string{"Cleansing Beats", "Fresh Start", "Renewal Playlist", "Positive Vibes", "Mood Lifter"},
		demo: []Song{
			{ID: "11", Title: "Alternative", Artist: "Sample Music", Image: imageMoody, DurationSeconds: 121, Source: audioShort},
		},
	},
}

// resolve maps a free-form label to a catalogued mood, defaulting to Calm.
func resolve(label string) mood.Label {
	return mood.LabelOrDefault(label)
}

// PlaylistNames returns the named collections suggested for label.
func PlaylistNames(label string) []string {
	return append([]string(nil), catalog[resolve(label)].collections...)
}

// Lookup returns the built-in demo playlist for label. Unknown labels get
// the Calm playlist.
func Lookup(label string) Playlist {
	return demoPlaylist(resolve(label))
}

func demoPlaylist(l mood.Label) Playlist {
	info := catalog[l]
	return Playlist{
		ID:          "fallback_" + strings.ToLower(string(l)),
		Name:        info.name,
		Description: info.description + " (Demo)",
		Mood:        l,
		Songs:       append([]Song(nil), info.demo...),
	}
}

// DefaultImage returns the artwork used when a track has none.
func DefaultImage(l mood.Label) string {
	if info, ok := catalog[l]; ok {
		return info.image
	}
	return imageBright
}

// FallbackAudio returns the demo audio used when a track has no preview.
func FallbackAudio(l mood.Label) string {
	if info, ok := catalog[l]; ok {
		return info.audio
	}
	return audioLong
}
