package music

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

const searchLimit = 10

var (
	// ErrMissingCredentials is returned when the Spotify client ID or secret is empty.
	ErrMissingCredentials = errors.New("missing Spotify client ID or secret")

	// ErrNoTracks is returned when neither the genre nor the broad search finds tracks.
	ErrNoTracks = errors.New("no Spotify tracks found")
)

var genreQueries = map[mood.Label]string{
	mood.Happy:     "genre:pop",
	mood.Sad:       "genre:indie",
	mood.Angry:     "genre:rock",
	mood.Calm:      "genre:ambient",
	mood.Anxious:   "genre:classical",
	mood.Surprised: "genre:electronic",
	mood.Disgusted: "genre:alternative",
}

// broadQuery is tried when the genre search comes back empty.
func broadQuery(l mood.Label) string {
	switch l {
	case mood.Angry:
		return "rock"
	case mood.Sad:
		return "ballad"
	default:
		return "pop"
	}
}

// Searcher abstracts the Spotify search endpoint.
type Searcher interface {
	Search(ctx context.Context, query string, t spotify.SearchType, opts ...spotify.RequestOption) (*spotify.SearchResult, error)
}

// SpotifyProvider builds playlists from Spotify track search.
type SpotifyProvider struct {
	api Searcher
}

// NewSpotifyProvider authenticates with the client-credentials flow. No user
// login is involved; only catalog search is available.
func NewSpotifyProvider(ctx context.Context, clientID, clientSecret string, opts ...spotify.ClientOption) (*SpotifyProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(ctx)

	return NewSpotifyProviderFromClient(spotify.New(httpClient, opts...)), nil
}

// NewSpotifyProviderFromClient wraps an existing search client.
func NewSpotifyProviderFromClient(api Searcher) *SpotifyProvider {
	return &SpotifyProvider{api: api}
}

// Playlist searches Spotify for tracks that fit label.
func (p *SpotifyProvider) Playlist(ctx context.Context, l mood.Label) (Playlist, error) {
	query, ok := genreQueries[l]
	if !ok {
		query = genreQueries[mood.Happy]
	}

	tracks, err := p.search(ctx, query)
	if err != nil {
		return Playlist{}, err
	}
	if len(tracks) == 0 {
		tracks, err = p.search(ctx, broadQuery(l))
		if err != nil {
			return Playlist{}, err
		}
	}
	if len(tracks) == 0 {
		return Playlist{}, ErrNoTracks
	}

	songs := make([]Song, len(tracks))
	for i, t := range tracks {
		songs[i] = convertTrack(t, l)
	}

	info := catalog[l]
	return Playlist{
		ID:          "spotify_" + strings.ToLower(string(l)),
		Name:        info.name,
		Description: info.description + " (Spotify)",
		Mood:        l,
		Songs:       songs,
	}, nil
}

func (p *SpotifyProvider) search(ctx context.Context, query string) ([]spotify.FullTrack, error) {
	result, err := p.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if result == nil || result.Tracks == nil {
		return nil, nil
	}
	return result.Tracks.Tracks, nil
}

// convertTrack maps a Spotify track to a Song, filling artwork and audio
// from the mood defaults when Spotify has none.
func convertTrack(t spotify.FullTrack, l mood.Label) Song {
	artist := "Unknown Artist"
	if len(t.Artists) > 0 && t.Artists[0].Name != "" {
		artist = t.Artists[0].Name
	}

	image := DefaultImage(l)
	if len(t.Album.Images) > 0 && t.Album.Images[0].URL != "" {
		image = t.Album.Images[0].URL
	}

	source := t.PreviewURL
	if source == "" {
		source = FallbackAudio(l)
	}

	return Song{
		ID:              t.ID.String(),
		Title:           t.Name,
		Artist:          artist,
		Album:           t.Album.Name,
		Image:           image,
		DurationSeconds: int(t.Duration) / 1000,
		Source:          source,
	}
}
