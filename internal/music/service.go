package music

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

// Provider fetches a playlist from an online catalog.
type Provider interface {
	Playlist(ctx context.Context, l mood.Label) (Playlist, error)
}

// Ensure SpotifyProvider implements Provider at compile time.
var _ Provider = (*SpotifyProvider)(nil)

// Service resolves playlists: online provider first, then bundled songs,
// then the built-in demo table.
type Service struct {
	provider Provider
	bundled  map[mood.Label][]Song
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithProvider sets the online provider.
func WithProvider(p Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithBundled sets locally bundled songs per mood.
func WithBundled(songs map[mood.Label][]Song) Option {
	return func(s *Service) {
		s.bundled = songs
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a playlist service.
func NewService(opts ...Option) *Service {
	s := &Service{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaylistFor returns a playlist for label. It never fails; provider errors
// are logged and the offline playlist is returned.
func (s *Service) PlaylistFor(ctx context.Context, label string) Playlist {
	l := resolve(label)

	if s.provider != nil {
		p, err := s.provider.Playlist(ctx, l)
		if err == nil {
			return p
		}
		s.logger.Warn("online playlist failed, using offline playlist",
			zap.String("mood", string(l)),
			zap.Error(err),
		)
	}

	return s.Offline(l)
}

// Offline returns the bundled playlist for l when songs are bundled for it,
// otherwise the demo playlist.
func (s *Service) Offline(l mood.Label) Playlist {
	if songs := s.bundled[l]; len(songs) > 0 {
		info := catalog[l]
		return Playlist{
			ID:          "bundled_" + strings.ToLower(string(l)),
			Name:        info.name,
			Description: info.description,
			Mood:        l,
			Songs:       append([]Song(nil), songs...),
		}
	}
	return demoPlaylist(l)
}

// Names returns the suggested collection names for label.
func (s *Service) Names(label string) []string {
	return PlaylistNames(label)
}
