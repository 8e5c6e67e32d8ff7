// Package analysis turns a face image into a mood, falling back to a
// generated result when the analysis service is unavailable.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justestif/go-mood-melodies/internal/faceapi"
	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// Source indicates where a result came from.
type Source string

const (
	// SourceRemote means the analysis service produced the result.
	SourceRemote Source = "remote"
	// SourceMock means the result was generated locally.
	SourceMock Source = "mock"
)

const (
	// DefaultMockDelay simulates processing time for generated results.
	DefaultMockDelay = 2 * time.Second

	// DefaultRequestTimeout bounds the remote analysis call.
	DefaultRequestTimeout = faceapi.DefaultTimeout
)

// EndpointSource resolves the analysis service base URL.
type EndpointSource interface {
	Endpoint(ctx context.Context) (string, error)
}

// cacheClearer is implemented by endpoint sources that cache.
type cacheClearer interface {
	ClearCache()
}

// Analyzer performs a remote analysis.
type Analyzer interface {
	AnalyzeBase64(ctx context.Context, baseURL, dataURI string) (mood.Result, error)
}

// Generator fabricates a result.
type Generator interface {
	Generate() mood.Result
}

// Attempt is the outcome of one remote analysis.
type Attempt struct {
	Result   mood.Result
	Endpoint string
	Err      error
}

// OK reports whether the attempt produced a result.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// Outcome is what callers receive. Result has the same shape for remote and
// generated analyses; only Source tells them apart.
type Outcome struct {
	ID             uuid.UUID   `json:"id"`
	Result         mood.Result `json:"result"`
	Source         Source      `json:"source"`
	Endpoint       string      `json:"endpoint,omitempty"`
	FallbackReason string      `json:"fallback_reason,omitempty"`
	AnalyzedAt     time.Time   `json:"analyzed_at"`
}

// Service runs mood analyses.
type Service struct {
	endpoints      EndpointSource
	analyzer       Analyzer
	generator      Generator
	store          store.MoodStore
	logger         *zap.Logger
	mockDelay      time.Duration
	requestTimeout time.Duration
	discoveryWait  time.Duration
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every outcome to s.
func WithStore(s store.MoodStore) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithMockDelay sets the simulated processing time for generated results.
func WithMockDelay(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.mockDelay = d
		}
	}
}

// WithRequestTimeout bounds the analysis request. Endpoint resolution is
// not included.
func WithRequestTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.requestTimeout = d
		}
	}
}

// WithDiscoveryWait bounds how long one analysis waits for endpoint
// resolution. A discovery that outlasts the wait keeps running and serves
// later calls. Zero waits for discovery to finish.
func WithDiscoveryWait(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.discoveryWait = d
		}
	}
}

// WithClock sets the time source for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// NewService creates an analysis service.
func NewService(endpoints EndpointSource, analyzer Analyzer, generator Generator, opts ...Option) *Service {
	s := &Service{
		endpoints:      endpoints,
		analyzer:       analyzer,
		generator:      generator,
		logger:         zap.NewNop(),
		mockDelay:      DefaultMockDelay,
		requestTimeout: DefaultRequestTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeMood analyzes the image at imageRef, a file path or data URI.
// Only image read failures are returned as errors; any remote failure is
// logged and replaced by a generated result.
func (s *Service) AnalyzeMood(ctx context.Context, imageRef string) (Outcome, error) {
	dataURI, err := encode(imageRef)
	if err != nil {
		return Outcome{}, err
	}

	attempt := s.Remote(ctx, dataURI)
	if attempt.OK() {
		return s.finish(ctx, attempt.Result, SourceRemote, attempt.Endpoint, ""), nil
	}

	s.logger.Warn("remote analysis failed, using generated result",
		zap.String("endpoint", attempt.Endpoint),
		zap.Error(attempt.Err),
	)
	s.invalidate(attempt)

	result := s.mock(ctx)
	return s.finish(ctx, result, SourceMock, attempt.Endpoint, attempt.Err.Error()), nil
}

// AnalyzeRemote analyzes the image without fallback. faceapi.ErrNoFaceDetected
// and transport errors are returned to the caller.
func (s *Service) AnalyzeRemote(ctx context.Context, imageRef string) (Outcome, error) {
	dataURI, err := encode(imageRef)
	if err != nil {
		return Outcome{}, err
	}

	attempt := s.Remote(ctx, dataURI)
	if !attempt.OK() {
		s.invalidate(attempt)
		return Outcome{}, attempt.Err
	}
	return s.finish(ctx, attempt.Result, SourceRemote, attempt.Endpoint, ""), nil
}

// AnalyzeSample returns a generated result without contacting the service.
func (s *Service) AnalyzeSample(ctx context.Context) Outcome {
	return s.finish(ctx, s.mock(ctx), SourceMock, "", "")
}

// Remote resolves the endpoint and performs one analysis call. The request
// timeout applies to the analysis call only.
func (s *Service) Remote(ctx context.Context, dataURI string) Attempt {
	endpoint, err := s.resolve(ctx)
	if err != nil {
		return Attempt{Err: fmt.Errorf("resolving endpoint: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeBase64(callCtx, endpoint, dataURI)
	if err != nil {
		return Attempt{Endpoint: endpoint, Err: err}
	}

	s.logger.Debug("remote analysis complete",
		zap.String("endpoint", endpoint),
		zap.String("mood", string(result.Mood)),
		zap.Float64("confidence", result.Confidence),
	)
	return Attempt{Result: result, Endpoint: endpoint}
}

func (s *Service) resolve(ctx context.Context) (string, error) {
	if s.discoveryWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.discoveryWait)
		defer cancel()
	}
	return s.endpoints.Endpoint(ctx)
}

// invalidate drops the cached endpoint when it stopped answering. A status
// error means the endpoint is alive, so the cache is kept.
func (s *Service) invalidate(a Attempt) {
	if a.Endpoint == "" {
		return
	}
	var statusErr *faceapi.StatusError
	if errors.As(a.Err, &statusErr) || errors.Is(a.Err, faceapi.ErrMalformedResponse) {
		return
	}
	if c, ok := s.endpoints.(cacheClearer); ok {
		c.ClearCache()
		s.logger.Debug("cleared endpoint cache", zap.String("endpoint", a.Endpoint))
	}
}

// mock waits out the simulated delay, cut short if ctx ends, then generates.
func (s *Service) mock(ctx context.Context) mood.Result {
	if s.mockDelay > 0 {
		timer := time.NewTimer(s.mockDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return s.generator.Generate()
}

func (s *Service) finish(ctx context.Context, result mood.Result, source Source, endpoint, reason string) Outcome {
	out := Outcome{
		ID:             uuid.New(),
		Result:         result,
		Source:         source,
		Endpoint:       endpoint,
		FallbackReason: reason,
		AnalyzedAt:     s.now().UTC(),
	}

	if s.store != nil {
		rec := store.NewRecord(out.ID, result, string(source), out.AnalyzedAt)
		if err := s.store.SaveResult(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.Warn("saving mood failed", zap.Error(err))
		}
	}

	s.logger.Info("mood analyzed",
		zap.String("id", out.ID.String()),
		zap.String("mood", string(result.Mood)),
		zap.Float64("confidence", result.Confidence),
		zap.String("source", string(source)),
	)
	return out
}

func encode(imageRef string) (string, error) {
	if faceapi.IsDataURI(imageRef) {
		return imageRef, nil
	}
	return faceapi.EncodeImage(imageRef)
}
