package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultFallbackURL is returned when no candidate answers and fallback is enabled.
const DefaultFallbackURL = "http://localhost:3001"

// DefaultRaceConcurrency bounds in-flight probes for the Race strategy and Survey.
const DefaultRaceConcurrency = 16

// ErrNoEndpoint is returned when every candidate failed and no fallback is configured.
var ErrNoEndpoint = errors.New("no reachable endpoint")

// Strategy selects how candidates are swept.
type Strategy int

const (
	// Sequential probes candidates one at a time in order; the first success wins.
	Sequential Strategy = iota
	// Race probes candidates concurrently; the first success to complete wins,
	// which may not be the earliest candidate in order.
	Race
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Race:
		return "race"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps "sequential" or "race" to a Strategy. Empty means Sequential.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "race":
		return Race, nil
	default:
		return Sequential, fmt.Errorf("unknown discovery strategy %q", s)
	}
}

// State describes the discovery cache lifecycle.
type State string

const (
	StateEmpty       State = "empty"
	StateDiscovering State = "discovering"
	StateCached      State = "cached"
	StateStale       State = "stale"
)

// Discoverer resolves the analysis service base URL, caching the result.
type Discoverer struct {
	prober      Prober
	cache       *Cache
	strategy    Strategy
	concurrency int
	fallback    string
	logger      *zap.Logger

	cfgMu sync.RWMutex
	cfg   CandidateConfig

	pinned atomic.Pointer[string]

	flight      singleflight.Group
	discovering atomic.Bool
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithProber sets the health prober.
func WithProber(p Prober) Option {
	return func(d *Discoverer) {
		d.prober = p
	}
}

// WithCache sets the endpoint cache.
func WithCache(c *Cache) Option {
	return func(d *Discoverer) {
		d.cache = c
	}
}

// WithCandidateConfig sets how candidates are generated.
func WithCandidateConfig(cfg CandidateConfig) Option {
	return func(d *Discoverer) {
		d.cfg = cfg
	}
}

// WithStrategy sets the sweep strategy.
func WithStrategy(s Strategy) Option {
	return func(d *Discoverer) {
		d.strategy = s
	}
}

// WithConcurrency bounds concurrent probes for Race and Survey.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithFallback sets the URL returned when every candidate fails.
// An empty url disables the fallback so Endpoint returns ErrNoEndpoint.
func WithFallback(url string) Option {
	return func(d *Discoverer) {
		d.fallback = normalizeURL(url)
	}
}

// WithPinnedEndpoint fixes the endpoint to url and disables discovery.
func WithPinnedEndpoint(url string) Option {
	return func(d *Discoverer) {
		d.pin(url)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Discoverer with an HTTP prober, a 30s cache, the default
// candidate set, and the localhost fallback.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		strategy:    Sequential,
		concurrency: DefaultRaceConcurrency,
		fallback:    DefaultFallbackURL,
		logger:      zap.NewNop(),
		cfg:         DefaultCandidateConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.prober == nil {
		d.prober = NewHTTPProber(DefaultProbeTimeout)
	}
	if d.cache == nil {
		d.cache = NewCache(DefaultCacheTTL, nil)
	}
	return d
}

// Candidates returns the current candidate list.
func (d *Discoverer) Candidates() []Candidate {
	d.cfgMu.RLock()
	cfg := d.cfg
	d.cfgMu.RUnlock()
	return Candidates(cfg)
}

// PinEndpoint fixes the endpoint to url until unpinned. The pin does not
// expire and survives ClearCache. An empty url removes the pin and clears
// the cache so the next call sweeps.
func (d *Discoverer) PinEndpoint(url string) {
	d.pin(url)
	if url == "" {
		d.cache.Clear()
		d.logger.Info("endpoint unpinned")
		return
	}
	d.logger.Info("endpoint pinned", zap.String("url", normalizeURL(url)))
}

func (d *Discoverer) pin(url string) {
	url = normalizeURL(url)
	if url == "" {
		d.pinned.Store(nil)
		return
	}
	d.pinned.Store(&url)
}

// Pinned returns the pinned endpoint, or "".
func (d *Discoverer) Pinned() string {
	if p := d.pinned.Load(); p != nil {
		return *p
	}
	return ""
}

// SetEndpoint seeds the cache with a known URL. Unlike PinEndpoint it
// expires with the cache TTL.
func (d *Discoverer) SetEndpoint(url string) {
	url = normalizeURL(url)
	d.cache.Set(url)
	d.logger.Info("endpoint set manually", zap.String("url", url))
}

// ClearCache forces a fresh sweep on the next Endpoint call.
func (d *Discoverer) ClearCache() {
	d.cache.Clear()
	d.logger.Debug("endpoint cache cleared")
}

// SetTunnelURL changes the highest-priority candidate and invalidates the cache.
func (d *Discoverer) SetTunnelURL(url string) {
	d.cfgMu.Lock()
	d.cfg.TunnelURL = normalizeURL(url)
	d.cfgMu.Unlock()
	d.cache.Clear()
	d.logger.Info("tunnel url updated", zap.String("url", url))
}

// Cached returns the last discovered URL regardless of freshness, or "".
func (d *Discoverer) Cached() string {
	if p := d.Pinned(); p != "" {
		return p
	}
	url, _ := d.cache.Peek()
	return url
}

// State reports where the cache is in its lifecycle.
func (d *Discoverer) State() State {
	if d.Pinned() != "" {
		return StateCached
	}
	if d.discovering.Load() {
		return StateDiscovering
	}
	if _, ok := d.cache.Get(); ok {
		return StateCached
	}
	if url, _ := d.cache.Peek(); url != "" {
		return StateStale
	}
	return StateEmpty
}

// Endpoint returns the pinned URL, the cached URL if fresh, or sweeps the
// candidates. Concurrent callers share a single sweep, which runs detached
// from every caller's context and is bounded only by per-probe timeouts.
// A caller whose ctx ends stops waiting; the sweep still finishes and
// caches its winner. When every candidate fails the fallback URL is
// returned, or ErrNoEndpoint if fallback is disabled. The fallback is not
// cached.
func (d *Discoverer) Endpoint(ctx context.Context) (string, error) {
	if p := d.Pinned(); p != "" {
		return p, nil
	}
	if url, ok := d.cache.Get(); ok {
		return url, nil
	}

	sweepCtx := context.WithoutCancel(ctx)
	ch := d.flight.DoChan("sweep", func() (any, error) {
		if url, ok := d.cache.Get(); ok {
			return url, nil
		}
		return d.sweep(sweepCtx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for discovery: %w", ctx.Err())
	}

	if res.Err == nil {
		url := res.Val.(string)
		if res.Shared {
			d.logger.Debug("joined in-flight discovery", zap.String("url", url))
		}
		return url, nil
	}

	if errors.Is(res.Err, ErrNoEndpoint) && d.fallback != "" {
		d.logger.Warn("no endpoint answered, using fallback", zap.String("fallback", d.fallback))
		return d.fallback, nil
	}
	return "", res.Err
}

func (d *Discoverer) sweep(ctx context.Context) (string, error) {
	d.discovering.Store(true)
	defer d.discovering.Store(false)

	candidates := d.Candidates()
	start := time.Now()
	d.logger.Debug("discovering endpoint",
		zap.Int("candidates", len(candidates)),
		zap.Stringer("strategy", d.strategy),
	)

	var (
		winner ProbeResult
		found  bool
	)
	switch d.strategy {
	case Race:
		winner, found = d.race(ctx, candidates)
	default:
		winner, found = d.sequential(ctx, candidates)
	}

	if !found {
		d.logger.Warn("discovery failed",
			zap.Int("candidates", len(candidates)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", ErrNoEndpoint
	}

	d.cache.Set(winner.URL)
	d.logger.Info("endpoint discovered",
		zap.String("url", winner.URL),
		zap.Duration("latency", winner.Latency),
		zap.Duration("elapsed", time.Since(start)),
	)
	return winner.URL, nil
}

func (d *Discoverer) sequential(ctx context.Context, candidates []Candidate) (ProbeResult, bool) {
	for _, c := range candidates {
		if ctx.Err() != nil {
			return ProbeResult{}, false
		}
		r := d.prober.Probe(ctx, c.URL)
		if r.OK {
			return r, true
		}
		d.logger.Debug("probe failed", zap.String("url", c.URL), zap.Error(r.Err))
	}
	return ProbeResult{}, false
}

func (d *Discoverer) race(ctx context.Context, candidates []Candidate) (ProbeResult, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		winner ProbeResult
		found  bool
	)

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, c := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r := d.prober.Probe(ctx, c.URL)
			if r.OK {
				once.Do(func() {
					winner, found = r, true
					cancel()
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	return winner, found
}

// Survey probes every candidate concurrently and returns all results in
// candidate order. It does not touch the cache.
func (d *Discoverer) Survey(ctx context.Context) []ProbeResult {
	candidates := d.Candidates()
	results := make([]ProbeResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			results[i] = d.prober.Probe(ctx, c.URL)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
