package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultProbeTimeout bounds a single health check.
const DefaultProbeTimeout = 3 * time.Second

// Sentinel errors.
var (
	// ErrUnhealthyStatus is returned when /health answers with a non-200 status.
	ErrUnhealthyStatus = errors.New("unhealthy status")

	// ErrUnexpectedBody is returned when /health does not report status "OK".
	ErrUnexpectedBody = errors.New("unexpected health body")
)

// ProbeResult describes one health check.
type ProbeResult struct {
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Status  int           `json:"status,omitempty"`
	Latency time.Duration `json:"latency"`
	Err     error         `json:"-"`
}

// Error returns the failure reason, or "" on success.
func (r ProbeResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Prober checks whether a base URL hosts a healthy analysis service.
type Prober interface {
	Probe(ctx context.Context, baseURL string) ProbeResult
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, baseURL string) ProbeResult

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, baseURL string) ProbeResult {
	return f(ctx, baseURL)
}

// HTTPProber probes GET {url}/health.
type HTTPProber struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Ensure HTTPProber implements Prober at compile time.
var _ Prober = (*HTTPProber)(nil)

// ProberOption configures an HTTPProber.
type ProberOption func(*HTTPProber)

// WithProbeClient sets the underlying HTTP client.
func WithProbeClient(hc *http.Client) ProberOption {
	return func(p *HTTPProber) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

// NewHTTPProber creates a prober with the given per-probe timeout.
// A non-positive timeout uses DefaultProbeTimeout.
func NewHTTPProber(timeout time.Duration, opts ...ProberOption) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	p := &HTTPProber{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// healthResponse is the expected /health payload.
type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// Probe performs one health check. The request is aborted at the timeout
// boundary; there are no retries.
func (p *HTTPProber) Probe(ctx context.Context, baseURL string) ProbeResult {
	start := time.Now()
	result := ProbeResult{URL: baseURL}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		result.Err = fmt.Errorf("creating request: %w", err)
		result.Latency = time.Since(start)
		return result
	}
	req.Header.Set("Accept", "application/json")
	// tunnel providers interpose an HTML warning page without this header
	req.Header.Set("ngrok-skip-browser-warning", "any")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("executing request: %w", err)
		result.Latency = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		result.Err = fmt.Errorf("%w: HTTP %d", ErrUnhealthyStatus, resp.StatusCode)
		result.Latency = time.Since(start)
		return result
	}

	var body healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrUnexpectedBody, err)
		result.Latency = time.Since(start)
		return result
	}
	result.Latency = time.Since(start)

	if body.Status != "OK" {
		result.Err = fmt.Errorf("%w: status %q", ErrUnexpectedBody, body.Status)
		return result
	}

	result.OK = true
	return result
}
