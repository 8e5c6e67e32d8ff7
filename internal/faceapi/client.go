// Package faceapi is a client for the face-expression analysis service.
package faceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justestif/go-mood-melodies/internal/discovery"
	"github.com/justestif/go-mood-melodies/internal/mood"
)

// DefaultTimeout bounds one analysis request.
const DefaultTimeout = 10 * time.Second

const userAgent = "mood-melodies/1.0"

// Sentinel errors.
var (
	// ErrNoFaceDetected is returned when the service could not find a face.
	// The caller should ask the user to retry rather than fabricate a result.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMalformedResponse is returned when the response is not a valid mood result.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis request failed: HTTP %d", e.Code)
	}
	return fmt.Sprintf("analysis request failed: HTTP %d: %s", e.Code, e.Message)
}

// Is reports whether the service said it found no face.
func (e *StatusError) Is(target error) bool {
	return target == ErrNoFaceDetected && strings.Contains(strings.ToLower(e.Message), "no face")
}

// Client calls the analysis service. The base URL is passed per call since
// it is resolved by discovery.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	prober     *discovery.HTTPProber
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client with a 10 second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.prober = discovery.NewHTTPProber(c.timeout, discovery.WithProbeClient(c.httpClient))
	return c
}

type analyzeRequest struct {
	ImageData string `json:"imageData"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AnalyzeBase64 posts a data-URI image to {baseURL}/analyze-mood-base64 and
// returns the validated result.
func (c *Client) AnalyzeBase64(ctx context.Context, baseURL, dataURI string) (mood.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(analyzeRequest{ImageData: dataURI})
	if err != nil {
		return mood.Result{}, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/analyze-mood-base64"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return mood.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("ngrok-skip-browser-warning", "any")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mood.Result{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return mood.Result{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp errorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return mood.Result{}, &StatusError{Code: resp.StatusCode, Message: msg}
	}

	var result mood.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return mood.Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := result.Validate(); err != nil {
		return mood.Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return result, nil
}

// Health checks {baseURL}/health using the same contract as discovery,
// with the client's HTTP client and timeout.
func (c *Client) Health(ctx context.Context, baseURL string) error {
	r := c.prober.Probe(ctx, baseURL)
	if !r.OK {
		return r.Err
	}
	return nil
}
