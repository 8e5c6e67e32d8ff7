package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTunnelAPI is the local inspection API of the tunnel agent.
const DefaultTunnelAPI = "http://localhost:4040"

const tunnelTimeout = 5 * time.Second

// ErrNoTunnel is returned when the agent reports no HTTPS tunnel.
var ErrNoTunnel = errors.New("no https tunnel found")

// TunnelLocator asks a running tunnel agent for its public URL.
type TunnelLocator struct {
	baseURL    string
	httpClient *http.Client
}

// NewTunnelLocator creates a locator for the agent API at baseURL
// (DefaultTunnelAPI when empty).
func NewTunnelLocator(baseURL string) *TunnelLocator {
	if baseURL == "" {
		baseURL = DefaultTunnelAPI
	}
	return &TunnelLocator{
		baseURL:    normalizeURL(baseURL),
		httpClient: &http.Client{Timeout: tunnelTimeout},
	}
}

type tunnelsResponse struct {
	Tunnels []struct {
		Name      string `json:"name"`
		PublicURL string `json:"public_url"`
		Proto     string `json:"proto"`
	} `json:"tunnels"`
}

// PublicURL returns the first HTTPS public URL the agent reports.
func (l *TunnelLocator) PublicURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/tunnels", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying tunnel agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tunnel agent returned HTTP %d", resp.StatusCode)
	}

	var body tunnelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding tunnel list: %w", err)
	}

	for _, t := range body.Tunnels {
		if strings.HasPrefix(t.PublicURL, "https://") {
			return t.PublicURL, nil
		}
	}
	return "", ErrNoTunnel
}
