package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTunnelLocator_PublicURL(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		want    string
		wantErr error
	}{
		{
			name:   "picks https tunnel",
			status: http.StatusOK,
			body:   `{"tunnels":[{"public_url":"http://abc.ngrok.io","proto":"http"},{"public_url":"https://abc.ngrok.io","proto":"https"}]}`,
			want:   "https://abc.ngrok.io",
		},
		{
			name:    "no https tunnel",
			status:  http.StatusOK,
			body:    `{"tunnels":[{"public_url":"tcp://0.tcp.ngrok.io:1234","proto":"tcp"}]}`,
			wantErr: ErrNoTunnel,
		},
		{
			name:    "empty list",
			status:  http.StatusOK,
			body:    `{"tunnels":[]}`,
			wantErr: ErrNoTunnel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tunnels" {
					t.Errorf("path = %q, want /api/tunnels", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewTunnelLocator(server.URL).PublicURL(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PublicURL() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PublicURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTunnelLocator_AgentDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	if _, err := NewTunnelLocator(url).PublicURL(context.Background()); err == nil {
		t.Error("PublicURL() error = nil, want error for unreachable agent")
	}
}
