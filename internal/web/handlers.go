package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justestif/go-mood-melodies/internal/analysis"
	"github.com/justestif/go-mood-melodies/internal/clustering"
	"github.com/justestif/go-mood-melodies/internal/discovery"
	"github.com/justestif/go-mood-melodies/internal/faceapi"
	"github.com/justestif/go-mood-melodies/internal/mood"
	"github.com/justestif/go-mood-melodies/internal/music"
	"github.com/justestif/go-mood-melodies/internal/store"
)

// base64 inflates the image by 4/3; leave room for the JSON envelope.
const maxJSONBody = faceapi.MaxImageBytes*4/3 + 4096

// Endpoints is the discovery surface the API exposes.
type Endpoints interface {
	Endpoint(ctx context.Context) (string, error)
	SetEndpoint(url string)
	ClearCache()
	Cached() string
	Survey(ctx context.Context) []discovery.ProbeResult
	State() discovery.State
}

// Analyzer runs mood analyses.
type Analyzer interface {
	AnalyzeMood(ctx context.Context, imageRef string) (analysis.Outcome, error)
	AnalyzeRemote(ctx context.Context, imageRef string) (analysis.Outcome, error)
	AnalyzeSample(ctx context.Context) analysis.Outcome
}

// Playlists resolves moods to playlists.
type Playlists interface {
	PlaylistFor(ctx context.Context, label string) music.Playlist
	Names(label string) []string
}

// History reads persisted moods.
type History interface {
	LastMood(ctx context.Context) (mood.Label, error)
	History(ctx context.Context, limit int) ([]store.Record, error)
}

var (
	_ Endpoints = (*discovery.Discoverer)(nil)
	_ Analyzer  = (*analysis.Service)(nil)
	_ Playlists = (*music.Service)(nil)
	_ History   = (store.MoodStore)(nil)
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	endpoints Endpoints
	analyzer  Analyzer
	playlists Playlists
	history   History
	logger    *zap.Logger

	discoveryWait time.Duration
}

// NewHandlers creates a new Handlers instance. history may be nil: the last
// mood then answers 404 and history routes return empty lists.
func NewHandlers(endpoints Endpoints, analyzer Analyzer, playlists Playlists, history History, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		endpoints: endpoints,
		analyzer:  analyzer,
		playlists: playlists,
		history:   history,
		logger:    logger,

		discoveryWait: DiscoveryWait,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writing response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorBody{Error: msg})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

type endpointBody struct {
	URL   string          `json:"url"`
	State discovery.State `json:"state"`
}

// GetEndpoint handles GET /api/endpoint, discovering if the cache is cold.
// A sweep that outlasts the discovery wait answers 504 and keeps running.
func (h *Handlers) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.discoveryWait)
	defer cancel()

	u, err := h.endpoints.Endpoint(ctx)
	if err != nil {
		switch {
		case errors.Is(err, discovery.ErrNoEndpoint):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			h.writeError(w, http.StatusGatewayTimeout, "discovery still running, retry shortly")
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusOK, endpointBody{URL: u, State: h.endpoints.State()})
}

// PutEndpoint handles PUT /api/endpoint with {"url": "..."}.
func (h *Handlers) PutEndpoint(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !validServiceURL(body.URL) {
		h.writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}
	h.endpoints.SetEndpoint(body.URL)
	h.writeJSON(w, http.StatusOK, endpointBody{URL: h.endpoints.Cached(), State: h.endpoints.State()})
}

// DeleteEndpoint handles DELETE /api/endpoint.
func (h *Handlers) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	h.endpoints.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

type surveyItem struct {
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Survey handles GET /api/endpoint/survey.
func (h *Handlers) Survey(w http.ResponseWriter, r *http.Request) {
	results := h.endpoints.Survey(r.Context())
	items := make([]surveyItem, 0, len(results))
	for _, res := range results {
		items = append(items, surveyItem{
			URL:       res.URL,
			OK:        res.OK,
			Status:    res.Status,
			LatencyMS: res.Latency.Milliseconds(),
			Error:     res.Error(),
		})
	}
	h.writeJSON(w, http.StatusOK, items)
}

// Analyze handles POST /api/analyze. The image is a JSON {"imageData"}
// data URI or a multipart "image" file. With ?mode=remote the generated
// fallback is disabled and service failures are reported.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	dataURI, status, err := readImage(w, r)
	if err != nil {
		h.writeError(w, status, err.Error())
		return
	}

	var out analysis.Outcome
	if r.URL.Query().Get("mode") == "remote" {
		out, err = h.analyzer.AnalyzeRemote(r.Context(), dataURI)
	} else {
		out, err = h.analyzer.AnalyzeMood(r.Context(), dataURI)
	}
	if err != nil {
		h.writeError(w, analyzeStatus(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// AnalyzeSample handles POST /api/analyze/sample.
func (h *Handlers) AnalyzeSample(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.analyzer.AnalyzeSample(r.Context()))
}

func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, faceapi.ErrImageUnreadable):
		return http.StatusBadRequest
	case errors.Is(err, faceapi.ErrNoFaceDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, discovery.ErrNoEndpoint):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// readImage extracts a data URI from the request. Server-side file paths
// are never accepted.
func readImage(w http.ResponseWriter, r *http.Request) (string, int, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, faceapi.MaxImageBytes+1<<20)
		file, _, err := r.FormFile("image")
		if err != nil {
			return "", http.StatusBadRequest, errors.New(`missing "image" form file`)
		}
		defer file.Close()
		dataURI, err := faceapi.EncodeImageReader(file)
		if err != nil {
			return "", http.StatusBadRequest, err
		}
		return dataURI, 0, nil
	}

	var body struct {
		ImageData string `json:"imageData"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", http.StatusRequestEntityTooLarge, errors.New("image too large")
		}
		return "", http.StatusBadRequest, errors.New("invalid JSON body")
	}
	if !faceapi.IsDataURI(body.ImageData) {
		return "", http.StatusBadRequest, errors.New("imageData must be a base64 data URI")
	}
	return body.ImageData, 0, nil
}

// LastMood handles GET /api/mood/last.
func (h *Handlers) LastMood(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, http.StatusNotFound, "no mood recorded")
		return
	}
	label, err := h.history.LastMood(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "no mood recorded")
			return
		}
		h.logger.Error("reading last mood", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "reading last mood failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]mood.Label{"mood": label})
}

// MoodHistory handles GET /api/moods/history?limit=N.
func (h *Handlers) MoodHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", store.DefaultHistoryLimit)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	records, ok := h.records(w, r, limit)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

type trendsBody struct {
	Trends   []clustering.Trend `json:"trends"`
	Outliers int                `json:"outliers"`
	Summary  string             `json:"summary"`
}

// MoodTrends handles GET /api/moods/trends?k=N.
func (h *Handlers) MoodTrends(w http.ResponseWriter, r *http.Request) {
	k, ok := intParam(r, "k", clustering.DefaultTrendConfig().NumClusters)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "k must be a positive integer")
		return
	}
	records, ok := h.records(w, r, 0)
	if !ok {
		return
	}

	cfg := clustering.DefaultTrendConfig()
	cfg.NumClusters = k
	trends, outliers, err := clustering.DetectTrends(records, cfg)
	if err != nil {
		h.logger.Error("detecting trends", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "detecting trends failed")
		return
	}
	if trends == nil {
		trends = []clustering.Trend{}
	}
	h.writeJSON(w, http.StatusOK, trendsBody{
		Trends:   trends,
		Outliers: len(outliers),
		Summary:  clustering.FormatTrendSummary(trends, len(outliers)),
	})
}

// MoodSessions handles GET /api/moods/sessions?gap=1h.
func (h *Handlers) MoodSessions(w http.ResponseWriter, r *http.Request) {
	cfg := clustering.DefaultSessionConfig()
	if raw := r.URL.Query().Get("gap"); raw != "" {
		gap, err := time.ParseDuration(raw)
		if err != nil || gap <= 0 {
			h.writeError(w, http.StatusBadRequest, "gap must be a positive duration")
			return
		}
		cfg.GapThreshold = gap
	}
	records, ok := h.records(w, r, 0)
	if !ok {
		return
	}
	sessions, _ := clustering.DetectSessions(records, cfg)
	if sessions == nil {
		sessions = []clustering.Session{}
	}
	h.writeJSON(w, http.StatusOK, sessions)
}

func (h *Handlers) records(w http.ResponseWriter, r *http.Request, limit int) ([]store.Record, bool) {
	if h.history == nil {
		return []store.Record{}, true
	}
	records, err := h.history.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("reading mood history", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "reading mood history failed")
		return nil, false
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, true
}

// Playlist handles GET /api/playlists/{mood}. Unknown moods get the Calm playlist.
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "mood")
	h.writeJSON(w, http.StatusOK, h.playlists.PlaylistFor(r.Context(), label))
}

// PlaylistNames handles GET /api/playlists/{mood}/names.
func (h *Handlers) PlaylistNames(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "mood")
	h.writeJSON(w, http.StatusOK, h.playlists.Names(label))
}

// Moods handles GET /api/moods.
func (h *Handlers) Moods(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, mood.Labels())
}

func intParam(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func validServiceURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
