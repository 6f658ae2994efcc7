package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	feedService "github.com/reshetovitsme/modwatch/internal/modules/feed/service"
	forumDomain "github.com/reshetovitsme/modwatch/internal/modules/forum/domain"
	moderationDomain "github.com/reshetovitsme/modwatch/internal/modules/moderation/domain"
	pollService "github.com/reshetovitsme/modwatch/internal/modules/poll/service"
	"github.com/reshetovitsme/modwatch/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
	"github.com/samber/lo"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	defaultStatsHours = 24
	recentOnIndex     = 20
)

// StatusSource is the read side of the poll orchestrator.
type StatusSource interface {
	View() *pollService.View
	QueryEvents(ctx context.Context, filter moderationDomain.Filter) ([]moderationDomain.Event, error)
}

// StatsSource aggregates recorded events.
type StatsSource interface {
	Stats(ctx context.Context, since time.Time) (*moderationDomain.Stats, error)
}

// Server serves the read-only status view, the event feed and metrics
type Server struct {
	cfg         *config.Config
	status      StatusSource
	stats       StatsSource
	feedService *feedService.Service
	gatherer    prometheus.Gatherer
	logger      *slog.Logger
	server      *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, status StatusSource, stats StatsSource, feedService *feedService.Service, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		cfg:         cfg,
		status:      status,
		stats:       stats,
		feedService: feedService,
		gatherer:    gatherer,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the routed handler wrapped in logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/forums", s.handleForums)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /rss", s.handleRSSFeed)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start starts the HTTP server and blocks until it is shut down
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Status server starting", "addr", addr)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type forumView struct {
	forumDomain.Forum
	Postings int `json:"postings"`
}

func (s *Server) forumViews(view *pollService.View) []forumView {
	return lo.Map(view.Forums, func(f forumDomain.Forum, _ int) forumView {
		return forumView{Forum: f, Postings: len(view.Snapshots[f.ID])}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := s.status.View()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"cycle":      view.Cycle,
		"updated_at": view.UpdatedAt,
		"forums":     len(view.Forums),
	})
}

func (s *Server) handleForums(w http.ResponseWriter, r *http.Request) {
	view := s.status.View()
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle":      view.Cycle,
		"updated_at": view.UpdatedAt,
		"forums":     s.forumViews(view),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := moderationDomain.Filter{
		ForumID:    q.Get("forum_id"),
		ArticleURL: q.Get("article_url"),
		Limit:      defaultEventLimit,
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = min(limit, maxEventLimit)
	}

	if raw := q.Get("since"); raw != "" {
		since, err := parseSince(raw, time.Now())
		if err != nil {
			http.Error(w, "since must be RFC3339 or a duration like 6h", http.StatusBadRequest)
			return
		}
		filter.Since = since
	}

	events, err := s.status.QueryEvents(r.Context(), filter)
	if err != nil {
		s.logger.Error("Error querying events", "error", err)
		http.Error(w, "Failed to query events", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	hours := defaultStatsHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h <= 0 {
			http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
			return
		}
		hours = h
	}

	stats, err := s.stats.Stats(r.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		s.logger.Error("Error computing stats", "error", err)
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRSSFeed(w http.ResponseWriter, r *http.Request) {
	// Get base URL from request
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)
	articleURL := r.URL.Query().Get("article_url")

	feed, err := s.feedService.GenerateFeed(r.Context(), baseURL, articleURL)
	if err != nil {
		s.logger.Error("Error generating feed", "article_url", articleURL, "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.logger.Error("Error converting feed to RSS", "error", err)
		http.Error(w, "Failed to generate RSS", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rss))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.status.View()

	forums := s.forumViews(view)
	sort.SliceStable(forums, func(i, j int) bool {
		return forums[i].Postings > forums[j].Postings
	})

	events, err := s.status.QueryEvents(r.Context(), moderationDomain.Filter{Limit: recentOnIndex})
	if err != nil {
		s.logger.Warn("Index without recent events", "error", err)
	}

	data := indexData{
		Cycle:     view.Cycle,
		UpdatedAt: view.UpdatedAt,
		Forums:    forums,
		Events:    events,
		Postings: lo.SumBy(forums, func(f forumView) int {
			return f.Postings
		}),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("Error rendering index", "error", err)
	}
}

// parseSince accepts an RFC3339 timestamp or a duration back from now.
func parseSince(raw string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid since %q", raw)
	}
	return now.Add(-d), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
