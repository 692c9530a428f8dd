// Package server exposes a read-only status API over the monitored
// sites and their recorded healthchecks.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"webmon/internal/models"
)

// StatusStore defines the storage queries the server needs.
type StatusStore interface {
	Sites(ctx context.Context) ([]models.Site, error)
	Healthchecks(ctx context.Context) ([]models.Healthcheck, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	store  StatusStore
	router chi.Router
	logger *slog.Logger
}

// New creates a Server and registers all routes. Pass nil logger to use
// the default.
func New(store StatusStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  store,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/sites", s.handleListSites)
	r.Get("/api/sites/{id}/checks", s.handleSiteChecks)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// --- Response helpers ---

type envelope struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type siteDetail struct {
	ID              int64  `json:"id"`
	URL             string `json:"url"`
	IntervalSeconds int    `json:"interval_seconds"`
	Regex           string `json:"regex,omitempty"`
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.store.Sites(r.Context())
	if err != nil {
		s.logger.Error("listing sites", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	details := make([]siteDetail, 0, len(sites))
	for _, site := range sites {
		details = append(details, siteDetail{
			ID:              site.ID,
			URL:             site.URL,
			IntervalSeconds: site.IntervalSeconds,
			Regex:           site.Regex,
		})
	}
	writeJSON(w, http.StatusOK, details)
}

type checkDetail struct {
	ID               int64   `json:"id"`
	RequestTimestamp float64 `json:"request_timestamp"`
	ResponseTime     float64 `json:"response_time"`
	HTTPStatusCode   int     `json:"http_status_code"`
	Match            string  `json:"match"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

func (s *Server) handleSiteChecks(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid site id")
		return
	}

	sites, err := s.store.Sites(r.Context())
	if err != nil {
		s.logger.Error("listing sites", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	known := false
	for _, site := range sites {
		if site.ID == id {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}

	checks, err := s.store.Healthchecks(r.Context())
	if err != nil {
		s.logger.Error("listing healthchecks", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	details := make([]checkDetail, 0)
	for _, c := range checks {
		if c.WebsiteID != id {
			continue
		}
		details = append(details, checkDetail{
			ID:               c.ID,
			RequestTimestamp: c.RequestTimestamp,
			ResponseTime:     c.ResponseTime,
			HTTPStatusCode:   c.HTTPStatusCode,
			Match:            c.MatchStatus.String(),
			ErrorMessage:     c.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, details)
}
