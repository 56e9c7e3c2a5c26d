package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// requestTimeout bounds store access for read and acknowledge handlers.
const requestTimeout = 10 * time.Second

// Trigger starts a generation run on demand.
type Trigger interface {
	RunOnce(ctx context.Context) (*alerting.Report, error)
}

// Server provides the alert inbox and generation API.
type Server struct {
	inbox   *alerting.Inbox
	trigger Trigger
	store   storage.Storage
	router  chi.Router
	logger  *slog.Logger
}

// NewServer creates an API server.
func NewServer(inbox *alerting.Inbox, trigger Trigger, store storage.Storage, logger *slog.Logger) *Server {
	s := &Server{
		inbox:   inbox,
		trigger: trigger,
		store:   store,
		router:  chi.NewRouter(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", s.handleListAlerts)
		r.Get("/alerts/summary", s.handleSummary)
		r.Post("/alerts/{id}/acknowledge", s.handleAcknowledge)
		r.Post("/generate", s.handleGenerate)
	})
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	views, err := s.inbox.List(ctx, filter)
	if err != nil {
		s.logger.Error("list alerts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := s.inbox.Summary(ctx, userID)
	if err != nil {
		s.logger.Error("summarize alerts", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	alert, err := s.inbox.Acknowledge(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		s.logger.Error("acknowledge alert", "alert_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

type generateResponse struct {
	Report *alerting.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	report, err := s.trigger.RunOnce(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, generateResponse{Report: report})
	case errors.Is(err, alerting.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, generateResponse{Report: report, Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, generateResponse{Report: report, Error: err.Error()})
	default:
		s.logger.Error("generate alerts", "error", err)
		writeJSON(w, http.StatusInternalServerError, generateResponse{Report: report, Error: err.Error()})
	}
}

func parseFilter(r *http.Request) (model.AlertFilter, error) {
	q := r.URL.Query()
	filter := model.AlertFilter{UserID: q.Get("user_id")}

	if v := q.Get("type"); v != "" {
		t := model.AlertType(v)
		if !t.Valid() {
			return filter, fmt.Errorf("unknown alert type %q", v)
		}
		filter.AlertType = t
	}
	if v := q.Get("unacknowledged"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid unacknowledged %q", v)
		}
		filter.Unacknowledged = b
	}
	if v := q.Get("due_by"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return filter, fmt.Errorf("invalid due_by: %w", err)
		}
		filter.DueBy = d
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = n
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
