// Package httpapi exposes the pipeline over a small JSON HTTP surface:
// source management, manual collection triggers, the asynchronous summary
// job queue, and saved summaries.
package httpapi

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

	"NewsDigest/internal/domain"
	"NewsDigest/internal/usecase"
)

// Server routes API requests to the use case layer.
type Server struct {
	collector *usecase.Collector
	summaries *usecase.SummaryService
	jobs      *usecase.JobService
	sources   *usecase.SourceService
	logger    *slog.Logger
	http      *http.Server
}

// NewServer wires the router. Start and Shutdown control the listener.
func NewServer(addr string, collector *usecase.Collector, summaries *usecase.SummaryService, jobs *usecase.JobService, sources *usecase.SourceService, logger *slog.Logger) *Server {
	s := &Server{
		collector: collector,
		summaries: summaries,
		jobs:      jobs,
		sources:   sources,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/sources", s.handleListSources)
		r.Post("/sources", s.handleCreateSource)
		r.Delete("/sources/{sourceID}", s.handleDeleteSource)

		r.Post("/collect", s.handleCollectAll)
		r.Post("/sources/{sourceID}/collect", s.handleCollectOne)

		r.Post("/summaries/jobs", s.handleCreateJob)
		r.Get("/jobs/{jobID}", s.handleJobStatus)

		r.Post("/summaries", s.handleGenerateSummary)
		r.Get("/summaries", s.handleListSummaries)
		r.Get("/summaries/{summaryID}", s.handleGetSummary)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.sources.ListSources(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string              `json:"name"`
		Type   domain.SourceType   `json:"type"`
		Config domain.SourceConfig `json:"config"`
		Active *bool               `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	src, err := s.sources.CreateSource(r.Context(), req.Name, req.Type, req.Config, active)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.DeleteSource(r.Context(), chi.URLParam(r, "sourceID")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCollectAll(w http.ResponseWriter, r *http.Request) {
	results := s.collector.CollectFromAllSources(r.Context())
	s.writeJSON(w, http.StatusOK, domain.Aggregate(results))
}

func (s *Server) handleCollectOne(w http.ResponseWriter, r *http.Request) {
	result := s.collector.CollectFromSource(r.Context(), chi.URLParam(r, "sourceID"))
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string   `json:"startDate"`
		EndDate   string   `json:"endDate"`
		Topics    []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("startDate: %w", err))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("endDate: %w", err))
		return
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, errors.New("endDate precedes startDate"))
		return
	}

	id, err := s.jobs.CreateSummaryJob(r.Context(), start, end, req.Topics)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.jobs.GetJobStatus(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if status == nil {
		s.writeError(w, http.StatusNotFound, errors.New("job not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate    string   `json:"startDate"`
		EndDate      string   `json:"endDate"`
		Topics       []string `json:"topics"`
		ForceRefresh bool     `json:"forceRefresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("startDate: %w", err))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("endDate: %w", err))
		return
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, errors.New("endDate precedes startDate"))
		return
	}

	summary, err := s.summaries.GenerateAndSave(r.Context(), usecase.SummaryRequest{
		StartDate:    start,
		EndDate:      end,
		Topics:       req.Topics,
		ForceRefresh: req.ForceRefresh,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("start: %w", err))
			return
		}
		start = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("end: %w", err))
			return
		}
		end = &t
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	summaries, err := s.summaries.ListSummaries(r.Context(), start, end, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summaries == nil {
		summaries = []domain.Summary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summaries.GetSummary(r.Context(), chi.URLParam(r, "summaryID"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summary == nil {
		s.writeError(w, http.StatusNotFound, errors.New("summary not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
