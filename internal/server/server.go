// Package server exposes the detection service over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/costwatch/costwatch/internal/metrics"
	"github.com/costwatch/costwatch/pkg/detector"
	"github.com/costwatch/costwatch/pkg/model"
	"github.com/costwatch/costwatch/pkg/storage"
)

// Server provides the detection, ingestion, and query API endpoints.
type Server struct {
	runner   *detector.Runner
	store    storage.Storage
	recorder *metrics.Recorder
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates an API server. recorder may be nil to disable metrics.
func NewServer(runner *detector.Runner, store storage.Storage, recorder *metrics.Recorder, logger *slog.Logger) *Server {
	s := &Server{
		runner:   runner,
		store:    store,
		recorder: recorder,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/detect", s.handleDetect)
	s.mux.HandleFunc("POST /api/v1/observations", s.handleIngest)
	s.mux.HandleFunc("GET /api/v1/anomalies", s.handleAnomalies)
	if s.recorder != nil {
		s.mux.Handle("GET /metrics", s.recorder.Handler())
	}
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type detectRequest struct {
	SubscriptionID string `json:"subscription_id"`
	DaysBack       int    `json:"days_back"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	summary, err := s.runner.Run(r.Context(), req.SubscriptionID, req.DaysBack)
	if err != nil {
		if errors.Is(err, detector.ErrMissingSubscription) {
			writeError(w, http.StatusBadRequest, "subscription_id parameter is required")
			return
		}
		s.logger.Error("detection run failed", "subscription", req.SubscriptionID, "error", err)
		writeError(w, http.StatusInternalServerError, "detection run failed")
		return
	}

	if s.recorder != nil {
		s.recorder.ObserveRun(summary, time.Since(start).Seconds())
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var observations []model.Observation
	if err := json.NewDecoder(r.Body).Decode(&observations); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(observations) == 0 {
		writeError(w, http.StatusBadRequest, "no observations supplied")
		return
	}
	for _, obs := range observations {
		if obs.ResourceID == "" || obs.SubscriptionID == "" {
			writeError(w, http.StatusBadRequest, "resource_id and subscription_id are required on every observation")
			return
		}
		if obs.Cost < 0 {
			writeError(w, http.StatusBadRequest, "cost must be non-negative")
			return
		}
	}

	if err := s.store.SaveObservations(r.Context(), observations); err != nil {
		s.logger.Error("save observations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"ingested": len(observations)})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	filter := model.AnomalyFilter{
		SubscriptionID: r.URL.Query().Get("subscription_id"),
		ResourceID:     r.URL.Query().Get("resource_id"),
		Severity:       model.Severity(r.URL.Query().Get("severity")),
	}

	records, err := s.store.QueryAnomalies(r.Context(), filter)
	if err != nil {
		s.logger.Error("query anomalies", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []model.AnomalyRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
