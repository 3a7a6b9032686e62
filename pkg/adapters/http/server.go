// Package http exposes the trigger/query API surface. Handlers are thin:
// they translate requests into store and scheduler operations and never make
// execution decisions themselves.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camino-run/camino/pkg/domain"
	"github.com/camino-run/camino/pkg/ports"
)

// Server handles the journey API.
type Server struct {
	store     ports.Store
	scheduler ports.Scheduler
	logger    *slog.Logger
}

// NewHandler builds the chi router for the API. gatherer may be nil to
// disable the /metrics endpoint.
func NewHandler(store ports.Store, scheduler ports.Scheduler, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: store, scheduler: scheduler, logger: logger}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Get("/health", s.health)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/journeys", s.createJourney)
	r.Post("/journeys/{journeyID}/trigger", s.triggerRun)
	r.Get("/journeys/runs/{runID}", s.getRun)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type createJourneyRequest struct {
	Name        string           `json:"name"`
	StartNodeID string           `json:"start_node_id"`
	Nodes       []map[string]any `json:"nodes"`
}

func (s *Server) createJourney(w http.ResponseWriter, r *http.Request) {
	var body createJourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	nodes := make([]domain.JourneyNode, 0, len(body.Nodes))
	for _, raw := range body.Nodes {
		node, err := domain.ParseNode(raw)
		if err != nil {
			s.logger.Error("journey rejected", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to create journey")
			return
		}
		nodes = append(nodes, node)
	}

	journeyID, err := s.store.CreateJourney(r.Context(), body.Name, body.StartNodeID, nodes)
	if err != nil {
		s.logger.Error("journey creation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create journey")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"journeyId": journeyID})
}

func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	journeyID := chi.URLParam(r, "journeyID")

	var runContext map[string]any
	if err := json.NewDecoder(r.Body).Decode(&runContext); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	journey, startNode, err := s.store.GetJourney(r.Context(), journeyID)
	if err != nil {
		if errors.Is(err, domain.ErrJourneyNotFound) {
			writeError(w, http.StatusNotFound, "journey not found")
			return
		}
		s.logger.Error("trigger failed", "journey_id", journeyID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to trigger journey")
		return
	}

	runID, err := s.store.CreateRun(r.Context(), journey.ID, journey.StartNodeID, runContext)
	if err != nil {
		s.logger.Error("run creation failed", "journey_id", journeyID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to trigger journey")
		return
	}

	task := domain.StepTask{RunID: runID, NodeID: startNode.ID, Context: runContext}
	if err := s.scheduler.Enqueue(r.Context(), task, 0); err != nil {
		s.logger.Error("first step enqueue failed", "run_id", runID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to trigger journey")
		return
	}

	w.Header().Set("Location", "/journeys/runs/"+runID)
	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID})
}

type runResponse struct {
	Status        domain.RunStatus `json:"status"`
	CurrentNodeID *string          `json:"currentNodeId"`
	Context       map[string]any   `json:"context"`
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, _, err := s.store.GetRunWithLogs(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("run lookup failed", "run_id", runID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}

	resp := runResponse{Status: run.Status, Context: run.Context}
	if run.CurrentNodeID != "" {
		resp.CurrentNodeID = &run.CurrentNodeID
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
