package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"routesolve/internal/buildinfo"
	"routesolve/internal/metrics"
	"routesolve/internal/model"
	"routesolve/internal/solver"
	"routesolve/internal/store"
)

// SolveHandler handles POST /v1/solve.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.getPrincipal(r); err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = s.Cfg.Solver.DefaultMode
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.Cfg.Solver.Seed
	}
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = s.Cfg.Solver.DefaultAlgorithm
	}

	result, err := s.Engine.Solve(r.Context(), req.Locations, req.Vehicles, solver.Options{
		Mode:      mode,
		Algorithm: algorithm,
		Seed:      seed,
	})
	switch {
	case errors.Is(err, solver.ErrBadInput), errors.Is(err, solver.ErrUnknownAlgorithm):
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", err.Error(), r.URL.Path)
		return
	case errors.Is(err, solver.ErrCancelled):
		writeProblem(w, 499, "Client Closed Request", "solve cancelled", r.URL.Path)
		return
	case err != nil:
		metrics.SolveRuns.WithLabelValues(algorithm, "error").Inc()
		writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
		return
	}

	for _, ar := range result.AlgorithmResults {
		status := "ok"
		if ar.Error != "" {
			status = "error"
		}
		metrics.SolveRuns.WithLabelValues(ar.Algorithm, status).Inc()
		metrics.SolveDuration.WithLabelValues(ar.Algorithm).Observe(float64(ar.ExecutionTimeMs))
	}

	saved, err := s.Store.SaveSolution(r.Context(), *result)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Persist failed", err.Error(), r.URL.Path)
		return
	}

	s.Broker.Publish(saved.ID, SolveEvent{Type: "solve.completed", Data: map[string]any{
		"solutionId":        saved.ID,
		"selectedAlgorithm": saved.SelectedAlgorithm,
		"totalDistance":     saved.TotalDistance,
	}})
	s.Pub.Emit(r.Context(), "solve.completed", saved)

	writeJSON(w, http.StatusOK, saved)
}

// SolutionsHandler handles GET /v1/solutions (list).
func (s *Server) SolutionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.getPrincipal(r); err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	items, next, err := s.Store.ListSolutions(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// SolutionByIDHandler handles GET /v1/solutions/{id}.
func (s *Server) SolutionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.getPrincipal(r); err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/solutions/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	res, err := s.Store.GetSolution(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such solution", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SubscriptionsHandler handles POST /v1/subscriptions and DELETE
// /v1/subscriptions/{id}.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.getPrincipal(r)
	if err != nil {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "valid API key required", r.URL.Path)
		return
	}
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSubscription(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create failed", err.Error(), r.URL.Path)
			return
		}
		sub.Secret = "" // never echo secrets
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
		if id == "" || id == r.URL.Path {
			writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
			return
		}
		if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "Not Found", "no such subscription", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Delete failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// AlgorithmsHandler handles GET /v1/algorithms.
func (s *Server) AlgorithmsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"algorithms": solver.Registry})
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": info})
}

// ReadyHandler handles GET /readyz.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
