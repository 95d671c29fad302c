// Package http exposes the analysis pipeline over a REST API: submit an
// analysis, poll its status, and inspect the workflow graph.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbored/weft/internal/presentation/graph"
	"github.com/arbored/weft/pkg/analysis"
	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner executes a compiled graph. Satisfied by *weft.Engine; tests plug
// in a stub to avoid real model calls.
type Runner interface {
	Run(ctx context.Context, g *domain.Graph, initial map[string]any) (domain.Snapshot, error)
}

// Server serves the analysis API.
type Server struct {
	runner Runner
	graph  *domain.Graph
	store  ports.RunStore
	logger *slog.Logger
}

// NewHandler builds the API router.
func NewHandler(runner Runner, g *domain.Graph, store ports.RunStore, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner: runner,
		graph:  g,
		store:  store,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyses", s.createAnalysis)
		r.Get("/analyses", s.listAnalyses)
		r.Get("/analyses/{id}", s.getAnalysis)
		r.Delete("/analyses/{id}", s.deleteAnalysis)
		r.Get("/graph", s.getGraph)
	})

	return r
}

type createRequest struct {
	Symbol string `json:"symbol"`
}

type analysisResponse struct {
	*domain.RunRecord
	Status string `json:"status"`
}

func recordStatus(rec *domain.RunRecord) string {
	switch {
	case rec.Error != "":
		return "failed"
	case rec.Final == nil:
		return "running"
	default:
		return "completed"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createAnalysis starts a run in the background and returns its ID. The
// caller polls GET /api/analyses/{id} for the result.
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Symbol == "" {
		http.Error(w, "body must be {\"symbol\": \"...\"}", http.StatusBadRequest)
		return
	}

	record := &domain.RunRecord{
		ID:        uuid.NewString(),
		Graph:     s.graph.Name(),
		StartedAt: time.Now().UTC(),
	}
	if err := s.store.Save(r.Context(), record); err != nil {
		http.Error(w, fmt.Sprintf("failed to register run: %v", err), http.StatusInternalServerError)
		return
	}

	// Detach from the request context: the run outlives the HTTP exchange.
	go s.execute(context.Background(), record.ID, record.StartedAt, body.Symbol)

	s.writeJSON(w, http.StatusAccepted, analysisResponse{RunRecord: record, Status: "running"})
}

func (s *Server) execute(ctx context.Context, id string, startedAt time.Time, symbol string) {
	record := &domain.RunRecord{
		ID:        id,
		Graph:     s.graph.Name(),
		StartedAt: startedAt,
	}

	final, err := s.runner.Run(ctx, s.graph, map[string]any{
		analysis.FieldSymbol: symbol,
	})
	record.Duration = time.Since(startedAt)

	if err != nil {
		record.Error = err.Error()
		var wfErr *domain.WorkflowError
		if errors.As(err, &wfErr) {
			record.FailedNode = wfErr.Node
			record.Final = wfErr.Partial
		}
		s.logger.Error("analysis failed", "run_id", id, "symbol", symbol, "err", err)
	} else {
		record.Final = final
		s.logger.Info("analysis completed", "run_id", id, "symbol", symbol, "duration", record.Duration)
	}

	if err := s.store.Save(ctx, record); err != nil {
		s.logger.Error("failed to persist run result", "run_id", id, "err", err)
	}
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == domain.ErrRunNotFound {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("failed to load run: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, analysisResponse{RunRecord: record, Status: recordStatus(record)})
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": ids})
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, fmt.Sprintf("failed to delete run: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getGraph returns the workflow structure, including a Mermaid rendering
// for UIs.
func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request) {
	type edge struct {
		From string `json:"from"`
		To   string `json:"to"`
	}

	var edges []edge
	for _, name := range s.graph.Nodes() {
		for _, to := range s.graph.Dependents(name) {
			edges = append(edges, edge{From: name, To: to})
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":    s.graph.Name(),
		"entry":   s.graph.Entry(),
		"nodes":   s.graph.Nodes(),
		"edges":   edges,
		"mermaid": graph.GenerateMermaid(s.graph, nil),
	})
}
