// Package webui provides the HTTP server for the code generation service:
// the generation endpoint, the browser form, and the operational API.
package webui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	llmmetrics "codegen/pkg/agent/middleware/metrics"
	"codegen/pkg/config"
	"codegen/pkg/generator"
	"codegen/pkg/logx"
	"codegen/pkg/metrics"
	"codegen/pkg/persistence"
	"codegen/pkg/version"
)

//go:embed web/templates/*.html
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

// Generator runs the code generation pipeline.
type Generator interface {
	Generate(ctx context.Context, description, language string) (generator.Result, error)
}

// Server represents the web UI HTTP server.
type Server struct {
	pipeline  Generator
	store     *persistence.Store
	cfg       *config.Config
	logger    *logx.Logger
	templates *template.Template
	queries   *metrics.QueryService
	internal  *llmmetrics.InternalRecorder
}

// NewServer creates a new web UI server. The store may be nil, in which
// case history endpoints report unavailable and results are not persisted.
func NewServer(pipeline Generator, store *persistence.Store, cfg *config.Config) *Server {
	templates, err := template.ParseFS(templateFS, "web/templates/*.html")
	if err != nil {
		// This should never happen since templates are embedded at compile time
		panic(fmt.Sprintf("Failed to parse embedded templates: %v", err))
	}

	s := &Server{
		pipeline:  pipeline,
		store:     store,
		cfg:       cfg,
		logger:    logx.NewLogger("webui"),
		templates: templates,
		internal:  llmmetrics.NewInternalRecorder(),
	}

	if cfg.PrometheusURL != "" {
		queries, err := metrics.NewQueryService(cfg.PrometheusURL)
		if err != nil {
			s.logger.Warn("Metrics queries disabled, bad Prometheus URL %q: %v", cfg.PrometheusURL, err)
		} else {
			s.queries = queries
		}
	}

	return s
}

// RegisterRoutes sets up HTTP routes for the API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handleIndex)

	staticSubFS, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(fmt.Sprintf("Failed to access embedded static files: %v", err))
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSubFS))))

	mux.HandleFunc("/generate", s.handleGenerate)
	mux.HandleFunc("/api/healthz", s.handleHealth)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistoryDetail)
	mux.HandleFunc("/api/metrics/", s.handleGenerationMetrics)
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns the full handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return withCORS(mux)
}

// withCORS allows browser pages served from other origins to call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleIndex serves the generation form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := map[string]string{
		"Version": version.Version,
		"Model":   s.cfg.Model,
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("Failed to render index: %v", err)
	}
}

// generateRequest is the POST /generate body.
type generateRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// handleGenerate implements POST /generate. The response body carries
// exactly the four stage texts.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.pipeline.Generate(r.Context(), req.Description, req.Language)
	if err != nil {
		s.logger.Error("Generation failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "generation failed"})
		return
	}

	s.saveHistory(req, result, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("Failed to encode generate response: %v", err)
	}
}

// saveHistory persists a completed generation. Failures are logged, not
// surfaced, so history never blocks a response.
func (s *Server) saveHistory(req generateRequest, result generator.Result, elapsed time.Duration) {
	if s.store == nil {
		return
	}

	gen := &persistence.Generation{
		Description: req.Description,
		Language:    req.Language,
		Planning:    result.Planning,
		Design:      result.Design,
		Code:        result.Code,
		Testing:     result.Testing,
		Filename:    result.Filename,
		Provider:    s.cfg.Provider,
		Model:       s.cfg.Model,
		DurationMS:  elapsed.Milliseconds(),
	}
	if err := s.store.SaveGeneration(gen); err != nil {
		s.logger.Error("Failed to save generation history: %v", err)
	}
}

// handleHealth implements GET /api/healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]string{
		"status":  "ok",
		"version": version.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleLogs implements GET /api/logs.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	component := query.Get("component")
	sinceStr := query.Get("since")

	var since time.Time
	if sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.logger.Warn("Invalid since parameter: %s", sinceStr)
			http.Error(w, "Invalid since parameter (use RFC3339)", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	logs := logx.GetRecentLogEntries(component, since)

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Timestamp < logs[j].Timestamp
	})
	if len(logs) > 1000 {
		logs = logs[len(logs)-1000:]
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"logs": logs}); err != nil {
		s.logger.Error("Failed to encode logs response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// handleHistory implements GET /api/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "History not available", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	list, err := s.store.ListGenerations(limit)
	if err != nil {
		s.logger.Error("Failed to list generations: %v", err)
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"generations": list}); err != nil {
		s.logger.Error("Failed to encode history response: %v", err)
	}
}

// handleGenerationMetrics implements GET /api/metrics/{generationID}.
// With a Prometheus URL configured it queries Prometheus; otherwise it
// serves the in-memory aggregates. Add ?by=stage for the per-stage
// breakdown, which needs Prometheus.
func (s *Server) handleGenerationMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/metrics/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	if s.queries == nil {
		if r.URL.Query().Get("by") == "stage" {
			http.Error(w, "Per-stage metrics require a Prometheus URL", http.StatusServiceUnavailable)
			return
		}
		gen := s.internal.GetGenerationMetrics(id)
		if gen == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(gen); err != nil {
			s.logger.Error("Failed to encode metrics response: %v", err)
		}
		return
	}

	var payload any
	var err error
	if r.URL.Query().Get("by") == "stage" {
		payload, err = s.queries.GetGenerationMetricsByStage(r.Context(), id)
	} else {
		payload, err = s.queries.GetGenerationMetrics(r.Context(), id)
	}
	if err != nil {
		s.logger.Error("Failed to query metrics for %s: %v", id, err)
		http.Error(w, "Failed to query metrics", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode metrics response: %v", err)
	}
}

// handleHistoryDetail implements GET and DELETE /api/history/{id}.
func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "History not available", http.StatusServiceUnavailable)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodDelete {
		err := s.store.DeleteGeneration(id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.logger.Error("Failed to delete generation %s: %v", id, err)
			http.Error(w, "Failed to delete generation", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	gen, err := s.store.GetGeneration(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("Failed to get generation %s: %v", id, err)
		http.Error(w, "Failed to get generation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(gen); err != nil {
		s.logger.Error("Failed to encode generation response: %v", err)
	}
}
