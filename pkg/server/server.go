package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/meisai-dev/meisai/pkg/config"
	"github.com/meisai-dev/meisai/pkg/importer"
)

// Server exposes the importer over HTTP so external schedulers can trigger
// loads without linking the importer in.
type Server struct {
	config   *config.Config
	logger   *log.Logger
	mux      *http.ServeMux
	importer *importer.Importer
}

// New creates a new HTTP server around an importer.
func New(cfg *config.Config, imp *importer.Importer, logger *log.Logger) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		importer: imp,
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/healthz", s.withLogging(s.handleHealth))
	s.mux.HandleFunc("/api/import", s.withLogging(s.handleImport))
	s.mux.HandleFunc("/api/run", s.withLogging(s.handleRun))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

type importRequest struct {
	Path    string `json:"path"`
	Service string `json:"service"`
}

// handleImport imports a single server-local statement file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Path == "" {
		s.respondError(w, r, http.StatusBadRequest, "path required", nil)
		return
	}
	service := req.Service
	if service == "" {
		service = s.config.Service
	}
	if _, err := os.Stat(req.Path); err != nil {
		s.respondError(w, r, http.StatusNotFound, "file not found", err)
		return
	}

	result := s.importer.ImportFile(r.Context(), req.Path, service)
	if result.Status == importer.StatusFailed {
		s.respondError(w, r, http.StatusInternalServerError, "import failed", result.Err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   string(result.Status),
		"file":     result.File,
		"inserted": result.Inserted,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleRun imports every export in the configured data directory.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	summary, err := s.importer.ImportDir(r.Context(), s.config.Dir, s.config.Service)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "run failed", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"inserted": summary.Inserted,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	s.logger.Warn(msg, "path", r.URL.Path, "err", err)
	if werr := s.writeJSON(w, status, map[string]any{"status": "error", "error": msg}); werr != nil {
		s.logger.Warn("failed to write json response", "err", werr)
	}
}

func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path)
		next(w, r)
	}
}
