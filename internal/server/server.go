// Package server exposes the grading engine over HTTP and WebSocket.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/foliograde/internal/cache"
	"github.com/raysh454/foliograde/internal/engine"
	"github.com/raysh454/foliograde/internal/fetcher"
	"github.com/raysh454/foliograde/internal/logging"
)

// maxBatchSize caps one batch request so a single caller cannot monopolize
// the worker pool for long.
const maxBatchSize = 50

// Server is the HTTP + WebSocket API surface.
type Server struct {
	cfg      Config
	engine   *engine.Engine
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer wires the engine into the router.
func NewServer(cfg Config, eng *engine.Engine) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return s.originAllowed(r.Header.Get("Origin"))
		},
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/grade", s.optionsHandler("POST"))
	r.Options("/batch-grade", s.optionsHandler("POST"))
	r.Options("/batch-grade/jobs", s.optionsHandler("POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/batch-upload-csv", s.optionsHandler("POST"))
	r.Options("/batch-export-csv", s.optionsHandler("POST"))
	r.Options("/cache", s.optionsHandler("DELETE"))

	// Grading
	r.Post("/grade", s.handleGrade)
	r.Post("/batch-grade", s.handleBatchGrade)

	// Jobs over REST
	r.Post("/batch-grade/jobs", s.handleStartBatchJob)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for batch progress
	r.Get("/ws/batch-grade", s.handleBatchWS)

	// Rosters
	r.Post("/batch-upload-csv", s.handleUploadCSV)
	r.Post("/batch-export-csv", s.handleExportCSV)

	// Cache and sharing
	r.Delete("/cache", s.handleClearCache)
	r.Get("/share/{token}", s.handleShare)

	// Introspection
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(s.cfg.AllowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// clientScope extracts the rate-limit scope from the request: the first
// X-Forwarded-For hop when present, otherwise the peer address.
func clientScope(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeGradeError maps pipeline errors onto status codes. Rate-limit
// rejections carry Retry-After in whole seconds, rounded up.
func (s *Server) writeGradeError(w http.ResponseWriter, err error) {
	var rle *engine.RateLimitedError
	switch {
	case errors.As(err, &rle):
		secs := int(rle.Decision.RetryAfter.Seconds())
		if rle.Decision.RetryAfter > time.Duration(secs)*time.Second {
			secs++
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, fetcher.ErrInvalidTarget):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- HTTP handlers ---

// handleGrade godoc
// @Summary Grade one portfolio
// @Accept json
// @Produce json
// @Param request body GradeRequest true "Portfolio to grade"
// @Success 200 {object} engine.AnalysisResult
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /grade [post]
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var body GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.engine.Grade(r.Context(), body.PortfolioURL, engine.GradeOptions{
		Scope:        clientScope(r),
		ForceRefresh: body.ForceRefresh,
	})
	if err != nil {
		s.logger.Warn("grading portfolio", logging.Field{Key: "url", Value: body.PortfolioURL}, logging.Field{Key: "error", Value: err.Error()})
		s.writeGradeError(w, err)
		return
	}
	s.logger.Info("graded portfolio", logging.Field{Key: "url", Value: res.CanonicalURL}, logging.Field{Key: "score", Value: res.Score})
	writeJSON(w, http.StatusOK, res)
}

// handleBatchGrade godoc
// @Summary Grade a batch of portfolios synchronously
// @Accept json
// @Produce json
// @Param request body BatchGradeRequest true "Portfolios to grade"
// @Success 200 {object} engine.BatchSummary
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /batch-grade [post]
func (s *Server) handleBatchGrade(w http.ResponseWriter, r *http.Request) {
	targets, ok := s.decodeBatch(w, r)
	if !ok {
		return
	}

	summary := s.engine.RunBatch(r.Context(), targets, clientScope(r))
	s.logger.Info("graded batch", logging.Field{Key: "total", Value: summary.Total}, logging.Field{Key: "succeeded", Value: summary.Succeeded})
	writeJSON(w, http.StatusOK, summary)
}

// decodeBatch parses and validates a batch request and charges it against
// the rate limiter as one request.
func (s *Server) decodeBatch(w http.ResponseWriter, r *http.Request) ([]engine.AnalysisTarget, bool) {
	var body BatchGradeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	if len(body.Portfolios) == 0 {
		writeError(w, http.StatusBadRequest, "no portfolios in batch")
		return nil, false
	}
	if len(body.Portfolios) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch too large, max "+strconv.Itoa(maxBatchSize))
		return nil, false
	}
	if err := s.engine.Admit(clientScope(r)); err != nil {
		s.writeGradeError(w, err)
		return nil, false
	}
	return body.Portfolios, true
}

// Jobs (REST)

// handleStartBatchJob godoc
// @Summary Start a batch grading job
// @Accept json
// @Produce json
// @Param request body BatchGradeRequest true "Portfolios to grade"
// @Success 202 {object} engine.Job
// @Failure 400 {object} ErrorResponse
// @Router /batch-grade/jobs [post]
func (s *Server) handleStartBatchJob(w http.ResponseWriter, r *http.Request) {
	targets, ok := s.decodeBatch(w, r)
	if !ok {
		return
	}

	job := s.engine.StartBatchJob(targets, clientScope(r))
	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "total", Value: job.Total})
	snap, _ := s.engine.GetJob(job.ID)
	writeJSON(w, http.StatusAccepted, snap)
}

// handleGetJob godoc
// @Summary Get a batch job
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} engine.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.engine.GetJob(jobID)
	if !ok {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a batch job
// @Param jobID path string true "Job ID"
// @Success 204
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	_ = s.engine.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// WebSocket

// handleBatchWS upgrades, reads one BatchGradeRequest frame, then streams
// the job's events until the job ends or the client goes away.
func (s *Server) handleBatchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	var body BatchGradeRequest
	if err := conn.ReadJSON(&body); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: "invalid batch request"})
		return
	}
	if len(body.Portfolios) == 0 || len(body.Portfolios) > maxBatchSize {
		_ = conn.WriteJSON(ErrorResponse{Error: "batch must contain 1-" + strconv.Itoa(maxBatchSize) + " portfolios"})
		return
	}
	if err := s.engine.Admit(clientScope(r)); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	job := s.engine.StartBatchJob(body.Portfolios, clientScope(r))
	s.logger.Info("started batch job", logging.Field{Key: "job_id", Value: job.ID})
	if snap, ok := s.engine.GetJob(job.ID); ok {
		_ = conn.WriteJSON(snap)
	}

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			_ = s.engine.CancelJob(job.ID)
			return
		}
	}
}

// Rosters

// handleUploadCSV godoc
// @Summary Parse a CSV roster into grading targets
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV roster"
// @Success 200 {object} CSVUploadResponse
// @Failure 400 {object} ErrorResponse
// @Router /batch-upload-csv [post]
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	targets, err := ParseTargetsCSV(file)
	if err != nil {
		s.logger.Warn("parsing roster csv", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("parsed roster csv", logging.Field{Key: "count", Value: len(targets)})
	writeJSON(w, http.StatusOK, CSVUploadResponse{Portfolios: targets, Count: len(targets)})
}

// handleExportCSV godoc
// @Summary Export a batch summary as CSV
// @Accept json
// @Produce text/csv
// @Success 200 {string} string
// @Failure 400 {object} ErrorResponse
// @Router /batch-export-csv [post]
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var summary engine.BatchSummary
	if err := json.NewDecoder(r.Body).Decode(&summary); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="batch-results.csv"`)
	if err := WriteSummaryCSV(w, &summary); err != nil {
		s.logger.Warn("writing summary csv", logging.Field{Key: "error", Value: err.Error()})
	}
}

// Cache and sharing

// handleClearCache godoc
// @Summary Clear cached results
// @Produce json
// @Param url query string false "Clear only this URL"
// @Success 200 {object} ClearCacheResponse
// @Router /cache [delete]
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if url := r.URL.Query().Get("url"); url != "" {
		deleted, err := s.engine.DeleteCached(r.Context(), url)
		if err != nil {
			s.writeGradeError(w, err)
			return
		}
		var n int64
		if deleted {
			n = 1
		}
		s.logger.Info("cleared cached result", logging.Field{Key: "url", Value: url}, logging.Field{Key: "deleted", Value: deleted})
		writeJSON(w, http.StatusOK, ClearCacheResponse{DeletedEntries: n})
		return
	}

	n, err := s.engine.ClearCache(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("cleared cache", logging.Field{Key: "deleted", Value: n})
	writeJSON(w, http.StatusOK, ClearCacheResponse{DeletedEntries: n})
}

// handleShare godoc
// @Summary Fetch a shared grading result
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} engine.AnalysisResult
// @Failure 404 {object} ErrorResponse
// @Router /share/{token} [get]
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	res, err := s.engine.SharedResult(r.Context(), token)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			writeError(w, http.StatusNotFound, "share link not found or expired")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Introspection

// handleHealth godoc
// @Summary Liveness and provider availability
// @Produce json
// @Success 200 {object} engine.HealthStatus
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Health())
}

// handleStatus godoc
// @Summary Health plus cache statistics
// @Produce json
// @Success 200 {object} engine.HealthStatus
// @Router /status [get]
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status(r.Context()))
}
