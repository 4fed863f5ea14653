package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/expand"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/search"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// maxRequestBytes bounds request bodies; every API request body is a small
// JSON document.
const maxRequestBytes = 1 << 20

type apiServer struct {
	bind     string
	token    string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:     bind,
		token:    cfg.API.Token,
		logger:   logger,
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
	}

	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware(srv.token, h)
	}

	// Liveness stays unauthenticated so probes work without the token.
	mux.HandleFunc("GET /api/health", srv.handleHealth)

	mux.HandleFunc("GET /api/status", protect(srv.handleStatus))
	mux.HandleFunc("GET /api/search", protect(srv.handleSearch))

	mux.HandleFunc("GET /api/queue", protect(srv.handleQueueList))
	mux.HandleFunc("POST /api/queue", protect(srv.handleEnqueue))
	mux.HandleFunc("GET /api/queue/stats", protect(srv.handleQueueStats))
	mux.HandleFunc("POST /api/queue/retry", protect(srv.handleRetryAll))
	mux.HandleFunc("POST /api/queue/clear", protect(srv.handleClearQueue))
	mux.HandleFunc("GET /api/queue/{id}", protect(srv.handleQueueItem))
	mux.HandleFunc("POST /api/queue/{id}/retry", protect(srv.handleRetryRecord))

	mux.HandleFunc("GET /api/channels", protect(srv.handleChannelList))
	mux.HandleFunc("POST /api/channels", protect(srv.handleChannelAdd))
	mux.HandleFunc("DELETE /api/channels/{id}", protect(srv.handleChannelRemove))
	mux.HandleFunc("POST /api/channels/{id}/pause", protect(srv.handleChannelPause))
	mux.HandleFunc("POST /api/channels/{id}/resume", protect(srv.handleChannelResume))
	mux.HandleFunc("POST /api/channels/{id}/sync", protect(srv.handleChannelSync))

	srv.server = &http.Server{
		Handler:           srv.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with a correlation id, propagated via
// context into the handlers and echoed back to the caller.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := services.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.log().Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldCorrelationID, requestID))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())

	var findings []api.Finding
	for _, check := range status.Preflight {
		if check.Passed {
			continue
		}
		findings = append(findings, api.Finding{
			Name:   check.Name,
			Fatal:  check.Fatal(),
			Detail: check.Detail,
		})
	}

	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		DatabasePath:  status.DatabasePath,
		VectorDirPath: status.VectorDirPath,
		LockFilePath:  status.LockFilePath,
		LogFilePath:   status.LogFilePath,
		Workflow:      api.FromStatusSummary(status.Workflow),
		Preflight:     findings,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	database, vectors := s.daemon.Health(r.Context())
	status := "ok"
	if !database || !vectors {
		status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:   status,
		Database: database,
		Vectors:  vectors,
	})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))
	if mood := strings.TrimSpace(params.Get("mood")); mood != "" {
		phrase, err := expand.MoodPhrase(mood)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query = phrase
	}
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q or mood is required")
		return
	}

	var opts search.Options
	if raw := strings.TrimSpace(params.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		opts.Limit = limit
	}
	if raw := strings.TrimSpace(params.Get("min_score")); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil || minScore <= 0 || minScore > 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid min_score %q", raw))
			return
		}
		opts.MinScore = minScore
	}

	results, err := s.daemon.Search(r.Context(), query, opts)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// httpStatusFor maps service error markers onto HTTP status codes.
func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrTransient), errors.Is(err, services.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
