package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/young1lin/shopproxy/internal/config"
	"github.com/young1lin/shopproxy/internal/metrics"
	"github.com/young1lin/shopproxy/internal/models"
	"github.com/young1lin/shopproxy/internal/search"
	"github.com/young1lin/shopproxy/pkg/logger"
)

// ProxyHandler serves the shopping search endpoint
type ProxyHandler struct {
	config   *config.Config
	provider search.Provider
	routes   http.Handler
	metrics  http.Handler
}

// NewProxyHandler creates a new proxy handler
func NewProxyHandler(cfg *config.Config, provider search.Provider) *ProxyHandler {
	h := &ProxyHandler{
		config:   cfg,
		provider: provider,
	}
	if cfg.Metrics.Enabled {
		h.metrics = promhttp.Handler()
	}
	h.routes = newCORS(cfg.CORS).Handler(http.HandlerFunc(h.route))
	return h
}

// ServeHTTP handles all HTTP requests
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}
	r = r.WithContext(logger.ContextWithTraceID(r.Context(), traceID))

	log := logger.WithTraceID(traceID)
	log.Info("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.routes.ServeHTTP(rec, r)

	elapsed := time.Since(start)
	metrics.ObserveHTTP(routeLabel(r.URL.Path), rec.status, elapsed)
	log.Info("request completed",
		zap.Int("status", rec.status),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
}

func (h *ProxyHandler) route(w http.ResponseWriter, r *http.Request) {
	log := logger.WithTraceID(logger.TraceIDFromContext(r.Context()))

	switch {
	case r.URL.Path == "/search":
		h.handleSearch(w, r, log)
	case r.URL.Path == "/health":
		h.handleHealth(w, r, log)
	case r.URL.Path == "/metrics" && h.metrics != nil:
		h.metrics.ServeHTTP(w, r)
	default:
		h.handleError(w, http.StatusNotFound, "not found", log)
	}
}

// handleSearch handles GET /search
func (h *ProxyHandler) handleSearch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		h.handleError(w, http.StatusMethodNotAllowed, "only GET method is allowed", log)
		return
	}

	req := h.parseSearchRequest(r)
	if req.Query == "" {
		h.handleError(w, http.StatusBadRequest, search.ErrEmptyQuery.Error(), log)
		return
	}

	log.Info("forwarding search",
		zap.String("provider", h.provider.Name()),
		zap.String("query", req.Query),
		zap.String("location", req.Location),
		zap.String("device", req.Device),
		zap.String("country_code", req.CountryCode),
	)

	resp, err := h.provider.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			h.handleError(w, http.StatusBadRequest, err.Error(), log)
			return
		}
		h.handleError(w, http.StatusInternalServerError, err.Error(), log)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// parseSearchRequest reads query parameters, applying configured defaults to
// the ones that are absent. A parameter present with an empty value is kept.
func (h *ProxyHandler) parseSearchRequest(r *http.Request) *models.SearchRequest {
	values := r.URL.Query()
	defaults := h.config.Search

	valueOr := func(key, fallback string) string {
		if values.Has(key) {
			return values.Get(key)
		}
		return fallback
	}

	return &models.SearchRequest{
		Query:       values.Get("q"),
		Location:    valueOr("location", defaults.DefaultLocation),
		Device:      valueOr("device", defaults.DefaultDevice),
		CountryCode: valueOr("country_code", defaults.DefaultCountryCode),
	}
}

// handleHealth handles health check requests
func (h *ProxyHandler) handleHealth(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	h.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
	})
}

// handleError writes a {"error": message} body
func (h *ProxyHandler) handleError(w http.ResponseWriter, status int, message string, log *zap.Logger) {
	if status >= http.StatusInternalServerError {
		log.Error("request error", zap.String("message", message), zap.Int("status", status))
	} else {
		log.Warn("request error", zap.String("message", message), zap.Int("status", status))
	}

	h.writeJSON(w, status, models.ErrorResponse{Error: message})
}

func (h *ProxyHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	id := uuid.New()
	return id.String()[:16]
}

// routeLabel keeps metric label cardinality bounded
func routeLabel(path string) string {
	switch path {
	case "/search", "/health", "/metrics":
		return path
	default:
		return "other"
	}
}

// statusRecorder captures the status code written by downstream handlers
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
