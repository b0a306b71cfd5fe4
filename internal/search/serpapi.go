package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/shopproxy/internal/config"
	"github.com/young1lin/shopproxy/internal/metrics"
	"github.com/young1lin/shopproxy/internal/models"
	"github.com/young1lin/shopproxy/pkg/logger"
)

// Fixed upstream parameters for the Google Shopping vertical
const (
	serpAPIEngine       = "google"
	serpAPIGoogleDomain = "google.com"
	serpAPILanguage     = "en"
	serpAPIShoppingTBM  = "shop"

	defaultMaxBodyBytes = 10 * 1024 * 1024
)

// SerpAPIProvider implements the Provider interface using SerpApi's Google
// Shopping results
type SerpAPIProvider struct {
	name         string
	baseURL      string
	endpoint     string // baseURL without query, safe to show in errors
	apiKey       string
	maxBodyBytes int64
	client       *http.Client
}

// NewSerpAPIProvider creates a new SerpApi provider. A zero timeout leaves the
// client without a deadline.
func NewSerpAPIProvider(cfg *config.UpstreamConfig) *SerpAPIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &SerpAPIProvider{
		name:         "serpapi",
		baseURL:      baseURL,
		endpoint:     stripQuery(baseURL),
		apiKey:       cfg.APIKey,
		maxBodyBytes: maxBody,
		client:       client,
	}
}

// Name returns the provider name
func (p *SerpAPIProvider) Name() string {
	return p.name
}

// serpAPIResponse picks the only field relayed to callers
type serpAPIResponse struct {
	ShoppingResults json.RawMessage `json:"shopping_results"`
}

// serpAPIError is the body SerpApi sends alongside error statuses
type serpAPIError struct {
	Error string `json:"error"`
}

// Params returns the full upstream parameter set for req
func (p *SerpAPIProvider) Params(req *models.SearchRequest) url.Values {
	params := url.Values{}
	params.Set("engine", serpAPIEngine)
	params.Set("q", req.Query)
	params.Set("location", req.Location)
	params.Set("google_domain", serpAPIGoogleDomain)
	params.Set("gl", req.CountryCode)
	params.Set("hl", serpAPILanguage)
	params.Set("device", req.Device)
	params.Set("api_key", p.apiKey)
	params.Set("tbm", serpAPIShoppingTBM)
	return params
}

// Search performs a single GET against SerpApi. It never retries.
func (p *SerpAPIProvider) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	log := logger.WithTraceID(logger.TraceIDFromContext(ctx))

	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	target, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, p.fail(&UpstreamError{Provider: p.name, Err: fmt.Errorf("invalid base url: %w", err)})
	}
	query := target.Query()
	for k, vs := range p.Params(req) {
		query[k] = vs
	}
	target.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, p.fail(&UpstreamError{Provider: p.name, Err: fmt.Errorf("failed to create request: %w", p.redact(err))})
	}
	httpReq.Header.Set("Accept", "application/json")
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		httpReq.Header.Set("X-Trace-ID", traceID)
	}

	log.Debug("sending request to serpapi",
		zap.String("endpoint", p.endpoint),
		zap.String("query", req.Query),
		zap.String("location", req.Location),
		zap.String("device", req.Device),
		zap.String("gl", req.CountryCode),
	)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		metrics.ObserveUpstream(metrics.OutcomeTransportError, time.Since(start))
		return nil, p.fail(&UpstreamError{Provider: p.name, Err: fmt.Errorf("failed to send request: %w", p.redact(err))})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes+1))
	if err != nil {
		metrics.ObserveUpstream(metrics.OutcomeTransportError, time.Since(start))
		return nil, p.fail(&UpstreamError{Provider: p.name, Err: fmt.Errorf("failed to read response: %w", p.redact(err))})
	}

	log.Debug("serpapi response",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveUpstream(metrics.OutcomeHTTPError, time.Since(start))
		return nil, p.fail(&UpstreamError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body),
		})
	}

	if int64(len(body)) > p.maxBodyBytes {
		metrics.ObserveUpstream(metrics.OutcomeDecodeError, time.Since(start))
		return nil, p.fail(&UpstreamError{Provider: p.name, Message: fmt.Sprintf("response body exceeds %d bytes", p.maxBodyBytes)})
	}

	var payload serpAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.ObserveUpstream(metrics.OutcomeDecodeError, time.Since(start))
		return nil, p.fail(&UpstreamError{Provider: p.name, Err: fmt.Errorf("failed to parse response: %w", err)})
	}

	metrics.ObserveUpstream(metrics.OutcomeSuccess, time.Since(start))
	log.Info("serpapi search completed",
		zap.String("query", req.Query),
		zap.Bool("has_shopping_results", len(payload.ShoppingResults) > 0 && string(payload.ShoppingResults) != "null"),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &models.SearchResponse{ShoppingResults: payload.ShoppingResults}, nil
}

func (p *SerpAPIProvider) fail(err *UpstreamError) error {
	logger.Warn("serpapi search failed", zap.Error(err))
	return err
}

// redact replaces the request URL in transport errors, which would
// otherwise carry the api_key query parameter
func (p *SerpAPIProvider) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = p.endpoint
		return &redacted
	}
	if p.apiKey != "" && strings.Contains(err.Error(), p.apiKey) {
		return errors.New(strings.ReplaceAll(err.Error(), p.apiKey, "REDACTED"))
	}
	return err
}

// upstreamMessage extracts SerpApi's error text, falling back to a trimmed body
func upstreamMessage(body []byte) string {
	var errResp serpAPIError
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
