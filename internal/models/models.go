package models

import "encoding/json"

// ==================== Inbound Models ====================

// SearchRequest represents an inbound shopping search
type SearchRequest struct {
	Query       string `json:"q"`
	Location    string `json:"location"`
	Device      string `json:"device"`
	CountryCode string `json:"country_code"`
}

// ==================== Outbound Models ====================

// SearchResponse is returned on success. ShoppingResults is relayed verbatim
// from the upstream body and encodes as null when upstream omitted it.
type SearchResponse struct {
	ShoppingResults json.RawMessage `json:"shopping_results"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the /health payload
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}
