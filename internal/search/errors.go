package search

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyQuery is returned when a search is attempted without a query
var ErrEmptyQuery = errors.New("query parameter 'q' is required")

// UpstreamError is any failure talking to the search provider: a non-2xx
// status, a transport fault or an undecodable body. StatusCode is zero when
// no HTTP response was received.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		msg := e.Message
		if msg == "" {
			msg = http.StatusText(e.StatusCode)
		}
		return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
