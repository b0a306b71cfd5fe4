package handler

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/young1lin/shopproxy/internal/config"
)

// newCORS builds the cross-origin policy. A "*" origin is reflected back
// rather than sent literally so that credentialed requests are accepted.
func newCORS(cfg config.CORSConfig) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: cfg.AllowCredentials,
	}

	if allowsAnyOrigin(cfg.AllowedOrigins) {
		opts.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.AllowedOrigins
	}

	return cors.New(opts)
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
