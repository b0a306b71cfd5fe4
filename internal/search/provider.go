package search

import (
	"context"

	"github.com/young1lin/shopproxy/internal/models"
)

// Provider defines the interface for shopping search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Search performs exactly one upstream query and returns the relayed results
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error)
}
