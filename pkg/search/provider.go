package search

import (
	"context"

	"doc-support-be/pkg/store"
)

// Provider returns ranked document results for a free-text query.
// Implementations are remote calls and must honor the context deadline.
type Provider interface {
	Search(ctx context.Context, query string) ([]store.Result, error)
}
