// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"github.com/ethanis/pipecache/internal/core/domain"
)

// CacheIndex defines the interface for looking up and registering cache entries.
//
//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks
type CacheIndex interface {
	// Lookup returns the first entry matching any of the candidate
	// fingerprints, preferring earlier candidates.
	// Returns nil, nil if none match.
	Lookup(ctx context.Context, candidates []domain.Fingerprint) (*domain.CacheEntry, error)

	// Register stores the entry. Entries are immutable: registering a
	// fingerprint that is already present returns domain.ErrEntryExists.
	Register(ctx context.Context, entry domain.CacheEntry) error
}
