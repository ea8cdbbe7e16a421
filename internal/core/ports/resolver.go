package ports

import (
	"context"

	"github.com/ethanis/pipecache/internal/core/domain"
)

// KeyResolver defines the interface for turning configured key parts and path
// patterns into fingerprints.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type KeyResolver interface {
	// ResolveKey produces one segment per part, in order. A part naming an
	// existing file, directory, or glob is replaced by a hash of the matched
	// content; any other part is kept as a literal segment.
	ResolveKey(ctx context.Context, parts []string, workdir string) (domain.Fingerprint, error)

	// ResolvePaths expands the configured cache path patterns into a
	// fingerprint of cleaned, sorted literal path segments.
	ResolvePaths(ctx context.Context, patterns []string, workdir string) (domain.Fingerprint, error)
}
