package ports

import (
	"context"
	"io"

	"github.com/ethanis/pipecache/internal/core/domain"
)

// ContentStore defines the interface for publishing and fetching cache content.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ContentStore interface {
	// Publish uploads the content rooted at the given path (a single file or
	// a directory tree) and returns an opaque reference to it.
	Publish(ctx context.Context, root string) (domain.ContentRef, error)

	// FetchManifest retrieves the item manifest for previously published content.
	FetchManifest(ctx context.Context, ref domain.ContentRef) (*domain.Manifest, error)

	// Open streams the content of a single blob. The caller owns closing the reader.
	Open(ctx context.Context, blob domain.BlobID) (io.ReadCloser, error)
}
