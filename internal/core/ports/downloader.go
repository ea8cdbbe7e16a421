package ports

import (
	"context"

	"github.com/ethanis/pipecache/internal/core/domain"
)

// FileSetDownloader defines the interface for materializing file-set content
// on disk.
//
//go:generate mockgen -source=downloader.go -destination=mocks/mock_downloader.go -package=mocks
type FileSetDownloader interface {
	// Download copies the manifest items whose path falls under filter into
	// targetDir, preserving relative paths. An empty filter copies everything.
	Download(ctx context.Context, manifest *domain.Manifest, filter string, targetDir string) error
}
