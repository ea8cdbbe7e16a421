package ports

import (
	"context"
	"io"

	"github.com/ethanis/pipecache/internal/core/domain"
)

// DownloadFunc streams archive bytes into w. The orchestrator provides one
// that copies from the content store.
type DownloadFunc func(ctx context.Context, w io.Writer) error

// Archiver defines the interface for packing and unpacking cache archives.
//
//go:generate go run go.uber.org/mock/mockgen -source=archiver.go -destination=mocks/mock_archiver.go -package=mocks
type Archiver interface {
	// Pack archives the given directories into a temporary tar file and
	// returns its path. The caller owns deleting the file.
	Pack(ctx context.Context, paths []string, workdir string) (string, error)

	// Unpack validates the manifest shape, then extracts the archive it
	// describes into workdir, streaming the bytes produced by download.
	// The manifest is rejected before download is invoked.
	Unpack(ctx context.Context, manifest *domain.Manifest, download DownloadFunc, workdir string) error
}
