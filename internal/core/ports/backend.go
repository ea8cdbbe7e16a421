package ports

import "context"

// Backend bundles the ports served by one cache endpoint.
type Backend struct {
	Index      CacheIndex
	Store      ContentStore
	Downloader FileSetDownloader
}

// BackendDialer opens the cache backend behind an endpoint.
//
//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks
type BackendDialer interface {
	// Dial opens the backend for a service URL, a file:// URL, or a plain
	// directory path.
	Dial(ctx context.Context, endpoint string) (Backend, error)
}
