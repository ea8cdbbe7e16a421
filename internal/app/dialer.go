package app

import (
	"context"
	"net/url"
	"strings"

	"github.com/ethanis/pipecache/internal/adapters/localcas" //nolint:depguard // Wired in app layer
	"github.com/ethanis/pipecache/internal/adapters/remote"   //nolint:depguard // Wired in app layer
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BackendDialer = (*Dialer)(nil)

// Dialer selects the backend adapter for an endpoint: http and https URLs
// reach the cache service, file URLs and bare paths a directory cache.
type Dialer struct {
	log ports.Logger
}

// NewDialer creates a new Dialer.
func NewDialer(log ports.Logger) *Dialer {
	return &Dialer{log: log}
}

// Dial implements ports.BackendDialer.
func (d *Dialer) Dial(_ context.Context, endpoint string) (ports.Backend, error) {
	if endpoint == "" {
		return ports.Backend{}, domain.ErrEndpointRequired
	}

	u, err := url.Parse(endpoint)
	switch {
	case err == nil && (u.Scheme == "http" || u.Scheme == "https"):
		client, cerr := remote.NewClient(endpoint)
		if cerr != nil {
			return ports.Backend{}, cerr
		}
		d.log.Info("using cache service at " + endpoint)
		return ports.Backend{Index: client, Store: client, Downloader: client}, nil

	case err == nil && u.Scheme == "file":
		return d.directory(u.Path), nil

	case strings.Contains(endpoint, "://"):
		return ports.Backend{}, zerr.With(zerr.New("unsupported endpoint scheme"), "endpoint", endpoint)

	default:
		// Anything without a scheme is a directory path.
		return d.directory(endpoint), nil
	}
}

func (d *Dialer) directory(dir string) ports.Backend {
	store := localcas.NewAtDir(dir, d.log)
	d.log.Info("using directory cache at " + dir)
	return ports.Backend{Index: store, Store: store, Downloader: store}
}
