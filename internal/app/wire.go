//go:build wireinject

package app

import (
	"github.com/ethanis/pipecache/internal/adapters/config"
	"github.com/ethanis/pipecache/internal/adapters/fs"
	"github.com/ethanis/pipecache/internal/adapters/logger"
	"github.com/ethanis/pipecache/internal/adapters/tar"
	"github.com/ethanis/pipecache/internal/adapters/telemetry/progrock"
	"github.com/ethanis/pipecache/internal/adapters/vars"
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/ethanis/pipecache/internal/engine/cache"
	"github.com/mazrean/kessoku"
)

// AdapterSet groups all adapter providers with interface bindings.
var AdapterSet = kessoku.Set(
	// Logger (returns ports.Logger directly)
	kessoku.Provide(logger.New),

	// Config Loader
	kessoku.Bind[ports.ConfigLoader](kessoku.Provide(config.NewLoader)),

	// FS Walker (concrete type, used by the resolver)
	kessoku.Provide(fs.NewWalker),

	// Key Resolver
	kessoku.Bind[ports.KeyResolver](kessoku.Provide(fs.NewResolver)),

	// Tar tool selector (concrete type, used by the transcoder)
	kessoku.Provide(tar.NewSelector),

	// Archive Transcoder
	kessoku.Bind[ports.Archiver](kessoku.Provide(tar.NewTranscoder)),

	// Variable Sink
	kessoku.Bind[ports.VariableSink](kessoku.Provide(vars.New)),

	// Telemetry Recorder (returns ports.Telemetry directly)
	kessoku.Provide(progrock.New),

	// Backend Dialer
	kessoku.Bind[ports.BackendDialer](kessoku.Provide(NewDialer)),
)

// EngineSet groups engine-layer providers.
var EngineSet = kessoku.Set(
	kessoku.Provide(cache.New),
)

// AppSet groups application-layer providers.
var AppSet = kessoku.Set(
	kessoku.Provide(New),
	kessoku.Provide(NewComponents),
)

var _ = kessoku.Inject[*Components]("InitializeApp",
	AdapterSet,
	EngineSet,
	AppSet,
)

// InitializeApp is a stub for wire generation.
func InitializeApp() (*Components, error) {
	panic("wire")
}
