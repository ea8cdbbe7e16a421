// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/ethanis/pipecache/internal/adapters/config"
	_ "github.com/ethanis/pipecache/internal/adapters/fs"
	_ "github.com/ethanis/pipecache/internal/adapters/logger"
	_ "github.com/ethanis/pipecache/internal/adapters/tar"
	_ "github.com/ethanis/pipecache/internal/adapters/telemetry/progrock"
	_ "github.com/ethanis/pipecache/internal/adapters/vars"
	// Register app and engine nodes.
	_ "github.com/ethanis/pipecache/internal/app"
	_ "github.com/ethanis/pipecache/internal/engine/cache"
)
