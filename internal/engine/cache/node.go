package cache

import (
	"context"

	"github.com/ethanis/pipecache/internal/adapters/fs"                 //nolint:depguard // Wired in engine wiring
	"github.com/ethanis/pipecache/internal/adapters/logger"             //nolint:depguard // Wired in engine wiring
	"github.com/ethanis/pipecache/internal/adapters/tar"                //nolint:depguard // Wired in engine wiring
	"github.com/ethanis/pipecache/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"github.com/ethanis/pipecache/internal/adapters/vars"               //nolint:depguard // Wired in engine wiring
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the cache orchestrator Graft node.
const NodeID graft.ID = "engine.cache"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.ResolverNodeID,
			tar.NodeID,
			vars.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			resolver, err := graft.Dep[ports.KeyResolver](ctx)
			if err != nil {
				return nil, err
			}

			archiver, err := graft.Dep[ports.Archiver](ctx)
			if err != nil {
				return nil, err
			}

			sink, err := graft.Dep[ports.VariableSink](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(resolver, archiver, sink, tel, log), nil
		},
	})
}
