package app

import (
	"context"

	"github.com/ethanis/pipecache/internal/adapters/config" //nolint:depguard // Wired in app layer
	"github.com/ethanis/pipecache/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/ethanis/pipecache/internal/engine/cache"
	"github.com/grindlemire/graft"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// DialerNodeID is the unique identifier for the backend dialer Graft node.
	DialerNodeID graft.ID = "app.dialer"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// Backend Dialer Node
	graft.Register(graft.Node[ports.BackendDialer]{
		ID:        DialerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.BackendDialer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewDialer(log), nil
		},
	})

	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			DialerNodeID,
			cache.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			dialer, err := graft.Dep[ports.BackendDialer](ctx)
			if err != nil {
				return nil, err
			}

			orch, err := graft.Dep[*cache.Orchestrator](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, dialer, orch, log), nil
		},
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log), nil
}
