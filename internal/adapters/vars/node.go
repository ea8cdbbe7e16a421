package vars

import (
	"context"

	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/grindlemire/graft"
)

const NodeID graft.ID = "adapter.variable_sink"

func init() {
	graft.Register(graft.Node[ports.VariableSink]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.VariableSink, error) {
			return New(), nil
		},
	})
}
