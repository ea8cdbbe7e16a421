package tar

import (
	"context"

	"github.com/ethanis/pipecache/internal/adapters/logger"
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/grindlemire/graft"
)

const NodeID graft.ID = "adapter.archiver"

func init() {
	graft.Register(graft.Node[ports.Archiver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Archiver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewTranscoder(NewSelector(), log), nil
		},
	})
}
