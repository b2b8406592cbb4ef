package system

import (
	"time"

	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/world"
)

// CleanupSystem 處理延遲銷毀佇列，最後推進模擬時鐘結束本 tick。
// Phase 5 (Cleanup)。
type CleanupSystem struct {
	world *world.State
}

func NewCleanupSystem(ws *world.State) *CleanupSystem {
	return &CleanupSystem{world: ws}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(dt time.Duration) {
	s.world.ECS().FlushDestroyQueue()
	s.world.Advance(dt)
}
