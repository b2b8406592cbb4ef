package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/aisenses/internal/core/event"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/senses"
)

// EventDispatchSystem swaps the event buffers and delivers last tick's
// events, then compacts the sensed-object registry. Phase 0 (PreUpdate):
// nothing iterates the registry between here and the sense phase, so
// compaction never races a cursor.
type EventDispatchSystem struct {
	bus     *event.Bus
	objects *senses.Registry
	log     *zap.Logger
}

func NewEventDispatchSystem(bus *event.Bus, objects *senses.Registry, log *zap.Logger) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus, objects: objects, log: log}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	n := s.bus.DispatchAll()
	dropped := 0
	if s.objects != nil {
		dropped = s.objects.Compact()
	}
	if n > 0 || dropped > 0 {
		s.log.Debug("events dispatched", zap.Int("events", n), zap.Int("registry_compacted", dropped))
	}
}
