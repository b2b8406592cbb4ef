package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/aisenses/internal/core/event"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/sound"
	"github.com/l1jgo/aisenses/internal/world"
)

// SoundSystem 負責聲音佇列：SoundEmitted 事件派發時寫入，
// 並在 agent 聆聽前清掉過期的聲音。Phase 1 (Update)。
type SoundSystem struct {
	feed  *sound.Feed
	world *world.State
	log   *zap.Logger
}

func NewSoundSystem(feed *sound.Feed, ws *world.State, bus *event.Bus, log *zap.Logger) *SoundSystem {
	s := &SoundSystem{feed: feed, world: ws, log: log}
	event.Subscribe(bus, s.onSoundEmitted)
	return s
}

func (s *SoundSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SoundSystem) Update(_ time.Duration) {
	if n := s.feed.Think(s.world.Now()); n > 0 {
		s.log.Debug("sounds expired", zap.Int("count", n), zap.Int("active", s.feed.Len()))
	}
}

func (s *SoundSystem) onSoundEmitted(e event.SoundEmitted) {
	id := s.feed.Insert(s.world.Now(), e.Sound)
	if id == sound.NoSound {
		return
	}
	s.log.Debug("sound emitted",
		zap.Stringer("type", e.Sound.Type),
		zap.Float64("volume", e.Sound.Volume),
		zap.Stringer("owner", e.Sound.Owner),
	)
}
