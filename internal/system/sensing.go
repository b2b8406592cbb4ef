package system

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
	"github.com/l1jgo/aisenses/internal/world"
)

// SenseStats are the perception counters of the last sensing pass.
type SenseStats struct {
	Agents  int // agents in the world
	Sensed  int // agents that ran PerformSensing
	Dormant int
	Seen    [senses.NumCategories]int
	Heard   int
	Elapsed time.Duration // wall time of the pass
}

// SensingSystem 每 tick 對所有 agent 執行一次感知（看 + 聽）。
// Phase 2 (Sense)。
type SensingSystem struct {
	world        *world.State
	log          *zap.Logger
	summaryEvery int // ticks between summaries, 0 = never
	ticks        int
	stats        SenseStats
}

func NewSensingSystem(ws *world.State, summaryEvery int, log *zap.Logger) *SensingSystem {
	return &SensingSystem{world: ws, summaryEvery: summaryEvery, log: log}
}

func (s *SensingSystem) Phase() coresys.Phase { return coresys.PhaseSense }

func (s *SensingSystem) Update(_ time.Duration) {
	start := time.Now()
	s.stats = SenseStats{}
	s.world.EachAgent(func(id ecs.EntityID, sn *senses.Senses) {
		s.stats.Agents++
		b, ok := s.world.Get(id)
		if !ok || !b.Alive {
			return
		}
		if b.Efficiency == senses.EfficiencyDormant {
			s.stats.Dormant++
			return
		}
		sn.PerformSensing()
		s.stats.Sensed++
		for _, c := range senses.Categories {
			s.stats.Seen[c] += sn.SeenCount(c)
		}
		s.stats.Heard += sn.HeardCount()
	})
	s.stats.Elapsed = time.Since(start)

	s.ticks++
	if s.summaryEvery > 0 && s.ticks%s.summaryEvery == 0 {
		s.Summary(zapcore.DebugLevel)
	}
}

// Stats returns the counters of the last Update.
func (s *SensingSystem) Stats() SenseStats { return s.stats }

// Summary 每個 agent 輸出一行目前的感知結果。
func (s *SensingSystem) Summary(level zapcore.Level) {
	if !s.log.Core().Enabled(level) {
		return
	}
	s.world.EachAgent(func(id ecs.EntityID, sn *senses.Senses) {
		b, ok := s.world.Get(id)
		if !ok {
			return
		}
		fields := []zap.Field{
			zap.String("agent", b.Name),
			zap.String("class", b.Class),
			zap.Bool("alive", b.Alive),
			zap.Float64("look_dist", sn.LookDist()),
		}
		for _, c := range senses.Categories {
			fields = append(fields, zap.Strings(c.String(), s.seenNames(sn, c)))
		}
		fields = append(fields, zap.Int("heard", sn.HeardCount()))
		if snd := sn.ClosestSound(false, sound.AllSounds, true); snd != nil {
			fields = append(fields, zap.Stringer("closest_sound", snd.Type))
		}
		if ce := s.log.Check(level, "perception"); ce != nil {
			ce.Write(fields...)
		}
	})
}

func (s *SensingSystem) seenNames(sn *senses.Senses, c senses.SeenType) []string {
	var names []string
	var it senses.SightIter
	for id := sn.FirstSeenEntity(&it, c); id != ecs.NoEntity; id = sn.NextSeenEntity(&it) {
		if b, ok := s.world.Get(id); ok {
			names = append(names, b.Name)
		}
	}
	return names
}
