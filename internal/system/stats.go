package system

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
	"github.com/l1jgo/aisenses/internal/world"
)

// TickStats is one row of the per-tick perception CSV.
type TickStats struct {
	Tick         int     `csv:"tick"`
	TimeMS       int64   `csv:"time_ms"`
	Agents       int     `csv:"agents"`
	Sensed       int     `csv:"sensed"`
	Dormant      int     `csv:"dormant"`
	HighPriority int     `csv:"seen_high_priority"`
	NPCs         int     `csv:"seen_npcs"`
	Misc         int     `csv:"seen_misc"`
	NextBots     int     `csv:"seen_nextbots"`
	Heard        int     `csv:"heard"`
	Sounds       int     `csv:"sounds_active"`
	Dropped      int     `csv:"sounds_dropped"`
	Objects      int     `csv:"sensed_objects"`
	SenseMS      float64 `csv:"sense_ms"`
}

// StatsSystem appends a TickStats row after every sensing pass.
// Phase 3 (PostUpdate).
type StatsSystem struct {
	sensing *SensingSystem
	world   *world.State
	feed    *sound.Feed
	objects *senses.Registry
	out     io.Writer
	file    *os.File
	log     *zap.Logger

	tick          int
	headerWritten bool
}

// NewStatsSystem creates the CSV at path. An empty path disables output and
// returns nil.
func NewStatsSystem(path string, sensing *SensingSystem, ws *world.State, feed *sound.Feed, objects *senses.Registry, log *zap.Logger) (*StatsSystem, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create stats csv: %w", err)
	}
	s := newStatsSystem(f, sensing, ws, feed, objects, log)
	s.file = f
	return s, nil
}

func newStatsSystem(w io.Writer, sensing *SensingSystem, ws *world.State, feed *sound.Feed, objects *senses.Registry, log *zap.Logger) *StatsSystem {
	return &StatsSystem{sensing: sensing, world: ws, feed: feed, objects: objects, out: w, log: log}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *StatsSystem) Update(_ time.Duration) {
	if err := s.write(s.row()); err != nil {
		s.log.Error("write stats", zap.Error(err))
	}
	s.tick++
}

func (s *StatsSystem) row() TickStats {
	st := s.sensing.Stats()
	return TickStats{
		Tick:         s.tick,
		TimeMS:       s.world.Now().Milliseconds(),
		Agents:       st.Agents,
		Sensed:       st.Sensed,
		Dormant:      st.Dormant,
		HighPriority: st.Seen[senses.SeenHighPriority],
		NPCs:         st.Seen[senses.SeenNPCs],
		Misc:         st.Seen[senses.SeenMisc],
		NextBots:     st.Seen[senses.SeenNextBots],
		Heard:        st.Heard,
		Sounds:       s.feed.Len(),
		Dropped:      s.feed.Dropped(),
		Objects:      s.objects.Len(),
		SenseMS:      float64(st.Elapsed.Microseconds()) / 1000,
	}
}

func (s *StatsSystem) write(row TickStats) error {
	records := []TickStats{row}
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.out); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, s.out); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV file.
func (s *StatsSystem) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
