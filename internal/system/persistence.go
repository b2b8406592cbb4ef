package system

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	coresys "github.com/l1jgo/aisenses/internal/core/system"
	"github.com/l1jgo/aisenses/internal/persist"
	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/world"
)

// SensesStore is the part of persist.SensesRepo the persistence system uses.
type SensesStore interface {
	Save(ctx context.Context, rows []persist.SensesRow) error
	Load(ctx context.Context, agent string) (*persist.SensesRow, error)
}

// PersistenceSystem 定期將有名稱的 agent 感知快照存入 DB。
// Phase 4 (Persist)。
type PersistenceSystem struct {
	world     *world.State
	store     SensesStore
	log       *zap.Logger
	interval  int // save every N ticks
	timeout   time.Duration
	tickCount int
	rows      []persist.SensesRow
}

func NewPersistenceSystem(ws *world.State, store SensesStore, intervalTicks int, timeout time.Duration, log *zap.Logger) *PersistenceSystem {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PersistenceSystem{
		world:    ws,
		store:    store,
		log:      log,
		interval: intervalTicks,
		timeout:  timeout,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if _, err := s.SaveAll(); err != nil {
		s.log.Error("auto-save senses failed", zap.Error(err))
	}
}

// SaveAll 立即存檔所有有名稱的 agent（關機時也會呼叫）。
func (s *PersistenceSystem) SaveAll() (int, error) {
	s.rows = s.rows[:0]
	s.world.EachAgent(func(id ecs.EntityID, sn *senses.Senses) {
		b, ok := s.world.Get(id)
		if !ok || b.Name == "" {
			return
		}
		s.rows = append(s.rows, persist.RowFromSnapshot(b.Name, sn.Snapshot(), s.nameOf))
	})
	if len(s.rows) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Save(ctx, s.rows); err != nil {
		return 0, err
	}
	s.log.Info("senses saved", zap.Int("agents", len(s.rows)), zap.Duration("sim_time", s.world.Now()))
	return len(s.rows), nil
}

// RestoreAll loads saved snapshots into the matching agents. Agents without
// a saved row keep their fresh state. The clock resumes from the latest
// saved timestamp so restored scan times never lie in the future.
func (s *PersistenceSystem) RestoreAll(ctx context.Context) (int, error) {
	var (
		restored int
		firstErr error
		resume   time.Duration
	)
	s.world.EachAgent(func(id ecs.EntityID, sn *senses.Senses) {
		if firstErr != nil {
			return
		}
		b, ok := s.world.Get(id)
		if !ok || b.Name == "" {
			return
		}
		row, err := s.store.Load(ctx, b.Name)
		if errors.Is(err, persist.ErrNotFound) {
			return
		}
		if err != nil {
			firstErr = err
			return
		}
		snap := row.Snapshot(s.world.Lookup)
		resume = max(resume, snap.TimeLastLook)
		for _, t := range snap.LastScan {
			resume = max(resume, t)
		}
		sn.Restore(snap)
		restored++
	})
	if firstErr != nil {
		return restored, firstErr
	}
	if resume > s.world.Now() {
		s.world.SetNow(resume)
	}
	if restored > 0 {
		s.log.Info("senses restored", zap.Int("agents", restored), zap.Duration("resume_at", s.world.Now()))
	}
	return restored, nil
}

func (s *PersistenceSystem) nameOf(id ecs.EntityID) (string, bool) {
	b, ok := s.world.Get(id)
	if !ok || b.Name == "" {
		return "", false
	}
	return b.Name, true
}
