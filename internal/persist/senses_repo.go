package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/senses"
)

// ErrNotFound is returned by Load when no row exists for the agent.
var ErrNotFound = errors.New("persist: not found")

// SensesRow is one agent's saved perception state. Seen lists hold entity
// names because entity IDs are only valid for one run.
type SensesRow struct {
	Agent        string
	Flags        int32
	LookDist     float64
	LastLookDist float64
	TimeLastLook time.Duration
	LastScan     [senses.NumCategories]time.Duration
	Seen         [senses.NumCategories][]string
}

// RowFromSnapshot converts a snapshot. Entities nameOf cannot resolve are
// left out.
func RowFromSnapshot(agent string, snap senses.Snapshot, nameOf func(ecs.EntityID) (string, bool)) SensesRow {
	row := SensesRow{
		Agent:        agent,
		Flags:        int32(snap.Flags),
		LookDist:     snap.LookDist,
		LastLookDist: snap.LastLookDist,
		TimeLastLook: snap.TimeLastLook,
		LastScan:     snap.LastScan,
	}
	for c, ids := range snap.Seen {
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			if n, ok := nameOf(id); ok {
				names = append(names, n)
			}
		}
		row.Seen[c] = names
	}
	return row
}

// Snapshot converts the row back, mapping names through idOf. Names that no
// longer exist are dropped.
func (r *SensesRow) Snapshot(idOf func(string) (ecs.EntityID, bool)) senses.Snapshot {
	snap := senses.Snapshot{
		Flags:        senses.Flags(r.Flags),
		LookDist:     r.LookDist,
		LastLookDist: r.LastLookDist,
		TimeLastLook: r.TimeLastLook,
		LastScan:     r.LastScan,
	}
	for c, names := range r.Seen {
		for _, n := range names {
			if id, ok := idOf(n); ok {
				snap.Seen[c] = append(snap.Seen[c], id)
			}
		}
	}
	return snap
}

func (r *SensesRow) scanArray() []int64 {
	out := make([]int64, len(r.LastScan))
	for i, d := range r.LastScan {
		out[i] = int64(d)
	}
	return out
}

// SensesRepo stores agent perception snapshots.
type SensesRepo struct {
	db *DB
}

func NewSensesRepo(db *DB) *SensesRepo {
	return &SensesRepo{db: db}
}

// Save upserts all rows in a single transaction.
func (r *SensesRepo) Save(ctx context.Context, rows []SensesRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("senses begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range rows {
		row := &rows[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO agent_senses (agent, flags, look_dist, last_look_dist, time_last_look, last_scan,
			                           seen_high_priority, seen_npcs, seen_misc, seen_nextbots, saved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			 ON CONFLICT (agent) DO UPDATE SET
			     flags = EXCLUDED.flags, look_dist = EXCLUDED.look_dist,
			     last_look_dist = EXCLUDED.last_look_dist, time_last_look = EXCLUDED.time_last_look,
			     last_scan = EXCLUDED.last_scan,
			     seen_high_priority = EXCLUDED.seen_high_priority, seen_npcs = EXCLUDED.seen_npcs,
			     seen_misc = EXCLUDED.seen_misc, seen_nextbots = EXCLUDED.seen_nextbots,
			     saved_at = now()`,
			row.Agent, row.Flags, row.LookDist, row.LastLookDist, int64(row.TimeLastLook), row.scanArray(),
			row.Seen[senses.SeenHighPriority], row.Seen[senses.SeenNPCs],
			row.Seen[senses.SeenMisc], row.Seen[senses.SeenNextBots],
		); err != nil {
			return fmt.Errorf("save senses %s: %w", row.Agent, err)
		}
	}
	return tx.Commit(ctx)
}

// Load returns the saved row for agent, or ErrNotFound.
func (r *SensesRepo) Load(ctx context.Context, agent string) (*SensesRow, error) {
	row := &SensesRow{Agent: agent}
	var (
		timeLastLook int64
		lastScan     []int64
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT flags, look_dist, last_look_dist, time_last_look, last_scan,
		        seen_high_priority, seen_npcs, seen_misc, seen_nextbots
		 FROM agent_senses WHERE agent = $1`, agent,
	).Scan(&row.Flags, &row.LookDist, &row.LastLookDist, &timeLastLook, &lastScan,
		&row.Seen[senses.SeenHighPriority], &row.Seen[senses.SeenNPCs],
		&row.Seen[senses.SeenMisc], &row.Seen[senses.SeenNextBots])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load senses %s: %w", agent, err)
	}
	row.TimeLastLook = time.Duration(timeLastLook)
	for i := range row.LastScan {
		row.LastScan[i] = senses.Never
		if i < len(lastScan) {
			row.LastScan[i] = time.Duration(lastScan[i])
		}
	}
	return row, nil
}
