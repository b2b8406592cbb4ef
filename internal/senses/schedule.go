package senses

import "time"

// Never marks a category that has not been scanned yet.
const Never time.Duration = -1

// Default rescan intervals per category.
const (
	DefaultHighPriorityInterval = 150 * time.Millisecond
	DefaultNPCInterval          = 250 * time.Millisecond
	DefaultEfficientNPCInterval = 350 * time.Millisecond
	DefaultMiscInterval         = 450 * time.Millisecond
	DefaultNextBotInterval      = 250 * time.Millisecond
)

// Schedule is the per-category throttle policy. It only answers "is this
// category due"; the scan itself lives in Senses. One Schedule is shared by
// every agent in a simulation.
type Schedule struct {
	interval     [NumCategories]time.Duration
	enabled      [NumCategories]bool
	efficientNPC time.Duration
}

// DefaultSchedule enables every category with the default intervals.
func DefaultSchedule() *Schedule {
	s := &Schedule{efficientNPC: DefaultEfficientNPCInterval}
	s.interval[SeenHighPriority] = DefaultHighPriorityInterval
	s.interval[SeenNPCs] = DefaultNPCInterval
	s.interval[SeenMisc] = DefaultMiscInterval
	s.interval[SeenNextBots] = DefaultNextBotInterval
	for _, c := range Categories {
		s.enabled[c] = true
	}
	return s
}

func (s *Schedule) SetInterval(c SeenType, d time.Duration) {
	if c.valid() {
		s.interval[c] = d
	}
}

func (s *Schedule) Interval(c SeenType) time.Duration {
	if !c.valid() {
		return 0
	}
	return s.interval[c]
}

// SetEfficientNPCInterval sets the NPC interval used by agents running in
// EfficiencyEfficient.
func (s *Schedule) SetEfficientNPCInterval(d time.Duration) { s.efficientNPC = d }

// Enable turns a category on or off. A disabled category is never scanned
// and its list stays empty.
func (s *Schedule) Enable(c SeenType, on bool) {
	if c.valid() {
		s.enabled[c] = on
	}
}

func (s *Schedule) Enabled(c SeenType) bool {
	return c.valid() && s.enabled[c]
}

// Due reports whether category c should be rescanned at now, given the time
// of its last scan and the agent's efficiency.
func (s *Schedule) Due(c SeenType, eff Efficiency, last, now time.Duration) bool {
	if !s.Enabled(c) {
		return false
	}
	interval := s.interval[c]
	if c == SeenNPCs {
		switch {
		case eff >= EfficiencyVeryEfficient:
			return false
		case eff == EfficiencyEfficient:
			interval = s.efficientNPC
		}
	}
	if last == Never {
		return true
	}
	return now-last > interval
}
