package sound

import (
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
)

// DefaultCapacity is the number of sounds the world keeps at once.
const DefaultCapacity = 64

// ID is a generational handle to a sound slot. It stops resolving once the
// sound expires or is replaced, even if the slot is reused.
type ID uint64

// NoSound is the "none" handle.
const NoSound ID = 0

func newID(slot int, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(slot+1))
}

func (id ID) slot() int          { return int(uint32(id)) - 1 }
func (id ID) generation() uint32 { return uint32(id >> 32) }

// Emit describes a sound to insert.
type Emit struct {
	Origin   r3.Vec
	Volume   float64 // hearing radius at sensitivity 1
	Type     Type
	Priority Priority
	Owner    ecs.EntityID
	Target   ecs.EntityID
	Channel  int // non-zero: replaces Owner's previous sound on the same channel
	Duration time.Duration
}

// Sound is one live entry in the feed.
type Sound struct {
	Origin   r3.Vec
	Volume   float64
	Type     Type
	Priority Priority
	Owner    ecs.EntityID
	Target   ecs.EntityID
	Channel  int
	Created  time.Duration
	Expires  time.Duration

	id     ID
	next   int // active or free chain, -1 terminates
	active bool
}

func (s *Sound) ID() ID { return s.id }

// IsSound and IsScent classify by kind, ignoring context bits.
func (s *Sound) IsSound() bool { return s.Type.IsSound() }
func (s *Sound) IsScent() bool { return s.Type.IsScent() }

// Feed is the chronological sound list. Active sounds are chained newest
// first; expired slots go back on the free chain.
// Accessed only from the simulation goroutine, so there are no locks.
type Feed struct {
	slots      []Sound
	gens       []uint32
	activeHead int
	freeHead   int
	active     int
	dropped    int
	log        *zap.Logger
}

func NewFeed(capacity int, log *zap.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &Feed{
		slots: make([]Sound, capacity),
		gens:  make([]uint32, capacity),
		log:   log,
	}
	f.reset()
	return f
}

func (f *Feed) reset() {
	for i := range f.slots {
		f.slots[i] = Sound{next: i + 1}
	}
	f.slots[len(f.slots)-1].next = -1
	f.freeHead = 0
	f.activeHead = -1
	f.active = 0
}

// Insert adds a sound at the head of the active chain and returns its handle.
// A full feed drops the sound and returns NoSound.
func (f *Feed) Insert(now time.Duration, e Emit) ID {
	if e.Owner != ecs.NoEntity && e.Channel != 0 {
		f.removeChannel(e.Owner, e.Channel)
	}
	if f.freeHead < 0 {
		f.dropped++
		f.log.Debug("sound feed full, dropping sound",
			zap.Stringer("type", e.Type),
			zap.Stringer("owner", e.Owner),
		)
		return NoSound
	}

	slot := f.freeHead
	s := &f.slots[slot]
	f.freeHead = s.next

	*s = Sound{
		Origin:   e.Origin,
		Volume:   e.Volume,
		Type:     e.Type,
		Priority: e.Priority,
		Owner:    e.Owner,
		Target:   e.Target,
		Channel:  e.Channel,
		Created:  now,
		Expires:  now + e.Duration,
		id:       newID(slot, f.gens[slot]),
		next:     f.activeHead,
		active:   true,
	}
	f.activeHead = slot
	f.active++
	return s.id
}

func (f *Feed) removeChannel(owner ecs.EntityID, channel int) {
	prev := -1
	for i := f.activeHead; i >= 0; {
		s := &f.slots[i]
		next := s.next
		if s.Owner == owner && s.Channel == channel {
			f.unlink(prev, i)
			return
		}
		prev = i
		i = next
	}
}

// unlink moves slot i (whose predecessor in the active chain is prev) to the
// free chain and invalidates its handle.
func (f *Feed) unlink(prev, i int) {
	s := &f.slots[i]
	if prev < 0 {
		f.activeHead = s.next
	} else {
		f.slots[prev].next = s.next
	}
	f.gens[i]++
	*s = Sound{next: f.freeHead}
	f.freeHead = i
	f.active--
}

// Think frees every sound whose expiry time has been reached and returns how
// many were freed.
func (f *Feed) Think(now time.Duration) int {
	freed := 0
	prev := -1
	for i := f.activeHead; i >= 0; {
		next := f.slots[i].next
		if f.slots[i].Expires <= now {
			f.unlink(prev, i)
			freed++
		} else {
			prev = i
		}
		i = next
	}
	return freed
}

// EachActive walks the active chain newest first until fn returns false.
func (f *Feed) EachActive(fn func(*Sound) bool) {
	for i := f.activeHead; i >= 0; {
		s := &f.slots[i]
		next := s.next
		if !fn(s) {
			return
		}
		i = next
	}
}

// Get resolves id; false once the sound expired or was replaced.
func (f *Feed) Get(id ID) (*Sound, bool) {
	if id == NoSound {
		return nil, false
	}
	slot := id.slot()
	if slot < 0 || slot >= len(f.slots) || f.gens[slot] != id.generation() {
		return nil, false
	}
	s := &f.slots[slot]
	if !s.active {
		return nil, false
	}
	return s, true
}

// Clear expires every sound at once.
func (f *Feed) Clear() {
	for i := range f.gens {
		f.gens[i]++
	}
	f.reset()
}

func (f *Feed) Len() int     { return f.active }
func (f *Feed) Cap() int     { return len(f.slots) }
func (f *Feed) Dropped() int { return f.dropped }
