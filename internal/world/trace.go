package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
)

// Occluder is an axis-aligned box that blocks sight. Owner, when set, is the
// entity the box belongs to (a crate, a door); traces ignoring or aimed at
// that entity pass through it.
type Occluder struct {
	Box   r3.Box
	Owner ecs.EntityID
}

// AddOccluder adds static geometry.
func (s *State) AddOccluder(o Occluder) {
	o.Box = o.Box.Canon()
	s.occluders = append(s.occluders, o)
}

// Occluders returns the number of boxes in the world.
func (s *State) Occluders() int { return len(s.occluders) }

// Visible implements senses.Tracer: the segment from -> to is clear unless
// it crosses an occluder not owned by ignore or target.
func (s *State) Visible(from, to r3.Vec, ignore, target ecs.EntityID) bool {
	for i := range s.occluders {
		o := &s.occluders[i]
		if !o.Owner.IsZero() && (o.Owner == ignore || o.Owner == target) {
			continue
		}
		if segmentHitsBox(from, to, o.Box) {
			return false
		}
	}
	return true
}

// segmentHitsBox is the slab test restricted to t in [0, 1].
func segmentHitsBox(from, to r3.Vec, box r3.Box) bool {
	d := r3.Sub(to, from)
	tmin, tmax := 0.0, 1.0
	axes := [3][4]float64{
		{from.X, d.X, box.Min.X, box.Max.X},
		{from.Y, d.Y, box.Min.Y, box.Max.Y},
		{from.Z, d.Z, box.Min.Z, box.Max.Z},
	}
	for _, a := range axes {
		o, dir, lo, hi := a[0], a[1], a[2], a[3]
		if dir == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		t0, t1 := (lo-o)/dir, (hi-o)/dir
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return false
		}
	}
	return true
}
