package world

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/senses"
)

// PortalEnd places one end of a portal pair.
type PortalEnd struct {
	Name   string
	Origin r3.Vec
	Yaw    float64
}

// LinkPortals creates two linked, active portals. Each end gets an entity so
// that traces through it can ignore its own frame.
func (s *State) LinkPortals(a, b PortalEnd) (*senses.Portal, *senses.Portal, error) {
	for _, end := range []PortalEnd{a, b} {
		if end.Name == "" {
			return nil, nil, fmt.Errorf("link portals: unnamed end")
		}
		if _, dup := s.portals[end.Name]; dup {
			return nil, nil, fmt.Errorf("link portals: duplicate name %q", end.Name)
		}
	}
	pa := &senses.Portal{ID: s.ecs.CreateEntity(), Origin: a.Origin, Yaw: a.Yaw, Active: true}
	pb := &senses.Portal{ID: s.ecs.CreateEntity(), Origin: b.Origin, Yaw: b.Yaw, Active: true}
	pa.Linked, pb.Linked = pb, pa
	s.portals[a.Name] = pa
	s.portals[b.Name] = pb
	return pa, pb, nil
}

// Portal returns the portal end registered under name.
func (s *State) Portal(name string) (*senses.Portal, bool) {
	p, ok := s.portals[name]
	return p, ok
}

// EachPortal visits every portal end in name order.
func (s *State) EachPortal(fn func(name string, p *senses.Portal)) {
	names := make([]string, 0, len(s.portals))
	for name := range s.portals {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fn(name, s.portals[name])
	}
}
