package senses

import "github.com/l1jgo/aisenses/internal/core/ecs"

// SightIter is a cursor over an agent's sight lists. Lists may be replaced
// by a rescan while a cursor is open; the cursor then continues at the same
// position in the new list. The zero value is exhausted.
type SightIter struct {
	cat    int // position in Categories, -1 once exhausted
	next   int
	filter SeenType
	open   bool
}

// FirstSeenEntity starts it over the category named by filter, or over every
// category in priority order for SeenAll, and returns the first entity that
// still resolves.
func (s *Senses) FirstSeenEntity(it *SightIter, filter SeenType) ecs.EntityID {
	*it = SightIter{filter: filter, open: true}
	switch {
	case filter == SeenAll:
		it.cat = 0
	case filter.valid():
		it.cat = int(filter)
	default:
		it.cat = -1
	}
	return s.NextSeenEntity(it)
}

// NextSeenEntity advances it, skipping entities that no longer resolve.
// Returns NoEntity when the cursor is exhausted. A filtered cursor never
// crosses into another category.
func (s *Senses) NextSeenEntity(it *SightIter) ecs.EntityID {
	if !it.open {
		return ecs.NoEntity
	}
	for it.cat >= 0 && it.cat < NumCategories {
		list := s.seen[Categories[it.cat]]
		for it.next < len(list) {
			id := list[it.next]
			it.next++
			if s.deps.World.Alive(id) {
				return id
			}
		}
		if it.filter != SeenAll {
			break
		}
		it.cat++
		it.next = 0
	}
	it.cat = -1
	it.open = false
	return ecs.NoEntity
}

// DidSeeEntity reports whether id is on any sight list and still resolves.
func (s *Senses) DidSeeEntity(id ecs.EntityID) bool {
	if id.IsZero() || !s.deps.World.Alive(id) {
		return false
	}
	for _, list := range s.seen {
		for _, seen := range list {
			if seen == id {
				return true
			}
		}
	}
	return false
}

// SeenCount is the number of list entries in category c, stale ones included.
func (s *Senses) SeenCount(c SeenType) int {
	if c == SeenAll {
		n := 0
		for _, list := range s.seen {
			n += len(list)
		}
		return n
	}
	if !c.valid() {
		return 0
	}
	return len(s.seen[c])
}
