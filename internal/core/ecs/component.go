package ecs

// PtrComponentStore 以 sparse set 保存某一種元件：dense 連續存放，
// slot 以完整 EntityID 為 key，所以 slot 被回收後舊 ID 查不到新主人的資料。
type PtrComponentStore[T any] struct {
	ids   []EntityID
	dense []*T
	slot  map[EntityID]int
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		ids:   make([]EntityID, 0, 256),
		dense: make([]*T, 0, 256),
		slot:  make(map[EntityID]int, 256),
	}
}

// Set stores c for id, replacing any earlier value in place.
func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	if i, ok := s.slot[id]; ok {
		s.dense[i] = c
		return
	}
	s.slot[id] = len(s.dense)
	s.ids = append(s.ids, id)
	s.dense = append(s.dense, c)
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.slot[id]
	if !ok {
		return nil, false
	}
	return s.dense[i], true
}

// Remove 把最後一筆搬進空位（swap-remove），O(1)。
func (s *PtrComponentStore[T]) Remove(id EntityID) {
	i, ok := s.slot[id]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		s.ids[i] = s.ids[last]
		s.dense[i] = s.dense[last]
		s.slot[s.ids[i]] = i
	}
	s.ids[last] = NoEntity
	s.dense[last] = nil
	s.ids = s.ids[:last]
	s.dense = s.dense[:last]
	delete(s.slot, id)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.slot[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int { return len(s.dense) }

// Each visits components in dense order: insertion order, except that a
// Remove moves the last entry into the freed position. fn must not Set or
// Remove.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for i, c := range s.dense {
		fn(s.ids[i], c)
	}
}
