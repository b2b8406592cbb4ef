package senses

import (
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/sound"
)

func emitAt(h *harness, typ sound.Type, x, y, volume float64, prio sound.Priority) sound.ID {
	return h.feed.Insert(h.world.now, sound.Emit{
		Origin:   r3.Vec{X: x, Y: y, Z: 64},
		Volume:   volume,
		Type:     typ,
		Priority: prio,
		Duration: time.Second,
	})
}

func TestListenRange(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	near := emitAt(h, sound.Combat, 100, 0, 200, sound.PriorityNormal)
	emitAt(h, sound.Combat, 1000, 0, 200, sound.PriorityNormal)
	edge := emitAt(h, sound.Danger, 0, 300, 300, sound.PriorityNormal)

	s.Listen()
	got := heardList(s)
	if !sameIDs(got, []sound.ID{edge, near}) {
		t.Errorf("heard = %v, want [%v %v]", got, edge, near)
	}
}

func TestListenHearingSensitivity(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	id := emitAt(h, sound.Combat, 150, 0, 100, sound.PriorityNormal)

	s.Listen()
	if s.HeardCount() != 0 {
		t.Fatal("heard a sound beyond its volume")
	}
	h.world.body(self).HearingSensitivity = 2
	s.Listen()
	if got := heardList(s); !sameIDs(got, []sound.ID{id}) {
		t.Errorf("heard = %v, want [%v]", got, id)
	}
}

func TestListenSkipsOwnSounds(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	h.feed.Insert(0, sound.Emit{Origin: r3.Vec{X: 10}, Volume: 500, Type: sound.Combat, Owner: self, Duration: time.Second})

	s.Listen()
	if s.HeardCount() != 0 {
		t.Error("agent heard its own sound")
	}
	snd, _ := h.feed.Get(h.feed.Insert(0, sound.Emit{Origin: r3.Vec{X: 10}, Volume: 500, Type: sound.Combat, Duration: time.Second}))
	if !s.CanHearSound(snd) {
		t.Error("CanHearSound rejected an ownerless sound in range")
	}
	if s.CanHearSound(nil) {
		t.Error("CanHearSound(nil) = true")
	}
}

func TestListenInterestMask(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	h.world.body(self).SoundInterests = sound.Danger | sound.Meat
	emitAt(h, sound.Combat, 50, 0, 500, sound.PriorityNormal)
	danger := emitAt(h, sound.Danger, 60, 0, 500, sound.PriorityNormal)
	meat := emitAt(h, sound.Meat, 70, 0, 500, sound.PriorityNormal)

	s.Listen()
	if got := heardList(s); !sameIDs(got, []sound.ID{meat, danger}) {
		t.Errorf("heard = %v, want [%v %v]", got, meat, danger)
	}

	h.world.body(self).SoundInterests = sound.None
	s.Listen()
	if s.HeardCount() != 0 {
		t.Error("agent with no interests heard something")
	}
}

func TestListenWhileWaitingTillSeen(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	h.world.body(self).Flags |= FlagWaitTillSeen
	emitAt(h, sound.Combat, 50, 0, 500, sound.PriorityNormal)

	s.Listen()
	if s.HeardCount() != 0 {
		t.Error("waiting agent heard a sound")
	}
}

func TestHeardIterationSkipsExpired(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	short := h.feed.Insert(0, sound.Emit{Origin: r3.Vec{X: 10}, Volume: 500, Type: sound.Combat, Duration: 50 * time.Millisecond})
	long := emitAt(h, sound.Combat, 20, 0, 500, sound.PriorityNormal)
	s.Listen()

	h.feed.Think(100 * time.Millisecond)
	if got := heardList(s); !sameIDs(got, []sound.ID{long}) {
		t.Errorf("heard = %v, want [%v]", got, long)
	}
	if s.HeardCount() != 2 {
		t.Errorf("HeardCount = %d, want 2 until the next Listen", s.HeardCount())
	}
	if _, ok := h.feed.Get(short); ok {
		t.Fatal("short sound did not expire")
	}
}

func TestClosestSound(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	emitAt(h, sound.Combat, 100, 0, 500, sound.PriorityNormal)
	loud := emitAt(h, sound.Danger, 150, 0, 500, sound.PriorityHigh)
	near := emitAt(h, sound.Combat, 50, 0, 500, sound.PriorityNormal)
	meat := emitAt(h, sound.Meat, 300, 0, 500, sound.PriorityHighest)
	s.Listen()

	tests := []struct {
		name     string
		scent    bool
		types    sound.Type
		priority bool
		want     sound.ID
	}{
		{"priority first", false, sound.AllSounds, true, loud},
		{"distance only", false, sound.AllSounds, false, near},
		{"type restricted", false, sound.Combat, true, near},
		{"scents", true, sound.AllScents, false, meat},
		{"no match", false, sound.BulletImpact, false, sound.NoSound},
	}
	for _, tt := range tests {
		got := s.ClosestSound(tt.scent, tt.types, tt.priority)
		var id sound.ID
		if got != nil {
			id = got.ID()
		}
		if id != tt.want {
			t.Errorf("%s: ClosestSound = %v, want %v", tt.name, id, tt.want)
		}
	}
}

func TestClosestSoundTieKeepsNewest(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	emitAt(h, sound.Combat, 0, 100, 500, sound.PriorityNormal)
	newer := emitAt(h, sound.Combat, 0, -100, 500, sound.PriorityNormal)
	s.Listen()

	got := s.ClosestSound(false, sound.AllSounds, true)
	if got == nil || got.ID() != newer {
		t.Errorf("ClosestSound = %v, want the newer sound %v", got, newer)
	}
}
