package senses

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/l1jgo/aisenses/internal/core/ecs"
	"github.com/l1jgo/aisenses/internal/sound"
)

func TestLookSeesOnlyInsideCone(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	ahead := h.world.spawn(KindPlayer, 100, 0)
	behind := h.world.spawn(KindPlayer, -100, 0)
	side := h.world.spawn(KindPlayer, 0, 100)

	s.Look(s.LookDist())

	got := seenList(s, SeenHighPriority)
	if !sameIDs(got, []ecs.EntityID{ahead}) {
		t.Fatalf("seen = %v, want [%v]", got, ahead)
	}
	if s.DidSeeEntity(behind) || s.DidSeeEntity(side) {
		t.Error("entity outside the view cone was seen")
	}
}

func TestLookRespectsOcclusion(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	p := h.world.spawn(KindPlayer, 100, 0)
	h.tracer.block(self, p)

	s.Look(s.LookDist())
	if s.DidSeeEntity(p) {
		t.Error("occluded player was seen")
	}
	if s.CanSeeEntity(p) {
		t.Error("CanSeeEntity ignores the tracer")
	}
}

func TestShouldSeeRules(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	ok := h.world.spawn(KindPlayer, 100, 0)
	hidden := h.world.spawn(KindPlayer, 100, 10)
	h.world.body(hidden).Flags |= FlagNoTarget
	corpse := h.world.spawn(KindNPC, 100, -10)
	h.world.body(corpse).Alive = false
	waiting := h.world.spawn(KindNPC, 120, 0)
	h.world.body(waiting).Flags |= FlagWaitTillSeen
	far := h.world.spawn(KindPlayer, 5000, 0)

	tests := []struct {
		name string
		id   ecs.EntityID
		want bool
	}{
		{"plain", ok, true},
		{"self", self, false},
		{"notarget", hidden, false},
		{"dead", corpse, false},
		{"waiting to be seen", waiting, false},
		{"beyond look distance", far, false},
		{"unresolved", ecs.NewEntityID(999, 3), false},
	}
	for _, tt := range tests {
		if got := s.ShouldSeeEntity(tt.id); got != tt.want {
			t.Errorf("%s: ShouldSeeEntity = %v, want %v", tt.name, got, tt.want)
		}
	}
}

type denyClass struct{ class string }

func (d denyClass) QuerySeeEntity(_, target Body) bool     { return target.Class != d.class }
func (d denyClass) QueryHearSound(Body, *sound.Sound) bool { return true }

func TestFilterVetoesSight(t *testing.T) {
	h := newHarness(t)
	h.deps.Filter = denyClass{class: "ghost"}
	_, s := h.agent()
	ghost := h.world.spawn(KindPlayer, 100, 0)
	h.world.body(ghost).Class = "ghost"
	human := h.world.spawn(KindPlayer, 100, 5)

	s.Look(s.LookDist())
	if s.DidSeeEntity(ghost) {
		t.Error("filtered entity was seen")
	}
	if !s.DidSeeEntity(human) {
		t.Error("unfiltered entity was not seen")
	}
}

func TestLookDistance(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	near := h.world.spawn(KindPlayer, 400, 0)
	far := h.world.spawn(KindPlayer, 600, 0)

	s.SetLookDist(500)
	s.PerformSensing()

	if !s.DidSeeEntity(near) || s.DidSeeEntity(far) {
		t.Errorf("seen = %v, want only %v", seenList(s, SeenAll), near)
	}
}

func TestLookUsesRequestedDistance(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	far := h.world.spawn(KindPlayer, 800, 0)

	s.SetLookDist(500)
	s.Look(1000)
	if !s.DidSeeEntity(far) {
		t.Errorf("Look(1000) missed a player at 800: seen = %v", seenList(s, SeenAll))
	}
	if s.ShouldSeeEntity(far) {
		t.Error("ShouldSeeEntity ignored the configured look distance")
	}
}

func TestThrottledRescan(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	p := h.world.spawn(KindPlayer, 100, 0)

	h.at(0)
	s.Look(s.LookDist())
	if !s.DidSeeEntity(p) {
		t.Fatal("player not seen on first look")
	}

	h.world.place(p, -100, 0)
	h.at(100 * time.Millisecond)
	s.Look(s.LookDist())
	if !s.DidSeeEntity(p) {
		t.Error("high priority list rescanned before its interval")
	}

	h.at(151 * time.Millisecond)
	s.Look(s.LookDist())
	if s.DidSeeEntity(p) {
		t.Error("high priority list not rescanned after its interval")
	}
	if got := s.LastScan(SeenHighPriority); got != 151*time.Millisecond {
		t.Errorf("LastScan = %v, want 151ms", got)
	}
}

func TestLookSameTickIsNoop(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	s.Look(s.LookDist())

	p := h.world.spawn(KindPlayer, 100, 0)
	s.Reset()
	s.Look(s.LookDist())
	if !s.DidSeeEntity(p) {
		t.Fatal("Reset did not clear the same-tick guard")
	}

	q := h.world.spawn(KindPlayer, 100, 20)
	for _, c := range Categories {
		s.lastScan[c] = Never
	}
	s.Look(s.LookDist())
	if s.DidSeeEntity(q) {
		t.Error("second Look at the same time and distance rescanned")
	}
	s.Look(s.LookDist() - 1)
	if !s.DidSeeEntity(q) {
		t.Error("Look with a new distance did not rescan")
	}
}

func TestEfficiencyThrottlesNPCs(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	npc := h.world.spawn(KindNPC, 100, 0)

	h.world.body(self).Efficiency = EfficiencyEfficient
	s.Look(s.LookDist())
	if !s.DidSeeEntity(npc) {
		t.Fatal("efficient agent did not see npc")
	}
	h.world.place(npc, -100, 0)
	h.at(300 * time.Millisecond)
	s.Look(s.LookDist())
	if !s.DidSeeEntity(npc) {
		t.Error("npc list rescanned before the efficient interval")
	}
	h.at(351 * time.Millisecond)
	s.Look(s.LookDist())
	if s.DidSeeEntity(npc) {
		t.Error("npc list not rescanned after the efficient interval")
	}

	h.world.place(npc, 100, 0)
	h.world.body(self).Efficiency = EfficiencyVeryEfficient
	s.Reset()
	s.Look(s.LookDist())
	if s.DidSeeEntity(npc) || s.LastScan(SeenNPCs) != Never {
		t.Error("very efficient agent scanned npcs")
	}
}

func TestIterationOrderAndFilter(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	bot := h.world.spawn(KindNextBot, 100, 30)
	obj := h.object(100, 20)
	npc := h.world.spawn(KindNPC, 100, 10)
	p1 := h.world.spawn(KindPlayer, 100, 0)
	p2 := h.world.spawn(KindPlayer, 100, -10)

	s.Look(s.LookDist())

	want := []ecs.EntityID{p1, p2, npc, obj, bot}
	if got := seenList(s, SeenAll); !sameIDs(got, want) {
		t.Fatalf("SeenAll = %v, want %v", got, want)
	}
	if got := seenList(s, SeenMisc); !sameIDs(got, []ecs.EntityID{obj}) {
		t.Errorf("SeenMisc = %v, want [%v]", got, obj)
	}
	if got := seenList(s, SeenType(9)); len(got) != 0 {
		t.Errorf("invalid filter yielded %v", got)
	}
	if n := s.SeenCount(SeenAll); n != 5 {
		t.Errorf("SeenCount(all) = %d, want 5", n)
	}
}

func TestIterationSkipsDeadTargets(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	a := h.world.spawn(KindPlayer, 100, 0)
	b := h.world.spawn(KindPlayer, 100, 10)
	s.Look(s.LookDist())

	h.world.kill(a)
	if got := seenList(s, SeenAll); !sameIDs(got, []ecs.EntityID{b}) {
		t.Errorf("seen = %v, want [%v]", got, b)
	}
	if s.DidSeeEntity(a) {
		t.Error("DidSeeEntity true for destroyed entity")
	}
	if s.SeenCount(SeenHighPriority) != 2 {
		t.Error("stale entry pruned without a rescan")
	}
}

func TestExhaustedIterStaysExhausted(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	h.world.spawn(KindPlayer, 100, 0)
	s.Look(s.LookDist())

	var it SightIter
	s.FirstSeenEntity(&it, SeenHighPriority)
	if id := s.NextSeenEntity(&it); !id.IsZero() {
		t.Fatalf("second entity %v, want none", id)
	}
	h.world.spawn(KindPlayer, 100, 10)
	h.at(time.Second)
	s.Look(s.LookDist())
	if id := s.NextSeenEntity(&it); !id.IsZero() {
		t.Errorf("exhausted iterator returned %v", id)
	}
	var zero SightIter
	if id := s.NextSeenEntity(&zero); !id.IsZero() {
		t.Errorf("zero iterator returned %v", id)
	}
}

func TestDisabledCategoryStaysEmpty(t *testing.T) {
	h := newHarness(t)
	h.deps.Schedule.Enable(SeenNextBots, false)
	_, s := h.agent()
	h.world.spawn(KindNextBot, 100, 0)
	s.Look(s.LookDist())
	if n := s.SeenCount(SeenNextBots); n != 0 {
		t.Errorf("disabled category has %d entries", n)
	}
}

func TestWaitTillSeen(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	h.world.body(self).Flags |= FlagWaitTillSeen
	npc := h.world.spawn(KindNPC, 100, 0)
	player := h.world.spawn(KindPlayer, -100, 0)
	h.world.body(player).Facing = r3.Vec{X: -1}

	s.PerformSensing()
	if n := s.SeenCount(SeenAll); n != 0 {
		t.Fatalf("waiting agent saw %d entities", n)
	}
	if !h.world.body(self).Has(FlagWaitTillSeen) {
		t.Fatal("flag cleared without a player looking")
	}

	h.world.body(player).Facing = r3.Vec{X: 1}
	h.at(300 * time.Millisecond)
	s.PerformSensing()
	if h.world.body(self).Has(FlagWaitTillSeen) {
		t.Fatal("flag not cleared after the player looked")
	}
	if !s.DidSeeEntity(npc) {
		t.Error("npc not seen in the same pass that cleared the flag")
	}
	if s.DidSeeEntity(player) {
		t.Error("player behind the agent was seen")
	}
}

func TestTimeLastUpdate(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	p := h.world.spawn(KindPlayer, 100, 0)
	npc := h.world.spawn(KindNPC, 100, 10)
	obj := h.object(100, 20)

	if got := s.TimeLastUpdate(p); got != Never {
		t.Errorf("before any look = %v, want Never", got)
	}
	s.Look(s.LookDist())
	h.at(200 * time.Millisecond)
	s.Look(s.LookDist())

	tests := []struct {
		id   ecs.EntityID
		want time.Duration
	}{
		{p, 200 * time.Millisecond},
		{npc, 0},
		{obj, 0},
		{ecs.NewEntityID(777, 1), 0},
	}
	for _, tt := range tests {
		if got := s.TimeLastUpdate(tt.id); got != tt.want {
			t.Errorf("TimeLastUpdate(%v) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSensingFlags(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	p := h.world.spawn(KindPlayer, 100, 0)

	s.AddSensingFlags(DontLook)
	if !s.HasSensingFlags(DontLook) || s.HasSensingFlags(DontLook|DontListen) {
		t.Fatal("HasSensingFlags must require every bit")
	}
	s.PerformSensing()
	if s.DidSeeEntity(p) {
		t.Error("looked with DontLook set")
	}
	s.RemoveSensingFlags(DontLook)
	s.PerformSensing()
	if !s.DidSeeEntity(p) {
		t.Error("did not look after DontLook was removed")
	}
}

func TestDontListenClearsHeardSounds(t *testing.T) {
	h := newHarness(t)
	_, s := h.agent()
	emitAt(h, sound.Combat, 100, 0, 500, sound.PriorityNormal)

	s.PerformSensing()
	if s.HeardCount() != 1 {
		t.Fatalf("HeardCount = %d, want 1", s.HeardCount())
	}

	s.AddSensingFlags(DontListen)
	h.at(500 * time.Millisecond)
	s.PerformSensing()
	if got := heardList(s); len(got) != 0 {
		t.Errorf("still hearing %v with DontListen set", got)
	}
	if snd := s.ClosestSound(false, sound.AllSounds, true); snd != nil {
		t.Errorf("ClosestSound = %v with DontListen set", snd.ID())
	}

	s.RemoveSensingFlags(DontListen)
	h.at(600 * time.Millisecond)
	s.PerformSensing()
	if s.HeardCount() != 1 {
		t.Errorf("HeardCount = %d after DontListen was removed, want 1", s.HeardCount())
	}
}

func TestSnapshotRestore(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	p := h.world.spawn(KindPlayer, 100, 0)
	s.SetLookDist(900)
	s.Look(s.LookDist())

	snap := s.Snapshot()
	other := New(self, h.deps)
	other.Restore(snap)

	if other.LookDist() != 900 || !other.DidSeeEntity(p) {
		t.Fatalf("restore lost state: dist=%v seen=%v", other.LookDist(), seenList(other, SeenAll))
	}
	if other.LastScan(SeenHighPriority) != 0 {
		t.Errorf("LastScan = %v, want 0", other.LastScan(SeenHighPriority))
	}

	snap.Seen[SeenHighPriority][0] = ecs.NoEntity
	if !s.DidSeeEntity(p) {
		t.Error("snapshot aliases the live list")
	}

	h.world.kill(p)
	if got := seenList(other, SeenAll); len(got) != 0 {
		t.Errorf("restored stale entry yielded %v", got)
	}
}

func TestSeeThroughPortal(t *testing.T) {
	h := newHarness(t)
	self, s := h.agent()
	target := h.world.spawn(KindPlayer, 0, 1300)

	entry := &Portal{ID: ecs.NewEntityID(500, 0), Origin: r3.Vec{X: 200, Z: 64}, Yaw: math.Pi, Active: true}
	exit := &Portal{ID: ecs.NewEntityID(501, 0), Origin: r3.Vec{Y: 1000, Z: 64}, Yaw: math.Pi / 2, Active: true}
	entry.Linked, exit.Linked = exit, entry

	if !s.CanSeeEntityThroughPortal(target, entry) {
		t.Fatal("target in front of the exit not seen through the portal")
	}
	if s.CanSeeEntity(target) {
		t.Error("target visible directly; the test geometry is wrong")
	}

	h.world.place(target, 0, 700)
	if s.CanSeeEntityThroughPortal(target, entry) {
		t.Error("target behind the exit portal was seen")
	}
	h.world.place(target, 0, 1300)

	h.tracer.block(self, entry.ID)
	if s.CanSeeEntityThroughPortal(target, entry) {
		t.Error("seen through an occluded portal")
	}
	delete(h.tracer.blocked, [2]ecs.EntityID{self, entry.ID})

	exit.Active = false
	if s.CanSeeEntityThroughPortal(target, entry) {
		t.Error("seen through an inactive pair")
	}
	exit.Active = true

	h.world.place(self, 300, 0)
	if s.CanSeeEntityThroughPortal(target, entry) {
		t.Error("seen through the back of the portal")
	}
}
