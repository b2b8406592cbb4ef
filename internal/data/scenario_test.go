package data

import (
	"path/filepath"
	"testing"
	"time"
)

const testClasses = `
classes:
  - name: player
    kind: player
  - name: npc_guard
    kind: npc
    agent: true
  - name: prop_crate
    sensed: true
`

func testTable(t *testing.T) *ClassTable {
	t.Helper()
	tab, err := ParseClassTable([]byte(testClasses))
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestParseScenarioSortsEvents(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: t
entities:
  - {name: guard, class: npc_guard}
  - {name: p, class: player, pos: [500, 0, 0], yaw: 180}
events:
  - {at: 2s, action: kill, target: p}
  - {at: 500ms, action: move, target: p, pos: [100, 0, 0]}
  - {at: 500ms, action: turn, target: p, yaw: 90}
  - {at: 1s, action: sound, pos: [0, 0, 0], sound: {types: [combat], volume: 300, duration: 1s}}
`), testTable(t))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if len(sc.Entities) != 2 || sc.Entities[1].Pos[0] != 500 {
		t.Fatalf("entities = %+v", sc.Entities)
	}
	want := []string{ActionMove, ActionTurn, ActionSound, ActionKill}
	for i, ev := range sc.Events {
		if ev.Action != want[i] {
			t.Errorf("event %d = %s, want %s", i, ev.Action, want[i])
		}
	}
	if sc.Events[2].Sound.Duration != time.Second {
		t.Errorf("sound duration = %v", sc.Events[2].Sound.Duration)
	}
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown class", "entities:\n  - {name: a, class: dragon}"},
		{"duplicate name", "entities:\n  - {name: a, class: player}\n  - {name: a, class: player}"},
		{"unknown action", "events:\n  - {at: 1s, action: dance, target: a}"},
		{"missing target", "events:\n  - {at: 1s, action: kill}"},
		{"spawn without entry", "events:\n  - {at: 1s, action: spawn}"},
		{"sound without entry", "events:\n  - {at: 1s, action: sound}"},
		{"bad sound type", "events:\n  - {at: 1s, action: sound, sound: {types: [hum]}}"},
		{"bad body flag", "entities:\n  - {name: a, class: player, flags: [ghost]}"},
		{"bad sensing flag", "events:\n  - {at: 1s, action: sense, target: a, flags: [dont_think]}"},
		{"spawn duplicates entity", "entities:\n  - {name: a, class: player}\nevents:\n  - {at: 1s, action: spawn, spawn: {name: a, class: player}}"},
	}
	tab := testTable(t)
	for _, tt := range tests {
		if _, err := ParseScenario([]byte(tt.yaml), tab); err == nil {
			t.Errorf("%s: accepted", tt.name)
		}
	}
}

func TestShippedScenario(t *testing.T) {
	dir := filepath.Join("..", "..", "data", "yaml")
	tab, err := LoadClassTable(filepath.Join(dir, "classes.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(filepath.Join(dir, "scenario.yaml"), tab)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if len(sc.Entities) == 0 || len(sc.Occluders) == 0 || len(sc.Portals) == 0 {
		t.Errorf("shipped scenario is missing sections: %d entities, %d occluders, %d portals",
			len(sc.Entities), len(sc.Occluders), len(sc.Portals))
	}
	for i := 1; i < len(sc.Events); i++ {
		if sc.Events[i].At < sc.Events[i-1].At {
			t.Fatalf("events out of order at %d", i)
		}
	}
}
