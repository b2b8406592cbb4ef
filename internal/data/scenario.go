package data

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes the initial world and a timeline of scripted changes.
type Scenario struct {
	Name      string          `yaml:"name"`
	Entities  []SpawnEntry    `yaml:"entities"`
	Occluders []OccluderEntry `yaml:"occluders"`
	Portals   []PortalPair    `yaml:"portals"`
	Events    []EventEntry    `yaml:"events"`
}

// SpawnEntry places one entity of a class.
type SpawnEntry struct {
	Name  string     `yaml:"name"`
	Class string     `yaml:"class"`
	Pos   [3]float64 `yaml:"pos"`
	Yaw   float64    `yaml:"yaw"` // degrees
	Dead  bool       `yaml:"dead"`
	Flags []string   `yaml:"flags"` // notarget, wait_till_seen
}

// OccluderEntry is an axis-aligned box; Owner names an entity it belongs to.
type OccluderEntry struct {
	Min   [3]float64 `yaml:"min"`
	Max   [3]float64 `yaml:"max"`
	Owner string     `yaml:"owner"`
}

// PortalEnd is one side of a portal pair.
type PortalEnd struct {
	Name string     `yaml:"name"`
	Pos  [3]float64 `yaml:"pos"`
	Yaw  float64    `yaml:"yaw"` // degrees
}

type PortalPair struct {
	A PortalEnd `yaml:"a"`
	B PortalEnd `yaml:"b"`
}

// SoundEntry describes a sound emitted by an event.
type SoundEntry struct {
	Types    []string      `yaml:"types"`
	Volume   float64       `yaml:"volume"`
	Priority int           `yaml:"priority"`
	Duration time.Duration `yaml:"duration"`
	Channel  int           `yaml:"channel"`
}

// Event actions.
const (
	ActionMove     = "move"
	ActionTurn     = "turn"
	ActionKill     = "kill"
	ActionDespawn  = "despawn"
	ActionSpawn    = "spawn"
	ActionSound    = "sound"
	ActionFlag     = "flag"
	ActionUnflag   = "unflag"
	ActionSense    = "sense" // sensing flags: dont_look, dont_listen
	ActionUnsense  = "unsense"
	ActionLookDist = "look_dist"
)

var knownActions = []string{
	ActionMove, ActionTurn, ActionKill, ActionDespawn, ActionSpawn, ActionSound,
	ActionFlag, ActionUnflag, ActionSense, ActionUnsense, ActionLookDist,
}

// EventEntry is one timeline step, applied at the first tick whose simulated
// time reaches At.
type EventEntry struct {
	At     time.Duration `yaml:"at"`
	Action string        `yaml:"action"`
	Target string        `yaml:"target"`
	Pos    [3]float64    `yaml:"pos"`
	Yaw    float64       `yaml:"yaw"`
	Value  float64       `yaml:"value"`
	Flags  []string      `yaml:"flags"`
	Spawn  *SpawnEntry   `yaml:"spawn"`
	Sound  *SoundEntry   `yaml:"sound"`
}

// LoadScenario loads a scenario file and checks it against classes.
func LoadScenario(path string, classes *ClassTable) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw, classes)
}

// ParseScenario parses a scenario and sorts its events by time. Events at
// the same time keep file order.
func ParseScenario(raw []byte, classes *ClassTable) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	names := make(map[string]bool)
	for i, e := range s.Entities {
		if err := checkSpawn(e, classes, names); err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
	}
	for i, ev := range s.Events {
		if !slices.Contains(knownActions, ev.Action) {
			return nil, fmt.Errorf("event %d: unknown action %q", i, ev.Action)
		}
		switch ev.Action {
		case ActionSpawn:
			if ev.Spawn == nil {
				return nil, fmt.Errorf("event %d: spawn without spawn entry", i)
			}
			if err := checkSpawn(*ev.Spawn, classes, names); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		case ActionSound:
			if ev.Sound == nil {
				return nil, fmt.Errorf("event %d: sound without sound entry", i)
			}
			if _, err := ParseSoundMask(ev.Sound.Types); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		case ActionFlag, ActionUnflag:
			if _, err := ParseBodyFlags(ev.Flags); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		case ActionSense, ActionUnsense:
			if _, err := ParseSensingFlags(ev.Flags); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		if ev.Target == "" && ev.Action != ActionSpawn && ev.Action != ActionSound {
			return nil, fmt.Errorf("event %d: %s needs a target", i, ev.Action)
		}
	}
	slices.SortStableFunc(s.Events, func(a, b EventEntry) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return &s, nil
}

func checkSpawn(e SpawnEntry, classes *ClassTable, names map[string]bool) error {
	if classes != nil && classes.Get(e.Class) == nil {
		return fmt.Errorf("unknown class %q", e.Class)
	}
	if _, err := ParseBodyFlags(e.Flags); err != nil {
		return err
	}
	if e.Name != "" {
		if names[e.Name] {
			return fmt.Errorf("duplicate name %q", e.Name)
		}
		names[e.Name] = true
	}
	return nil
}
