package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/aisenses/internal/senses"
	"github.com/l1jgo/aisenses/internal/sound"
)

// ClassTemplate holds the static sensing data of an entity class.
type ClassTemplate struct {
	Name               string   `yaml:"name"`
	Kind               string   `yaml:"kind"` // player, npc, nextbot, object
	EyeHeight          float64  `yaml:"eye_height"`
	FOVDegrees         float64  `yaml:"fov"` // full cone angle; 360 sees all around
	HearingSensitivity float64  `yaml:"hearing_sensitivity"`
	SoundInterests     []string `yaml:"sound_interests"`
	Efficiency         string   `yaml:"efficiency"` // normal, efficient, very_efficient, super_efficient, dormant
	Sensed             bool     `yaml:"sensed"`     // objects: eligible for the sensed-object registry
	Agent              bool     `yaml:"agent"`      // gets its own Senses
	LookDistance       float64  `yaml:"look_distance"`
	WaitTillSeen       bool     `yaml:"wait_till_seen"`

	// resolved at load time
	kind       senses.Kind
	interests  sound.Type
	efficiency senses.Efficiency
}

func (c *ClassTemplate) SenseKind() senses.Kind             { return c.kind }
func (c *ClassTemplate) Interests() sound.Type              { return c.interests }
func (c *ClassTemplate) EfficiencyLevel() senses.Efficiency { return c.efficiency }

// FieldOfView returns the cosine of the half cone angle, the form the sight
// pipeline compares against.
func (c *ClassTemplate) FieldOfView() float64 {
	if c.FOVDegrees >= 360 {
		return -1
	}
	return math.Cos(c.FOVDegrees / 2 * math.Pi / 180)
}

type classListFile struct {
	Classes []ClassTemplate `yaml:"classes"`
}

// ClassTable holds all class templates indexed by name.
type ClassTable struct {
	classes map[string]*ClassTemplate
	order   []string
}

// LoadClassTable loads class templates from a YAML file.
func LoadClassTable(path string) (*ClassTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class list: %w", err)
	}
	return ParseClassTable(raw)
}

// ParseClassTable parses class templates from YAML.
func ParseClassTable(raw []byte) (*ClassTable, error) {
	var f classListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse class list: %w", err)
	}
	t := &ClassTable{classes: make(map[string]*ClassTemplate, len(f.Classes))}
	for i := range f.Classes {
		c := &f.Classes[i]
		if c.Name == "" {
			return nil, fmt.Errorf("class %d: missing name", i)
		}
		if _, dup := t.classes[c.Name]; dup {
			return nil, fmt.Errorf("class %s: defined twice", c.Name)
		}
		if err := c.resolve(); err != nil {
			return nil, fmt.Errorf("class %s: %w", c.Name, err)
		}
		t.classes[c.Name] = c
		t.order = append(t.order, c.Name)
	}
	return t, nil
}

func (c *ClassTemplate) resolve() error {
	switch c.Kind {
	case "player":
		c.kind = senses.KindPlayer
	case "npc":
		c.kind = senses.KindNPC
	case "nextbot":
		c.kind = senses.KindNextBot
	case "object", "":
		c.kind = senses.KindObject
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}

	switch c.Efficiency {
	case "normal", "":
		c.efficiency = senses.EfficiencyNormal
	case "efficient":
		c.efficiency = senses.EfficiencyEfficient
	case "very_efficient":
		c.efficiency = senses.EfficiencyVeryEfficient
	case "super_efficient":
		c.efficiency = senses.EfficiencySuperEfficient
	case "dormant":
		c.efficiency = senses.EfficiencyDormant
	default:
		return fmt.Errorf("unknown efficiency %q", c.Efficiency)
	}

	mask, err := ParseSoundMask(c.SoundInterests)
	if err != nil {
		return err
	}
	c.interests = mask

	if c.FOVDegrees == 0 {
		c.FOVDegrees = 120
	}
	if c.HearingSensitivity == 0 {
		c.HearingSensitivity = 1
	}
	if c.EyeHeight == 0 && c.kind != senses.KindObject {
		c.EyeHeight = 64
	}
	return nil
}

// ParseSoundMask ORs together the named sound types.
func ParseSoundMask(names []string) (sound.Type, error) {
	var mask sound.Type
	for _, n := range names {
		t, ok := sound.ParseType(n)
		if !ok {
			return sound.None, fmt.Errorf("unknown sound type %q", n)
		}
		mask |= t
	}
	return mask, nil
}

// Get returns the template for name, or nil.
func (t *ClassTable) Get(name string) *ClassTemplate {
	return t.classes[name]
}

// Count returns the number of classes loaded.
func (t *ClassTable) Count() int {
	return len(t.classes)
}

// Names returns class names in file order.
func (t *ClassTable) Names() []string {
	return append([]string(nil), t.order...)
}
