// Package sound keeps the world's short-lived list of sounds and scents that
// agents can hear or smell.
package sound

import "strings"

// Type is a bitmask of sound kinds plus optional context bits.
type Type uint32

const (
	None             Type = 0
	Combat           Type = 1 << 0
	World            Type = 1 << 1
	Player           Type = 1 << 2
	Danger           Type = 1 << 3
	BulletImpact     Type = 1 << 4
	Carcass          Type = 1 << 5
	Meat             Type = 1 << 6
	Garbage          Type = 1 << 7
	Thumper          Type = 1 << 8
	Bugbait          Type = 1 << 9
	PhysicsDanger    Type = 1 << 10
	DangerSniperOnly Type = 1 << 11
	MoveAway         Type = 1 << 12
	PlayerVehicle    Type = 1 << 13
	ReadinessLow     Type = 1 << 14
	ReadinessMedium  Type = 1 << 15
	ReadinessHigh    Type = 1 << 16
)

// Context bits qualify a sound without changing its kind.
const (
	ContextFromSniper     Type = 0x00100000
	ContextGunfire        Type = 0x00200000
	ContextMortar         Type = 0x00400000
	ContextCombineOnly    Type = 0x00800000
	ContextReactToSource  Type = 0x01000000
	ContextExplosion      Type = 0x02000000
	ContextExcludeCombine Type = 0x04000000
	ContextDangerApproach Type = 0x08000000
	ContextAlliesOnly     Type = 0x10000000
	ContextPlayerVehicle  Type = 0x20000000

	AllContexts Type = 0xFFF00000
)

const (
	AllScents = Carcass | Meat | Garbage
	AllSounds = (^AllContexts) &^ AllScents
)

// NoContext strips the context bits.
func (t Type) NoContext() Type { return t &^ AllContexts }

// Is reports whether t shares any kind bit with mask.
func (t Type) Is(mask Type) bool { return t&mask != 0 }

// IsScent reports whether the context-free type is one of the scent kinds.
func (t Type) IsScent() bool {
	switch t.NoContext() {
	case Carcass, Meat, Garbage:
		return true
	}
	return false
}

// IsSound reports whether the context-free type is one of the audible kinds.
func (t Type) IsSound() bool {
	switch t.NoContext() {
	case Combat, World, Player, Danger, DangerSniperOnly, Thumper,
		BulletImpact, Bugbait, PhysicsDanger, MoveAway, PlayerVehicle:
		return true
	}
	return false
}

var typeNames = []struct {
	t    Type
	name string
}{
	{Combat, "combat"},
	{World, "world"},
	{Player, "player"},
	{Danger, "danger"},
	{BulletImpact, "bullet_impact"},
	{Carcass, "carcass"},
	{Meat, "meat"},
	{Garbage, "garbage"},
	{Thumper, "thumper"},
	{Bugbait, "bugbait"},
	{PhysicsDanger, "physics_danger"},
	{DangerSniperOnly, "danger_sniper_only"},
	{MoveAway, "move_away"},
	{PlayerVehicle, "player_vehicle"},
	{ReadinessLow, "readiness_low"},
	{ReadinessMedium, "readiness_medium"},
	{ReadinessHigh, "readiness_high"},
}

// ParseType maps a data-file name ("danger", "all_scents", ...) to its bits.
func ParseType(name string) (Type, bool) {
	switch name {
	case "all_sounds":
		return AllSounds, true
	case "all_scents":
		return AllScents, true
	case "none":
		return None, true
	}
	for _, tn := range typeNames {
		if tn.name == name {
			return tn.t, true
		}
	}
	return None, false
}

func (t Type) String() string {
	if t.NoContext() == None {
		return "none"
	}
	var parts []string
	for _, tn := range typeNames {
		if t&tn.t != 0 {
			parts = append(parts, tn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Priority orders sounds when an agent picks the one to react to.
type Priority int

const (
	PriorityVeryLow  Priority = -2
	PriorityLow      Priority = -1
	PriorityNormal   Priority = 0
	PriorityHigh     Priority = 1
	PriorityVeryHigh Priority = 2
	PriorityHighest  Priority = 3
)
