package data

import (
	"fmt"

	"github.com/l1jgo/aisenses/internal/senses"
)

// ParseBodyFlags maps scenario flag names to body flags.
func ParseBodyFlags(names []string) (senses.BodyFlags, error) {
	var f senses.BodyFlags
	for _, n := range names {
		switch n {
		case "notarget":
			f |= senses.FlagNoTarget
		case "wait_till_seen":
			f |= senses.FlagWaitTillSeen
		case "sensed":
			f |= senses.FlagSensed
		default:
			return 0, fmt.Errorf("unknown body flag %q", n)
		}
	}
	return f, nil
}

// ParseSensingFlags maps scenario flag names to agent sensing flags.
func ParseSensingFlags(names []string) (senses.Flags, error) {
	var f senses.Flags
	for _, n := range names {
		switch n {
		case "dont_look":
			f |= senses.DontLook
		case "dont_listen":
			f |= senses.DontListen
		default:
			return 0, fmt.Errorf("unknown sensing flag %q", n)
		}
	}
	return f, nil
}
