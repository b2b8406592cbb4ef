package senses

// SeenType selects a sight category. SeenAll is only valid as an iteration
// filter.
type SeenType int

const (
	SeenAll          SeenType = -1
	SeenHighPriority SeenType = 0
	SeenNPCs         SeenType = 1
	SeenMisc         SeenType = 2
	SeenNextBots     SeenType = 3
)

// NumCategories is the number of sight lists each agent keeps.
const NumCategories = 4

// Categories is the fixed priority order used for scanning and for
// iterating SeenAll.
var Categories = [NumCategories]SeenType{
	SeenHighPriority,
	SeenNPCs,
	SeenMisc,
	SeenNextBots,
}

func (c SeenType) valid() bool { return c >= 0 && c < NumCategories }

func (c SeenType) String() string {
	switch c {
	case SeenAll:
		return "all"
	case SeenHighPriority:
		return "high_priority"
	case SeenNPCs:
		return "npcs"
	case SeenMisc:
		return "misc"
	case SeenNextBots:
		return "nextbots"
	}
	return "invalid"
}

// ParseSeenType maps a config or script name back to a category.
func ParseSeenType(name string) (SeenType, bool) {
	for _, c := range append([]SeenType{SeenAll}, Categories[:]...) {
		if c.String() == name {
			return c, true
		}
	}
	return SeenAll, false
}

// categoryOf maps an entity kind to the category it is scanned under.
func categoryOf(k Kind) SeenType {
	switch k {
	case KindPlayer:
		return SeenHighPriority
	case KindNPC:
		return SeenNPCs
	case KindNextBot:
		return SeenNextBots
	}
	return SeenMisc
}

// kindOf is the inverse of categoryOf.
func kindOf(c SeenType) Kind {
	switch c {
	case SeenHighPriority:
		return KindPlayer
	case SeenNPCs:
		return KindNPC
	case SeenNextBots:
		return KindNextBot
	}
	return KindObject
}
