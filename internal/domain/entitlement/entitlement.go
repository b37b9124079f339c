package entitlement

import "strings"

// Tier is a stored subscription tier.
type Tier string

// Subscription tiers.
const (
	TierFree      Tier = "free"
	TierBasic     Tier = "basic"
	TierSupporter Tier = "supporter"
	TierDating    Tier = "dating"
)

// Entitlement is the feature set implied by a subscription tier.
// It is derived on every read and never persisted.
type Entitlement struct {
	CanChat           bool
	CanHaveSupporters bool
	CanBeSupporter    bool
	CanAccessDating   bool
	MaxSupportedUsers int
}

var table = map[Tier]Entitlement{
	TierFree: {},
	TierBasic: {
		CanChat:           true,
		CanHaveSupporters: true,
	},
	TierSupporter: {
		CanChat:           true,
		CanHaveSupporters: true,
		CanBeSupporter:    true,
		MaxSupportedUsers: 5,
	},
	TierDating: {
		CanChat:           true,
		CanHaveSupporters: true,
		CanAccessDating:   true,
	},
}

// Resolve maps a stored tier to its entitlement.
// Unknown or empty tiers resolve to the most restrictive entitlement.
func Resolve(tier string) Entitlement {
	return table[Normalize(tier)]
}

// Normalize trims and lowercases a stored tier value.
func Normalize(tier string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(tier)))
}

// IsKnown reports whether the tier is present in the lookup table.
func (t Tier) IsKnown() bool {
	_, ok := table[t]
	return ok
}
