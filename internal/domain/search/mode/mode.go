package mode

import "strings"

// Mode is the discovery flow a search runs in.
type Mode string

// Discovery modes.
const (
	// Friend searches across all members.
	Friend Mode = "friend"
	// Dating restricts candidates to dating subscribers matching the requester's preference.
	Dating Mode = "dating"
)

// Parse converts a path or config value into a Mode.
func Parse(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.IsValid()
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Friend || m == Dating
}

// Surface is the client surface a search is issued from.
type Surface string

// Client surfaces.
const (
	Mobile Surface = "mobile"
	Web    Surface = "web"
)

// Result limits per surface. Mobile is bandwidth constrained.
const (
	MobileLimit = 20
	WebLimit    = 50
)

// Limit returns the fixed result limit for the surface. Unknown surfaces get the mobile limit.
func (s Surface) Limit() int {
	if s == Web {
		return WebLimit
	}
	return MobileLimit
}
