package candidate

import "strconv"

// Candidate is a reconciled, client-safe search result.
type Candidate struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AgeDisplay string `json:"age_display"`
	Region     string `json:"region"`
	AvatarURL  string `json:"avatar_url"`
}

// FormatAge renders an age for display. Unknown ages render empty.
func FormatAge(age int) string {
	if age <= 0 {
		return ""
	}
	return strconv.Itoa(age)
}
