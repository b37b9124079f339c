package profile

import (
	"fmt"
	"strings"

	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/entitlement"
)

// Profile is the subset of a member profile that discovery reads and indexes.
type Profile struct {
	ID               string
	Username         string
	Age              int
	Region           string
	AvatarURL        string
	Gender           string
	GenderPreference string
	SubscriptionTier string
	TopicTags        []string
	AnswerText       string
	SelectedTags     []string
}

// Validate checks the fields required to index a profile.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("username is required for profile %q", p.ID)
	}
	if p.Age < criteria.MinAge || p.Age > criteria.MaxAge {
		return fmt.Errorf("age %d of profile %q is outside %d..%d", p.Age, p.ID, criteria.MinAge, criteria.MaxAge)
	}
	return nil
}

// Requester returns the identity discovery needs to compile a search for this member.
func (p *Profile) Requester() Requester {
	return Requester{
		ID:               p.ID,
		Tier:             entitlement.Normalize(p.SubscriptionTier),
		Gender:           strings.TrimSpace(p.Gender),
		GenderPreference: strings.TrimSpace(p.GenderPreference),
	}
}

// Requester is the member issuing a search. It is passed explicitly to every
// stage that needs it; nothing in discovery looks up the current user itself.
type Requester struct {
	ID               string
	Tier             entitlement.Tier
	Gender           string
	GenderPreference string
}

// Entitlement resolves the requester's current tier.
func (r Requester) Entitlement() entitlement.Entitlement {
	return entitlement.Resolve(string(r.Tier))
}

// HasDatingPreferences reports whether gender and preference are both set.
func (r Requester) HasDatingPreferences() bool {
	return r.Gender != "" && r.GenderPreference != ""
}
