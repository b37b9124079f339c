package discovery

import (
	"context"
	"fmt"

	"github.com/selfadvocacy/discovery/internal/domain/candidate"
	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/outcome"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
)

// profileAdapter wraps the public ProfileStore to satisfy the engine's profile reader.
type profileAdapter struct {
	inner ProfileStore
}

func (a *profileAdapter) Get(ctx context.Context, id string) (profile.Profile, error) {
	p, err := a.inner.Profile(ctx, id)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("profile store: %w", err)
	}
	return toDomainProfile(p), nil
}

func (a *profileAdapter) Ping(ctx context.Context) error {
	if p, ok := a.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx) //nolint:wrapcheck // caller-provided health check
	}
	return nil
}

func toDomainProfile(p Profile) profile.Profile {
	return profile.Profile{
		ID:               p.ID,
		Username:         p.Username,
		Age:              p.Age,
		Region:           p.Region,
		AvatarURL:        p.AvatarURL,
		Gender:           p.Gender,
		GenderPreference: p.GenderPreference,
		SubscriptionTier: p.SubscriptionTier,
		TopicTags:        p.TopicTags,
		AnswerText:       p.AnswerText,
		SelectedTags:     p.SelectedTags,
	}
}

func toDomainCriteria(c Criteria) criteria.Criteria {
	return criteria.New(criteria.NewAgeRange(c.MinAge, c.MaxAge), c.Region, c.FreeText, c.Tags)
}

func fromDomainCriteria(c criteria.Criteria) Criteria {
	return Criteria{
		MinAge:   c.Ages().Min(),
		MaxAge:   c.Ages().Max(),
		Region:   c.Region(),
		FreeText: c.FreeText(),
		Tags:     c.Tags(),
	}
}

func fromDomainOutcome(o outcome.Outcome) Outcome {
	return Outcome{
		State:      State(o.State()),
		Candidates: fromDomainCandidates(o.Candidates()),
		Page:       o.Page(),
		Exhausted:  o.Exhausted(),
		Reason:     EmptyReason(o.Reason()),
		Err:        o.Err(),
	}
}

func fromDomainCandidates(cs []candidate.Candidate) []Candidate {
	if cs == nil {
		return nil
	}
	out := make([]Candidate, len(cs))
	for i, c := range cs {
		out[i] = Candidate(c)
	}
	return out
}
