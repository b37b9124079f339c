package chi

import (
	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/candidate"
	"github.com/selfadvocacy/discovery/internal/domain/criteria"
	"github.com/selfadvocacy/discovery/internal/domain/outcome"
)

// CriteriaRequest is the body of search and criteria updates. Ages arrive as
// raw field input and are corrected the way the age fields are on blur.
type CriteriaRequest struct {
	MinAge   string   `json:"min_age"`
	MaxAge   string   `json:"max_age"`
	Region   string   `json:"region"`
	FreeText string   `json:"free_text"`
	Tags     []string `json:"tags"`
}

func (r CriteriaRequest) toCriteria() criteria.Criteria {
	ages := criteria.NewAgeRange(criteria.ParseMin(r.MinAge), criteria.ParseMax(r.MaxAge))
	return criteria.New(ages, r.Region, r.FreeText, r.Tags)
}

// CriteriaResponse echoes the normalized criteria.
type CriteriaResponse struct {
	MinAge   int      `json:"min_age"`
	MaxAge   int      `json:"max_age"`
	Region   string   `json:"region"`
	FreeText string   `json:"free_text,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// FailureResponse describes a Failed outcome.
type FailureResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// OutcomeResponse is the session state returned by every discovery route.
type OutcomeResponse struct {
	Mode       string                `json:"mode"`
	State      string                `json:"state"`
	Candidates []candidate.Candidate `json:"candidates"`
	Page       int                   `json:"page,omitempty"`
	Exhausted  bool                  `json:"exhausted"`
	Reason     string                `json:"reason,omitempty"`
	Failure    *FailureResponse      `json:"failure,omitempty"`
	Criteria   CriteriaResponse      `json:"criteria"`
}

func outcomeToResponse(m string, o outcome.Outcome, c criteria.Criteria) OutcomeResponse {
	cs := o.Candidates()
	if cs == nil {
		cs = []candidate.Candidate{}
	}

	resp := OutcomeResponse{
		Mode:       m,
		State:      string(o.State()),
		Candidates: cs,
		Page:       o.Page(),
		Exhausted:  o.Exhausted(),
		Reason:     string(o.Reason()),
		Criteria: CriteriaResponse{
			MinAge:   c.Ages().Min(),
			MaxAge:   c.Ages().Max(),
			Region:   c.Region(),
			FreeText: c.FreeText(),
			Tags:     c.Tags(),
		},
	}
	if err := o.Err(); err != nil {
		resp.Failure = &FailureResponse{
			Kind:    domain.FailureKind(err),
			Message: safeDomainMessage(err),
		}
	}
	return resp
}
