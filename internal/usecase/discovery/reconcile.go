package discovery

import (
	"github.com/selfadvocacy/discovery/internal/domain/candidate"
	"github.com/selfadvocacy/discovery/internal/domain/outcome"
	"github.com/selfadvocacy/discovery/internal/domain/search/hit"
)

// Reconcile maps hits to candidates in index order, dropping the requester
// and repeated ids (first occurrence wins). An empty list carries
// outcome.NoCriteriaMatch. Pure: the same input always yields the same output.
func Reconcile(hits []hit.Hit, requesterID string) ([]candidate.Candidate, outcome.EmptyReason) {
	cs := appendCandidates(nil, hits, requesterID)
	if len(cs) == 0 {
		return nil, outcome.NoCriteriaMatch
	}
	return cs, ""
}

// appendCandidates reconciles hits onto an existing list, skipping ids already present.
func appendCandidates(existing []candidate.Candidate, hits []hit.Hit, requesterID string) []candidate.Candidate {
	seen := make(map[string]struct{}, len(existing)+len(hits))
	for _, c := range existing {
		seen[c.ID] = struct{}{}
	}

	out := existing
	for _, h := range hits {
		if h.ID == "" || h.ID == requesterID {
			continue
		}
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		out = append(out, toCandidate(h))
	}
	return out
}

func toCandidate(h hit.Hit) candidate.Candidate {
	return candidate.Candidate{
		ID:         h.ID,
		Username:   h.Username,
		AgeDisplay: candidate.FormatAge(h.Age),
		Region:     h.Region,
		AvatarURL:  h.AvatarURL,
	}
}
