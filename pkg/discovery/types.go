package discovery

import "context"

// Mode is the discovery flow.
type Mode string

// Discovery modes.
const (
	ModeFriend Mode = "friend"
	ModeDating Mode = "dating"
)

// Surface selects the page size: 20 results on mobile, 50 on web.
type Surface string

// Client surfaces.
const (
	SurfaceMobile Surface = "mobile"
	SurfaceWeb    Surface = "web"
)

// State is the lifecycle state of a session's results.
type State string

// Session states.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

// Profile is a member profile as the caller's store returns it.
type Profile struct {
	ID               string
	Username         string
	Age              int
	Region           string
	AvatarURL        string
	Gender           string
	GenderPreference string
	SubscriptionTier string // free, basic, supporter, dating
	TopicTags        []string
	AnswerText       string
	SelectedTags     []string
}

// ProfileStore loads requester profiles. Missing profiles must be reported
// with an error wrapping ErrProfileNotFound.
type ProfileStore interface {
	Profile(ctx context.Context, id string) (Profile, error)
}

// Criteria are the search inputs. Zero ages mean the full 18..99 range and
// an empty region means any region. Free text takes precedence over tags.
type Criteria struct {
	MinAge   int
	MaxAge   int
	Region   string
	FreeText string
	Tags     []string
}

// Candidate is a search result safe to show to the requester.
type Candidate struct {
	ID         string
	Username   string
	AgeDisplay string
	Region     string
	AvatarURL  string
}

// EmptyReason says why a search settled with no candidates.
type EmptyReason string

// ReasonNoCriteriaMatch means nobody besides the requester matched the criteria.
const ReasonNoCriteriaMatch EmptyReason = "no_criteria_match"

// Outcome is the current result set of a session.
type Outcome struct {
	State      State
	Candidates []Candidate
	Page       int
	Exhausted  bool
	Reason     EmptyReason // set when State is StateEmpty
	Err        error       // set when State is StateFailed
}
