package criteria

import (
	"slices"
	"strconv"
	"strings"
)

// Age bounds accepted by discovery.
const (
	MinAge = 18
	MaxAge = 99
)

// AnyRegion is the sentinel meaning "no region constraint".
const AnyRegion = "ANY"

// AgeRange is an inclusive age window with MinAge <= Min <= Max <= MaxAge.
type AgeRange struct {
	min int
	max int
}

// NewAgeRange clamps both bounds into range and pulls min down to max when they cross.
func NewAgeRange(lo, hi int) AgeRange {
	if lo < MinAge || lo > MaxAge {
		lo = MinAge
	}
	if hi < MinAge || hi > MaxAge {
		hi = MaxAge
	}
	if lo > hi {
		lo = hi
	}
	return AgeRange{min: lo, max: hi}
}

// FullAgeRange returns 18..99.
func FullAgeRange() AgeRange { return AgeRange{min: MinAge, max: MaxAge} }

// ParseMin corrects raw min-age input the way the field does on blur:
// empty, non-numeric and out-of-range input reverts to MinAge.
func ParseMin(raw string) int {
	return parseBound(raw, MinAge)
}

// ParseMax corrects raw max-age input on blur, reverting to MaxAge.
func ParseMax(raw string) int {
	return parseBound(raw, MaxAge)
}

func parseBound(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < MinAge || n > MaxAge {
		return fallback
	}
	return n
}

// Min returns the lower bound.
func (r AgeRange) Min() int {
	if r == (AgeRange{}) {
		return MinAge
	}
	return r.min
}

// Max returns the upper bound.
func (r AgeRange) Max() int {
	if r == (AgeRange{}) {
		return MaxAge
	}
	return r.max
}

// Criteria is the validated set of search inputs for one discovery session.
type Criteria struct {
	ages     AgeRange
	region   string
	freeText string
	tags     []string
}

// New normalizes search inputs. Region defaults to AnyRegion, free text is
// trimmed, and tags are trimmed, de-duplicated and sorted.
func New(ages AgeRange, region, freeText string, tags []string) Criteria {
	region = strings.TrimSpace(region)
	if region == "" || strings.EqualFold(region, AnyRegion) {
		region = AnyRegion
	}

	var clean []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		clean = append(clean, t)
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)

	return Criteria{
		ages:     ages,
		region:   region,
		freeText: strings.TrimSpace(freeText),
		tags:     clean,
	}
}

// Default returns the unconstrained browse criteria.
func Default() Criteria {
	return New(FullAgeRange(), AnyRegion, "", nil)
}

// Ages returns the age window.
func (c Criteria) Ages() AgeRange { return c.ages }

// Region returns the region filter or AnyRegion.
func (c Criteria) Region() string {
	if c.region == "" {
		return AnyRegion
	}
	return c.region
}

// HasRegion reports whether a concrete region constrains the search.
func (c Criteria) HasRegion() bool { return c.Region() != AnyRegion }

// FreeText returns the trimmed free-text query.
func (c Criteria) FreeText() string { return c.freeText }

// Tags returns a copy of the selected descriptor tags in sorted order.
func (c Criteria) Tags() []string { return slices.Clone(c.tags) }

// SearchMode reports which term source wins. Free text takes precedence over tags.
func (c Criteria) SearchMode() TermMode {
	switch {
	case c.freeText != "":
		return TermFreeText
	case len(c.tags) > 0:
		return TermTags
	default:
		return TermBrowse
	}
}

// TermMode identifies where the search term comes from.
type TermMode string

// Term modes.
const (
	TermFreeText TermMode = "free_text"
	TermTags     TermMode = "tags"
	TermBrowse   TermMode = "browse"
)
