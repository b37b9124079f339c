package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxClauses is the maximum number of clauses in one predicate.
const MaxClauses = 32

// Op is a comparison operator understood by the search index.
type Op string

// Supported operators.
const (
	Eq  Op = "=="
	Ne  Op = "!="
	Gte Op = ">="
	Lte Op = "<="
)

// IsValid checks if the operator is one of the supported values.
func (o Op) IsValid() bool {
	return o == Eq || o == Ne || o == Gte || o == Lte
}

// IsRange reports whether the operator compares numbers.
func (o Op) IsRange() bool { return o == Gte || o == Lte }

// Clause is a single field comparison: either a tag (in)equality or a numeric bound.
type Clause struct {
	field  string
	op     Op
	value  string
	number int
}

// NewMatch creates an exact equality clause.
func NewMatch(field, value string) (Clause, error) {
	return newTagClause(field, Eq, value)
}

// NewNotMatch creates an inequality clause.
func NewNotMatch(field, value string) (Clause, error) {
	return newTagClause(field, Ne, value)
}

func newTagClause(field string, op Op, value string) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if value == "" {
		return Clause{}, fmt.Errorf("value is required for field %q", field)
	}
	return Clause{field: field, op: op, value: value}, nil
}

// NewRange creates a numeric bound clause. op must be Gte or Lte.
func NewRange(field string, op Op, n int) (Clause, error) {
	if field == "" {
		return Clause{}, fmt.Errorf("filter field is required")
	}
	if !op.IsRange() {
		return Clause{}, fmt.Errorf("operator %q is not a range operator", op)
	}
	return Clause{field: field, op: op, number: n}, nil
}

// Field returns the field name.
func (c Clause) Field() string { return c.field }

// Op returns the operator.
func (c Clause) Op() Op { return c.op }

// Value returns the compared tag value (empty for range clauses).
func (c Clause) Value() string { return c.value }

// Number returns the numeric bound (zero for tag clauses).
func (c Clause) Number() int { return c.number }

// IsRange reports whether this is a numeric bound clause.
func (c Clause) IsRange() bool { return c.op.IsRange() }

// String renders the clause in index filter syntax.
// Numeric bounds: age_sort>=18. Tag comparisons: region:=CA, id:!=u1.
func (c Clause) String() string {
	if c.IsRange() {
		return c.field + string(c.op) + strconv.Itoa(c.number)
	}
	op := ":="
	if c.op == Ne {
		op = ":!="
	}
	return c.field + op + Quote(c.value)
}

// Predicate is an ordered conjunction of clauses.
type Predicate struct {
	clauses []Clause
}

// NewPredicate validates and creates a Predicate.
func NewPredicate(clauses ...Clause) (Predicate, error) {
	if len(clauses) > MaxClauses {
		return Predicate{}, fmt.Errorf("too many filter clauses (max %d)", MaxClauses)
	}
	for i, c := range clauses {
		if c.field == "" || !c.op.IsValid() {
			return Predicate{}, fmt.Errorf("clause %d is not initialized", i)
		}
	}
	cp := make([]Clause, len(clauses))
	copy(cp, clauses)
	return Predicate{clauses: cp}, nil
}

// Clauses returns a copy of the clauses in order.
func (p Predicate) Clauses() []Clause {
	cp := make([]Clause, len(p.clauses))
	copy(cp, p.clauses)
	return cp
}

// IsEmpty reports whether the predicate has no clauses.
func (p Predicate) IsEmpty() bool { return len(p.clauses) == 0 }

// String joins the rendered clauses with " && ".
func (p Predicate) String() string {
	parts := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}

// Quote wraps values containing filter syntax characters in backticks.
// Backticks cannot be escaped in the filter grammar and are dropped.
func Quote(v string) string {
	v = strings.ReplaceAll(v, "`", "")
	if isBareValue(v) {
		return v
	}
	return "`" + v + "`"
}

func isBareValue(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
