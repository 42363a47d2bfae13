package eventcondition

import (
	"fmt"
	"strings"
)

// Criteria classifies a monitored value, already offset by its target,
// against zero.
type Criteria int

const (
	Undefined Criteria = iota
	PositiveCrossing
	NegativeCrossing
	AnyCrossing
	StrictlyPositive
	StrictlyNegative
)

var criteriaNames = [...]string{
	Undefined:        "Undefined",
	PositiveCrossing: "Positive Crossing",
	NegativeCrossing: "Negative Crossing",
	AnyCrossing:      "Any Crossing",
	StrictlyPositive: "Strictly Positive",
	StrictlyNegative: "Strictly Negative",
}

func (c Criteria) String() string {
	if c < 0 || int(c) >= len(criteriaNames) {
		return fmt.Sprintf("Criteria(%d)", int(c))
	}
	return criteriaNames[c]
}

// ParseCriteria accepts the display names as well as their compact
// CamelCase and kebab-case forms, case-insensitively.
func ParseCriteria(s string) (Criteria, error) {
	key := normalize(s)
	for c, name := range criteriaNames {
		if normalize(name) == key {
			return Criteria(c), nil
		}
	}
	return Undefined, fmt.Errorf("unknown criteria: %q", s)
}

func normalize(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}

func (c Criteria) MarshalText() ([]byte, error) {
	return []byte(strings.ReplaceAll(c.String(), " ", "")), nil
}

func (c *Criteria) UnmarshalText(text []byte) error {
	parsed, err := ParseCriteria(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Criteria) IsDefined() bool {
	return c > Undefined && int(c) < len(criteriaNames)
}

// IsCrossing reports whether the criteria compares two samples.
func (c Criteria) IsCrossing() bool {
	return c == PositiveCrossing || c == NegativeCrossing || c == AnyCrossing
}

// IsSatisfied applies the criteria. Zero on the previous sample counts as
// the non-strict side of a crossing.
func (c Criteria) IsSatisfied(current, previous float64) bool {
	switch c {
	case PositiveCrossing:
		return previous <= 0 && current > 0
	case NegativeCrossing:
		return previous >= 0 && current < 0
	case AnyCrossing:
		return (previous <= 0 && current > 0) || (previous >= 0 && current < 0)
	case StrictlyPositive:
		return current > 0
	case StrictlyNegative:
		return current < 0
	default:
		return false
	}
}
