package eventcondition

import (
	"fmt"
	"io"

	"github.com/san-kum/astroprop/internal/dynamo"
)

type logical struct {
	name     string
	children []Condition
}

func newLogical(name string, children []Condition) (logical, error) {
	if len(children) == 0 {
		return logical{}, ErrEmptyConditions
	}
	for i, c := range children {
		if c == nil {
			return logical{}, fmt.Errorf("condition %d: %w", i, ErrNilCondition)
		}
	}
	return logical{name: name, children: append([]Condition(nil), children...)}, nil
}

func (l *logical) Name() string        { return l.name }
func (l *logical) SetName(name string) { l.name = name }

func (l *logical) Conditions() []Condition {
	return append([]Condition(nil), l.children...)
}

// EvaluateAll reports every child's result without short-circuiting.
func (l *logical) EvaluateAll(current dynamo.State, currentTime float64, previous dynamo.State, previousTime float64) []bool {
	results := make([]bool, len(l.children))
	for i, c := range l.children {
		results[i] = c.IsSatisfied(current, currentTime, previous, previousTime)
	}
	return results
}

func (l *logical) print(w io.Writer, title string, decorated bool) {
	dynamo.PrintHeader(w, title, decorated)
	dynamo.PrintLine(w, "Name", l.name)
	dynamo.PrintLine(w, "Conditions", len(l.children))
	for _, c := range l.children {
		c.Print(w, false)
	}
	dynamo.PrintFooter(w, decorated)
}

// Conjunctive is satisfied when every child is.
type Conjunctive struct {
	logical
}

func NewConjunctive(children ...Condition) (*Conjunctive, error) {
	l, err := newLogical("Conjunctive condition", children)
	if err != nil {
		return nil, err
	}
	return &Conjunctive{logical: l}, nil
}

func (c *Conjunctive) IsSatisfied(current dynamo.State, currentTime float64, previous dynamo.State, previousTime float64) bool {
	for _, child := range c.children {
		if !child.IsSatisfied(current, currentTime, previous, previousTime) {
			return false
		}
	}
	return true
}

func (c *Conjunctive) Print(w io.Writer, decorated bool) {
	c.print(w, "Conjunctive Condition", decorated)
}

// Disjunctive is satisfied when any child is.
type Disjunctive struct {
	logical
}

func NewDisjunctive(children ...Condition) (*Disjunctive, error) {
	l, err := newLogical("Disjunctive condition", children)
	if err != nil {
		return nil, err
	}
	return &Disjunctive{logical: l}, nil
}

func (d *Disjunctive) IsSatisfied(current dynamo.State, currentTime float64, previous dynamo.State, previousTime float64) bool {
	for _, child := range d.children {
		if child.IsSatisfied(current, currentTime, previous, previousTime) {
			return true
		}
	}
	return false
}

func (d *Disjunctive) Print(w io.Writer, decorated bool) {
	d.print(w, "Disjunctive Condition", decorated)
}
