// Package dynamics holds the force models contributing to a Cartesian
// state derivative and the composer that sums them into one ODE system.
package dynamics

import (
	"io"
	"strings"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// Dynamics is one additive term of the state derivative. ApplyContribution
// adds into dxdt and leaves it untouched when it fails. Implementations are
// read-only during evaluation and may be shared across goroutines; SetName
// must not be called while a propagation uses the value.
type Dynamics interface {
	Name() string
	SetName(name string)
	IsDefined() bool
	ApplyContribution(x, dxdt dynamo.State, at time.Time) error
	Print(w io.Writer, decorated bool)
}

type Option func(*named)

// WithName overrides the default name of a dynamics.
func WithName(name string) Option {
	return func(n *named) { n.name = name }
}

type named struct {
	name string
}

func (n *named) Name() string        { return n.name }
func (n *named) SetName(name string) { n.name = name }

func newNamed(def string, opts []Option) named {
	n := named{name: def}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Describe renders d.Print into a string.
func Describe(d Dynamics, decorated bool) string {
	var sb strings.Builder
	d.Print(&sb, decorated)
	return sb.String()
}

func checkCartesian(x, dxdt dynamo.State) error {
	if !x.IsCartesian() || len(dxdt) != len(x) {
		return dynamo.ErrDimensionMismatch
	}
	return nil
}

func addVelocityDerivative(dxdt dynamo.State, ax, ay, az float64) {
	dxdt[3] += ax
	dxdt[4] += ay
	dxdt[5] += az
}
