package dynamics

import (
	"io"
	"time"

	"github.com/san-kum/astroprop/internal/dynamo"
)

// PositionDerivative maps velocity onto the position rows: d(r)/dt = v.
type PositionDerivative struct {
	named
}

func NewPositionDerivative(opts ...Option) *PositionDerivative {
	return &PositionDerivative{named: newNamed("Position Derivative", opts)}
}

func (p *PositionDerivative) IsDefined() bool { return true }

func (p *PositionDerivative) ApplyContribution(x, dxdt dynamo.State, _ time.Time) error {
	if err := checkCartesian(x, dxdt); err != nil {
		return err
	}
	dxdt[0] += x[3]
	dxdt[1] += x[4]
	dxdt[2] += x[5]
	return nil
}

func (p *PositionDerivative) Print(w io.Writer, decorated bool) {
	dynamo.PrintHeader(w, "Position Derivative Dynamics", decorated)
	dynamo.PrintLine(w, "Name", p.Name())
	dynamo.PrintLine(w, "Defined", p.IsDefined())
	dynamo.PrintFooter(w, decorated)
}
