// Package integrators implements single-step schemes for dynamo.System.
// Steppers hold no per-call state and draw scratch buffers from a shared
// pool, so one value may be used from several goroutines.
package integrators

import "github.com/san-kum/astroprop/internal/dynamo"

var scratch = dynamo.NewStatePool()

func checkDim(sys dynamo.System, x dynamo.State) error {
	if len(x) != sys.StateDim() {
		return dynamo.ErrDimensionMismatch
	}
	return nil
}
