package solver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/astroprop/internal/dynamo"
	"github.com/san-kum/astroprop/internal/eventcondition"
)

// Job is one member of an ensemble. Systems and conditions may be shared
// between jobs.
type Job struct {
	Name      string
	System    dynamo.System
	X0        dynamo.State
	T0, T1    float64
	Condition eventcondition.Condition
}

// Ensemble runs jobs concurrently on copies of a base solver. The copies
// keep the base logger, stepper and instrumentation but drop observers and
// metrics, which are not safe to share.
type Ensemble struct {
	base    *NumericalSolver
	workers int
}

// NewEnsemble bounds concurrency to workers; zero or less means GOMAXPROCS.
func NewEnsemble(base *NumericalSolver, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{base: base, workers: workers}
}

// Run returns results in job order. The first failure cancels the others.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, job := range jobs {
		g.Go(func() error {
			s := &NumericalSolver{
				stepper: e.base.stepper,
				cfg:     e.base.cfg,
				logger:  e.base.logger.With("job", job.Name),
				instr:   e.base.instr,
			}

			var err error
			if job.Condition != nil {
				results[i], err = s.PropagateToCondition(gctx, job.System, job.X0, job.T0, job.T1, job.Condition)
			} else {
				results[i], err = s.Propagate(gctx, job.System, job.X0, job.T0, job.T1)
			}
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
