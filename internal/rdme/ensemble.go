package rdme

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent replicate realizations of one model. The model,
// topology and initial state are shared read-only; every realization owns
// its state copy, intensity table, trajectory and random stream, so
// replicates are embarrassingly parallel.
type Ensemble struct {
	Model *Model
	Init  *State
	Times []float64

	// Realizations is the number of replicates; Seed derives per-replicate
	// streams as Seed+k for realization k.
	Realizations int
	Seed         int64

	// Workers bounds concurrent realizations; 0 means GOMAXPROCS.
	Workers int

	Opts []Option

	// OptsFor, when set, supplies extra options for realization k, on top of
	// Opts. Used to attach per-realization progress sinks.
	OptsFor func(k int) []Option
}

// Run executes the replicates and returns their trajectories in realization
// order. The first fatal fault cancels the remaining work and is returned;
// trajectories of already-finished realizations are still valid.
func (e *Ensemble) Run(ctx context.Context) ([]*Trajectory, error) {
	if e.Realizations <= 0 {
		return nil, fmt.Errorf("ensemble: need at least one realization, got %d", e.Realizations)
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]*Trajectory, e.Realizations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for k := 0; k < e.Realizations; k++ {
		k := k
		g.Go(func() error {
			opts := e.Opts
			if e.OptsFor != nil {
				opts = append(append([]Option(nil), e.Opts...), e.OptsFor(k)...)
			}
			traj, err := Simulate(gctx, e.Model, e.Init, e.Times, e.Seed+int64(k), opts...)
			out[k] = traj
			if err != nil {
				return fmt.Errorf("realization %d: %w", k, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
