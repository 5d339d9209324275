package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Variant is one member of an ensemble: its own simulator (metrics are
// stateful, so simulators are not shared) and its own initial state.
type Variant struct {
	Name string
	Sim  *Simulator
	X0   *dynamo.State
}

type Ensemble struct {
	limit int
}

// NewEnsemble runs at most limit variants at once. A limit below 1 means no
// limit.
func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

// Run executes every variant with the same config. Results are in variant
// order. The first failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, variants []Variant, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			res, err := v.Sim.Run(ctx, v.X0, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
