// Package runner drives data-parallel accumulation: each partition of the
// input stream is folded into its own accumulator by a worker, and the
// partial accumulators are reduced into one. Because the merge operator is
// associative and commutative, the result is independent of the number of
// partitions, worker scheduling and merge order.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/lexika/pkg/lexika/accum"
)

// Observation is one (token, weight, label) tuple from the input stream.
type Observation struct {
	Token    string
	Weight   float64
	Label    int64
	HasLabel bool
}

// Runner executes partitioned accumulation with bounded parallelism.
type Runner struct {
	parallelism int
}

// New creates a runner. Parallelism below 1 is treated as 1.
func New(parallelism int) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{parallelism: parallelism}
}

// Run folds every partition into its own accumulator concurrently and merges
// the partials into a single accumulator. Partitions may be replayed by the
// caller after a failure; accumulation has no side effects until the merged
// result is consumed.
func (r *Runner) Run(ctx context.Context, partitions [][]Observation) (*accum.Accumulator, error) {
	partials := make([]*accum.Accumulator, len(partitions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a := accum.New()
			for _, obs := range part {
				if obs.HasLabel {
					a.ObserveLabeled(obs.Token, obs.Weight, obs.Label)
				} else {
					a.Observe(obs.Token, obs.Weight)
				}
			}
			partials[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := accum.New()
	for _, p := range partials {
		merged.Merge(p)
	}
	return merged, nil
}

// Partition splits observations into n roughly equal chunks, preserving
// order within each chunk.
func Partition(observations []Observation, n int) [][]Observation {
	if n < 1 {
		n = 1
	}
	if n > len(observations) && len(observations) > 0 {
		n = len(observations)
	}
	parts := make([][]Observation, 0, n)
	if len(observations) == 0 {
		return parts
	}
	size := (len(observations) + n - 1) / n
	for start := 0; start < len(observations); start += size {
		end := start + size
		if end > len(observations) {
			end = len(observations)
		}
		parts = append(parts, observations[start:end])
	}
	return parts
}
