// Package batch applies independent units of work with a partial-failure policy:
// a unit's failure is recorded and the batch goes on.
package batch

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/shule/core"
)

const DefaultWorkers = 4

// Failure describes a unit of work that could not be applied.
type Failure struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

type Report struct {
	SuccessCount int       `json:"success_count"`
	FailCount    int       `json:"fail_count"`
	SkippedCount int       `json:"skipped_count"`
	Failures     []Failure `json:"failures"`
}

func (r *Report) merge(other Report) {
	r.SuccessCount += other.SuccessCount
	r.FailCount += other.FailCount
	r.SkippedCount += other.SkippedCount
	r.Failures = append(r.Failures, other.Failures...)
}

// Merge adds the counts & failures of `other`, keeping failures ordered by key.
func (r *Report) Merge(other Report) {
	r.merge(other)
	r.sortFailures()
}

func (r *Report) sortFailures() {
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Key < r.Failures[j].Key })
}

func (r *Report) fail(key string, err error) {
	r.FailCount++
	r.Failures = append(r.Failures, Failure{Key: key, Message: err.Error(), Err: err})
}

// Fail records a unit that was rejected before reaching the workers (eg. an unresolvable plan).
func (r *Report) Fail(key string, err error) {
	r.fail(key, err)
}

// Total is the number of units the report accounts for.
func (r Report) Total() int {
	return r.SuccessCount + r.FailCount + r.SkippedCount
}

// Run applies `apply` to every item using `workers` goroutines.
// Every item is handled by exactly one worker; each worker keeps its own tally, merged once all are done.
//
// Cancelling ctx stops scheduling: in-flight items finish and the rest are counted as skipped.
// A systemic error (see core.IsSystemic) aborts the batch and is returned along with the partial report.
func Run[T any](ctx context.Context, workers int, items []T, key func(T) string, apply func(context.Context, T) error) (Report, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	var report Report
	if len(items) == 0 {
		return report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	unitCtx := context.WithoutCancel(ctx) // units already started run to completion
	queue := make(chan T)
	tallies := make([]Report, workers)

	g.Go(func() error {
		defer close(queue)
		for _, item := range items {
			select {
			case <-gctx.Done():
				return nil
			case queue <- item:
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		tally := &tallies[w]
		g.Go(func() error {
			for item := range queue {
				if gctx.Err() != nil {
					continue // drain; counted as skipped
				}
				err := apply(unitCtx, item)
				switch {
				case err == nil:
					tally.SuccessCount++
				case core.IsSystemic(err):
					return err
				default:
					tally.fail(key(item), err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	for _, tally := range tallies {
		report.merge(tally)
	}
	report.SkippedCount = len(items) - report.SuccessCount - report.FailCount
	report.sortFailures()

	if err == nil {
		err = ctx.Err()
	}
	return report, err
}
