// Package batch runs work in fixed-size batches: every item of a batch runs
// concurrently and the next batch starts only when the previous one is done.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Progress is reported after each completed batch.
type Progress struct {
	Batch   int // 1-based index of the batch just finished
	Batches int
	Done    int
	Total   int
}

// Scheduler configures Run.
type Scheduler struct {
	// Size is the batch size and thus the concurrency bound. Values below 1
	// run items one at a time.
	Size int
	// Progress, if set, receives a report after each batch. Sends never
	// block; reports are dropped when nobody is reading.
	Progress chan<- Progress
}

// Run applies fn to every item and returns the results in input order. fn
// must not fail; soft failures belong in R. When ctx is cancelled no further
// batch is started, items of the current batch that have not started yet are
// skipped, and only the results of fully finished batches are returned.
func Run[T, R any](ctx context.Context, s Scheduler, items []T, fn func(context.Context, T) R) []R {
	size := s.Size
	if size < 1 {
		size = 1
	}
	total := len(items)
	batches := (total + size - 1) / size
	results := make([]R, total)

	done := 0
	for b := 0; b < batches; b++ {
		if ctx.Err() != nil {
			break
		}
		start, end := b*size, min((b+1)*size, total)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				// items not yet started when ctx ends are skipped
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = fn(gctx, items[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			break
		}

		done = end
		s.report(Progress{Batch: b + 1, Batches: batches, Done: done, Total: total})
	}
	return results[:done]
}

func (s Scheduler) report(p Progress) {
	if s.Progress == nil {
		return
	}
	select {
	case s.Progress <- p:
	default:
	}
}
