package pool

import (
	"context"
	"iter"

	"github.com/paraproc/paraproc/internal/parallel"
)

// Range is a half-open interval of item indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Batches yields consecutive index ranges covering total items, sized so
// that roughly ten ranges are produced per pool slot. It groups many
// small items into fewer, larger callable jobs. The sequence is
// recomputed on every iteration, so it can be ranged over repeatedly.
func (p *Pool) Batches(total int) iter.Seq[Range] {
	return BatchesOf(total, (total+p.size*10-1)/(p.size*10))
}

// BatchesOf yields consecutive ranges of size items covering total.
func BatchesOf(total, size int) iter.Seq[Range] {
	if size < 1 {
		size = 1
	}
	return func(yield func(Range) bool) {
		for k := 0; k < total; k += size {
			if !yield(Range{Start: k, End: min(k+size, total)}) {
				return
			}
		}
	}
}

// MapBatches runs fn over Batches(total) with the pool's concurrency
// limit and returns one result per range, ordered by range position. It
// is a lighter alternative to RunFunc+Wait for many small computations
// that need no per-job bookkeeping.
func MapBatches[D any](ctx context.Context, p *Pool, total int, fn func(context.Context, Range) (D, error)) ([]D, error) {
	m := parallel.NewMap(ctx, p.size, fn)
	return m.Collect(p.Batches(total))
}
