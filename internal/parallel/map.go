// Package parallel provides a bounded parallel map which preserves the
// input order of its results.
package parallel

import (
	"context"
	"errors"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"
)

type result[D any] struct {
	idx int
	d   D
	e   error
}

// Map runs mapFunc over an input sequence with at most limit concurrent
// workers. Results are collected in input order regardless of completion
// order. Map is context aware, so a canceled context ends the processing.
type Map[E, D any] struct {
	parentCtx    context.Context
	cancelParent context.CancelFunc
	g            *errgroup.Group
	gctx         context.Context
	mapped       chan result[D]
	mapFunc      func(context.Context, E) (D, error)
}

func NewMap[E, D any](parentCtx context.Context, limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	parentCtx, cancelParent := context.WithCancel(parentCtx)
	g, gctx := errgroup.WithContext(parentCtx)
	g.SetLimit(limit + 1)

	mapped := make(chan result[D], limit)

	return &Map[E, D]{
		parentCtx:    parentCtx,
		cancelParent: cancelParent,
		g:            g,
		gctx:         gctx,
		mapped:       mapped,
		mapFunc:      mapFunc,
	}
}

func (s *Map[E, D]) goWorkers(seq iter.Seq[E]) {
	s.g.Go(func() error {
		idx := 0
		for entry := range seq {
			i := idx
			idx++
			s.g.Go(func() error {
				d, mapErr := s.mapFunc(s.gctx, entry)
				select {
				case <-s.gctx.Done():
					return s.gctx.Err()
				default:
					s.mapped <- result[D]{idx: i, d: d, e: mapErr}
				}
				return nil
			})
		}
		return nil
	})
}

// Collect runs the workers over seq and returns one result per input in
// input order, together with the joined worker errors if any.
func (s *Map[E, D]) Collect(seq iter.Seq[E]) ([]D, error) {
	defer s.cancelParent()
	s.goWorkers(seq)

	go func() {
		_ = s.g.Wait()
		close(s.mapped)
	}()

	var collected []result[D]
	var errs []error
	for r := range s.mapped {
		if s.parentCtx.Err() != nil {
			return nil, s.parentCtx.Err()
		}
		if r.e != nil {
			errs = append(errs, r.e)
		}
		collected = append(collected, r)
	}

	slices.SortFunc(collected, func(a, b result[D]) int { return a.idx - b.idx })
	out := make([]D, 0, len(collected))
	for _, r := range collected {
		out = append(out, r.d)
	}
	return out, errors.Join(errs...)
}
