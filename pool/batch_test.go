package pool_test

import (
	"context"
	"slices"
	"testing"

	"github.com/paraproc/paraproc/pool"

	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	t.Parallel()

	// size 2 gives a batch size of ceil(100/2/10) = 5, so 20 ranges
	p := pool.New(pool.Config{Size: 2})

	ranges := slices.Collect(p.Batches(100))
	require.Len(t, ranges, 20)
	require.Equal(t, pool.Range{Start: 0, End: 5}, ranges[0])
	require.Equal(t, pool.Range{Start: 95, End: 100}, ranges[19])

	covered := 0
	for _, r := range ranges {
		covered += r.Len()
	}
	require.Equal(t, 100, covered)

	// the sequence is recomputed per iteration
	require.Equal(t, ranges, slices.Collect(p.Batches(100)))
}

func TestBatchesOf(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario    string
		total, size int
		then        []pool.Range
	}{
		{"uneven tail", 7, 3, []pool.Range{{Start: 0, End: 3}, {Start: 3, End: 6}, {Start: 6, End: 7}}},
		{"empty", 0, 3, nil},
		{"size clamped to one", 2, 0, []pool.Range{{Start: 0, End: 1}, {Start: 1, End: 2}}},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.then, slices.Collect(pool.BatchesOf(tt.total, tt.size)))
		})
	}
}

func TestMapBatches(t *testing.T) {
	t.Parallel()

	p := pool.New(pool.Config{Size: 4})
	sums, err := pool.MapBatches(t.Context(), p, 100, func(_ context.Context, r pool.Range) (int, error) {
		s := 0
		for k := r.Start; k < r.End; k++ {
			s += k
		}
		return s, nil
	})
	require.NoError(t, err)

	total := 0
	for _, s := range sums {
		total += s
	}
	require.Equal(t, 4950, total)
}
