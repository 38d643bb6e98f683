package parallel_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"testing/synctest"
	"time"

	"github.com/paraproc/paraproc/internal/parallel"

	"github.com/stretchr/testify/require"
)

func TestMapKeepsInputOrder(t *testing.T) {
	t.Parallel()

	// deliberately decreasing durations, so completion order is the
	// reverse of submission order
	input := []time.Duration{300 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}
	f := func(_ context.Context, d time.Duration) (time.Duration, error) {
		time.Sleep(d)
		return d, nil
	}

	synctest.Test(t, func(t *testing.T) {
		m := parallel.NewMap(t.Context(), len(input), f)
		got, err := m.Collect(slices.Values(input))
		require.NoError(t, err)
		require.Equal(t, input, got)
	})
}

func TestMapLimit(t *testing.T) {
	t.Parallel()

	f := func(_ context.Context, d time.Duration) (int, error) {
		time.Sleep(d)
		return int(d), nil
	}

	input := []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}

	var testCases = []struct {
		scenario string
		limit    int
		then     time.Duration
	}{
		{"limit 1", 1, 18 * time.Second},
		{"limit 10", 10, 10 * time.Second},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			synctest.Test(t, func(t *testing.T) {
				start := time.Now()
				m := parallel.NewMap(t.Context(), tt.limit, f)
				_, err := m.Collect(slices.Values(input))
				require.NoError(t, err)
				require.Equal(t, tt.then, time.Since(start))
			})
		})
	}
}

func TestMapJoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	f := func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, boom
		}
		return n * n, nil
	}

	m := parallel.NewMap(t.Context(), 2, f)
	got, err := m.Collect(counting(4))
	require.ErrorIs(t, err, boom)
	require.Len(t, got, 4)
	require.Equal(t, 0, got[0])
	require.Equal(t, 4, got[2])
}

func counting(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for k := range n {
			if !yield(k) {
				return
			}
		}
	}
}
