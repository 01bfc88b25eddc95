package providers

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches_PullsUntilLast(t *testing.T) {
	calls := 0
	next := func(_ context.Context, n int) ([]int, bool, error) {
		calls++
		return []int{n * 10, n*10 + 1}, n == 2, nil
	}

	got := slices.Collect(Batches(context.Background(), next, nil))

	assert.Equal(t, []int{0, 1, 10, 11, 20, 21}, got)
	assert.Equal(t, 3, calls)
}

func TestBatches_EarlyStopFetchesNoMore(t *testing.T) {
	calls := 0
	next := func(_ context.Context, n int) ([]int, bool, error) {
		calls++
		return []int{n}, false, nil
	}

	var got []int
	for v := range Batches(context.Background(), next, nil) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}

	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 3, calls)
}

func TestBatches_IsRestartable(t *testing.T) {
	calls := 0
	next := func(_ context.Context, _ int) ([]string, bool, error) {
		calls++
		return []string{"a", "b"}, true, nil
	}

	seq := Batches(context.Background(), next, nil)

	assert.Equal(t, []string{"a", "b"}, slices.Collect(seq))
	assert.Equal(t, []string{"a", "b"}, slices.Collect(seq))
	assert.Equal(t, 2, calls)
}

func TestBatches_StopsOnErrorAndReportsIt(t *testing.T) {
	boom := errors.New("boom")
	next := func(_ context.Context, n int) ([]int, bool, error) {
		if n == 1 {
			return nil, false, boom
		}
		return []int{n}, false, nil
	}

	var reported error
	got := slices.Collect(Batches(context.Background(), next, func(err error) { reported = err }))

	assert.Equal(t, []int{0}, got)
	require.ErrorIs(t, reported, boom)
}

func TestBatches_CancelledContextYieldsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next := func(_ context.Context, n int) ([]int, bool, error) {
		t.Fatal("batch fetched after cancel")
		return nil, true, nil
	}

	assert.Empty(t, slices.Collect(Batches(ctx, next, nil)))
}

func TestPageOf(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name       string
		page, size int
		want       []int
	}{
		{"first page", 1, 2, []int{1, 2}},
		{"middle page", 2, 2, []int{3, 4}},
		{"short last page", 3, 2, []int{5}},
		{"past the end", 4, 2, []int{}},
		{"page zero", 0, 2, []int{}},
		{"size zero", 1, 0, []int{}},
		{"huge page", math.MaxInt, 2, []int{}},
		{"huge page and size", math.MaxInt/2 + 2, 2, []int{}},
		{"huge size", 1, math.MaxInt, []int{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageOf(all, tt.page, tt.size))
		})
	}
}

func TestPageOf_ConcatenationMatchesPrefix(t *testing.T) {
	all := make([]int, 47)
	for i := range all {
		all[i] = i
	}

	var joined []int
	for page := 1; page <= 2; page++ {
		joined = append(joined, PageOf(all, page, 20)...)
	}

	assert.Equal(t, all[:40], joined)
}
