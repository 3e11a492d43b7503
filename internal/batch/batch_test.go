package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestRun_PreservesOrder(t *testing.T) {
	got := Run(context.Background(), Scheduler{Size: 3}, seq(10), func(_ context.Context, i int) int {
		time.Sleep(time.Duration(10-i) * time.Millisecond)
		return i * i
	})
	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, i*i, v)
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	var inFlight, peak int32
	Run(context.Background(), Scheduler{Size: 4}, seq(11), func(_ context.Context, i int) struct{} {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "items of a batch run together")
}

func TestRun_BatchesAreSequential(t *testing.T) {
	var (
		mu      sync.Mutex
		started = map[int]time.Time{}
		ended   = map[int]time.Time{}
	)
	size := 3
	Run(context.Background(), Scheduler{Size: size}, seq(9), func(_ context.Context, i int) int {
		mu.Lock()
		started[i] = time.Now()
		mu.Unlock()
		time.Sleep(time.Duration(i%size+1) * 3 * time.Millisecond)
		mu.Lock()
		ended[i] = time.Now()
		mu.Unlock()
		return i
	})

	for b := 1; b < 3; b++ {
		var lastEnd time.Time
		for i := (b - 1) * size; i < b*size; i++ {
			if ended[i].After(lastEnd) {
				lastEnd = ended[i]
			}
		}
		for i := b * size; i < (b+1)*size; i++ {
			assert.False(t, started[i].Before(lastEnd), "item %d started before batch %d finished", i, b)
		}
	}
}

func TestRun_Progress(t *testing.T) {
	ch := make(chan Progress, 10)
	Run(context.Background(), Scheduler{Size: 2, Progress: ch}, seq(5), func(_ context.Context, i int) int { return i })
	close(ch)

	var got []Progress
	for p := range ch {
		got = append(got, p)
	}
	assert.Equal(t, []Progress{
		{Batch: 1, Batches: 3, Done: 2, Total: 5},
		{Batch: 2, Batches: 3, Done: 4, Total: 5},
		{Batch: 3, Batches: 3, Done: 5, Total: 5},
	}, got)
}

func TestRun_ProgressNeverBlocks(t *testing.T) {
	ch := make(chan Progress) // nobody reads
	got := Run(context.Background(), Scheduler{Size: 1, Progress: ch}, seq(3), func(_ context.Context, i int) int { return i })
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestRun_EmptyAndDegenerateSize(t *testing.T) {
	calls := 0
	got := Run(context.Background(), Scheduler{Size: 5}, nil, func(_ context.Context, i int) int { calls++; return i })
	assert.Empty(t, got)
	assert.Zero(t, calls)

	got = Run(context.Background(), Scheduler{Size: 0}, seq(3), func(_ context.Context, i int) int { return i + 1 })
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestRun_CancelStopsBeforeNextBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	got := Run(ctx, Scheduler{Size: 2}, seq(6), func(_ context.Context, i int) int {
		if atomic.AddInt32(&calls, 1) == 2 {
			cancel()
		}
		return i
	})
	assert.Equal(t, []int{0, 1}, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRun_CancelMidBatchLeavesNoHoles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := Run(ctx, Scheduler{Size: 3}, seq(9), func(ctx context.Context, i int) int {
		if i == 3 {
			cancel()
		}
		return i + 100
	})
	// a batch is returned only when every item in it ran, never with skipped
	// zero-value slots
	require.Contains(t, []int{3, 6}, len(got))
	for i, v := range got {
		assert.Equal(t, i+100, v)
	}
}
