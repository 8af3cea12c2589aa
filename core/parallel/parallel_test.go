package parallel

import (
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, v := range seen {
			assert.Equal(t, int32(1), v, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeNBoundsWorkers(t *testing.T) {
	var calls int32
	ParallelizeN(100, 3, func(start, end int) {
		atomic.AddInt32(&calls, 1)
	})
	assert.LessOrEqual(t, calls, int32(3))

	calls = 0
	ParallelizeN(100, 1, func(start, end int) {
		assert.Equal(t, 0, start)
		assert.Equal(t, 100, end)
		atomic.AddInt32(&calls, 1)
	})
	assert.Equal(t, int32(1), calls)
}

func TestParallelizeWithThreshold(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 50, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), Workers(0))
	assert.Equal(t, runtime.NumCPU(), Workers(-1))
	assert.Equal(t, 4, Workers(4))
}

func TestForEach(t *testing.T) {
	var sum int64
	err := ForEach(10, 4, func(i int) error {
		atomic.AddInt64(&sum, int64(i))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(45), sum)

	boom := errors.New("boom")
	err = ForEach(10, 2, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}
