package preprocessing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/boostflow/core/dataset"
	"github.com/YuminosukeSato/boostflow/core/rng"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

func TestShuffleIsPermutation(t *testing.T) {
	for _, n := range []int{1, 2, 10, 257} {
		perm, err := Shuffle(n, rng.NewSplitMix64(uint64(n)))
		require.NoError(t, err)
		require.Len(t, perm, n)

		sum := 0
		sorted := append([]int(nil), perm...)
		sort.Ints(sorted)
		for i, v := range sorted {
			assert.Equal(t, i, v)
			sum += v
		}
		assert.Equal(t, n*(n-1)/2, sum)
	}
}

func TestShuffleSingleElement(t *testing.T) {
	perm, err := Shuffle(1, rng.NewLCG(3))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, perm)
}

func TestShuffleReproducible(t *testing.T) {
	a, err := Shuffle(100, rng.NewSplitMix64(42))
	require.NoError(t, err)
	b, err := Shuffle(100, rng.NewSplitMix64(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Shuffle(100, rng.NewSplitMix64(43))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestShuffleErrors(t *testing.T) {
	_, err := Shuffle(0, rng.NewSplitMix64(1))
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))

	_, err = Shuffle(-5, rng.NewSplitMix64(1))
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))

	_, err = Shuffle(3, nil)
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))

	err = ShuffleInto(nil, rng.NewSplitMix64(1))
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
}

func TestRowsForRatio(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		ratio   float64
		want    int
		wantErr bool
	}{
		{"eighty percent", 10, 0.8, 8, false},
		{"floor", 7, 0.5, 3, false},
		{"zero ratio", 10, 0, 0, true},
		{"one ratio", 10, 1, 0, true},
		{"too small", 3, 0.2, 0, true},
		{"no rows", 0, 0.5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RowsForRatio(tt.rows, tt.ratio)
			if tt.wantErr {
				assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// tenRows returns x = [[i, 10+i]] and y = [[i]] for i in 0..9.
func tenRows() (dataset.Matrix, dataset.Matrix) {
	x := make([]float32, 20)
	y := make([]float32, 10)
	for i := 0; i < 10; i++ {
		x[2*i] = float32(i)
		x[2*i+1] = float32(10 + i)
		y[i] = float32(i)
	}
	return dataset.New(x, 10, 2), dataset.New(y, 10, 1)
}

func TestTrainTestSplitTenRows(t *testing.T) {
	x, y := tenRows()
	s, err := TrainTestSplit(x, y, 8, rng.NewSplitMix64(7))
	require.NoError(t, err)

	assert.Equal(t, 8, s.XTrain.Rows)
	assert.Equal(t, 2, s.XTest.Rows)
	assert.Equal(t, 8, s.YTrain.Rows)
	assert.Equal(t, 2, s.YTest.Rows)

	var sum float32
	for _, v := range s.YTrain.Data {
		sum += v
	}
	for _, v := range s.YTest.Data {
		sum += v
	}
	assert.Equal(t, float32(45), sum)

	// co-indexing: the first feature equals the target, the second is 10 more
	check := func(xm, ym dataset.Matrix, idx []int) {
		for i := 0; i < xm.Rows; i++ {
			assert.Equal(t, ym.At(i, 0), xm.At(i, 0))
			assert.Equal(t, ym.At(i, 0)+10, xm.At(i, 1))
			assert.Equal(t, float32(idx[i]), ym.At(i, 0))
		}
	}
	check(s.XTrain, s.YTrain, s.Train)
	check(s.XTest, s.YTest, s.Test)

	seen := make(map[int]bool)
	for _, r := range append(append([]int(nil), s.Train...), s.Test...) {
		assert.False(t, seen[r], "row %d appears twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, 10)
}

func TestTrainTestSplitFollowsShuffleOrder(t *testing.T) {
	x, y := tenRows()
	perm, err := Shuffle(10, rng.NewSplitMix64(99))
	require.NoError(t, err)

	s, err := TrainTestSplit(x, y, 6, rng.NewSplitMix64(99))
	require.NoError(t, err)
	assert.Equal(t, perm[:6], s.Train)
	assert.Equal(t, perm[6:], s.Test)
}

func TestTrainTestSplitDoesNotMutateInput(t *testing.T) {
	x, y := tenRows()
	xCopy := append([]float32(nil), x.Data...)
	yCopy := append([]float32(nil), y.Data...)
	_, err := TrainTestSplit(x, y, 5, rng.NewSplitMix64(1))
	require.NoError(t, err)
	assert.Equal(t, xCopy, x.Data)
	assert.Equal(t, yCopy, y.Data)
}

func TestTrainTestSplitErrors(t *testing.T) {
	x, y := tenRows()
	tests := []struct {
		name      string
		x, y      dataset.Matrix
		rowsTrain int
		src       rng.Source
	}{
		{"zero train rows", x, y, 0, rng.NewSplitMix64(1)},
		{"all rows", x, y, 10, rng.NewSplitMix64(1)},
		{"negative", x, y, -1, rng.NewSplitMix64(1)},
		{"row mismatch", x, dataset.New(make([]float32, 9), 9, 1), 5, rng.NewSplitMix64(1)},
		{"bad x", dataset.New(make([]float32, 3), 10, 2), y, 5, rng.NewSplitMix64(1)},
		{"nil source", x, y, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := TrainTestSplit(tt.x, tt.y, tt.rowsTrain, tt.src)
			assert.Nil(t, s)
			assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
		})
	}
}
