package laserball

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramFill(t *testing.T) {
	h, err := NewHistogram([]float64{0, 1, 2, 3})
	require.NoError(t, err)

	h.Fill([]float64{0, 0.5, 1, 2.999, 3, -0.1, 3.1, math.NaN()})

	// the last bin is closed, out of range values and NaN are dropped
	assert.Equal(t, []int64{2, 1, 2}, h.Counts)
	assert.Equal(t, int64(5), h.Entries())
}

func TestHistogramBin(t *testing.T) {
	h, err := NewHistogram([]float64{-0.5, 0.5, 1.5})
	require.NoError(t, err)

	tests := []struct {
		x    float64
		want int
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 1},
		{1.5, 1},
		{1.5000001, -1},
		{-1, -1},
		{math.Inf(1), -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.Bin(tt.x), "x=%v", tt.x)
	}
}

func TestNewHistogramRejectsBadEdges(t *testing.T) {
	for _, edges := range [][]float64{
		nil,
		{1},
		{0, 0},
		{0, 2, 1},
		{0, math.NaN()},
		{math.Inf(-1), 0},
	} {
		_, err := NewHistogram(edges)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr, "edges %v", edges)
	}
}

func TestHistogramMerge(t *testing.T) {
	a, _ := NewHistogram([]float64{0, 1, 2})
	b, _ := NewHistogram([]float64{0, 1, 2})
	a.Fill([]float64{0.5, 1.5})
	b.Fill([]float64{1.5, 1.7})

	require.NoError(t, a.Merge(b))
	assert.Equal(t, []int64{1, 3}, a.Counts)
	assert.Equal(t, []int64{0, 2}, b.Counts)
}

func TestHistogramMergeEdgeMismatch(t *testing.T) {
	a, _ := NewHistogram([]float64{0, 1, 2})
	b, _ := NewHistogram([]float64{0, 1, 3})
	a.Fill([]float64{0.5})

	err := a.Merge(b)
	var mismatch *DataMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []int64{1, 0}, a.Counts, "a failed merge must not touch the counts")
}

func TestHistogramCountAt(t *testing.T) {
	h, _ := NewHistogram([]float64{-0.5, 0.5, 1.5, 2.5})
	h.Fill([]float64{0, 2, 2})

	n, err := h.CountAt(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = h.CountAt(7)
	var lookup *LookupError
	assert.ErrorAs(t, err, &lookup)
}

func TestHistogramCentersAndClone(t *testing.T) {
	h, _ := NewHistogram([]float64{-0.5, 0.5, 1.5})
	assert.Equal(t, []float64{0, 1}, h.Centers())

	c := h.Clone()
	c.Counts[0] = 4
	c.Edges[0] = -1
	assert.Equal(t, []int64{0, 0}, h.Counts)
	assert.Equal(t, -0.5, h.Edges[0])
}

func TestHistogramH1D(t *testing.T) {
	h, _ := NewHistogram([]float64{0, 1, 2, 4})
	h.Fill([]float64{0.5, 1.5, 1.5, 3})

	hh := h.H1D()
	require.Equal(t, 3, hh.Len())
	for i, want := range []float64{1, 2, 1} {
		assert.Equal(t, want, hh.Value(i), "bin %d", i)
	}
	assert.Equal(t, 4.0, hh.SumW())
}
