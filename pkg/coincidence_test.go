package laserball

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelBoards(t *testing.T) {
	assert.True(t, IsDichroicon(112))
	assert.True(t, IsDichroicon(127))
	assert.False(t, IsDichroicon(128))
	assert.True(t, IsBarrel(0))
	assert.True(t, IsBarrel(111))
	assert.False(t, IsBarrel(112))
	assert.True(t, IsBarrel(175))
	assert.False(t, IsBarrel(176))
}

// coincidenceGeometry puts every channel at the source so the time of
// flight vanishes.
func coincidenceGeometry(t *testing.T) *Geometry {
	t.Helper()
	g, err := NewGeometry([]Channel{
		{ID: 0, LCN: 0},
		{ID: 1, LCN: 1},
		{ID: 2, LCN: 112},
		{ID: 3, LCN: 113},
	})
	require.NoError(t, err)
	return g
}

// noDelays covers every logical channel of coincidenceGeometry.
func noDelays() []float64 {
	return make([]float64, 114)
}

func coincidenceEvents(t *testing.T) *MemorySource {
	return NewMemorySource(batchOf(t, 0, map[string]Jagged{
		"lcn":         {{0, 112}, {0, 1, 112}, {113}, {1}},
		"fitted_time": {{0, 5}, {1, 30, 2}, {-1}, {0}},
	}))
}

func TestCoincidence(t *testing.T) {
	progress := &recordingProgress{}
	res, err := Coincidence(context.Background(), coincidenceEvents(t), CoincidenceOptions{
		Geometry:    coincidenceGeometry(t),
		PromptMin:   -20,
		PromptMax:   20,
		CableDelays: noDelays(),
		BadChannels: []int{113},
		RateCut:     0.1,
		StepSize:    StepSize{Entries: 3},
		Progress:    progress,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), res.Events)
	assert.Equal(t, []int{3, 1}, progress.updates)
	require.Len(t, res.Hits, 114)
	assert.Equal(t, int64(2), res.Hits[0])
	assert.Equal(t, int64(1), res.Hits[1])
	assert.Equal(t, int64(2), res.Hits[112])
	assert.Equal(t, int64(0), res.Hits[113])
	assert.Equal(t, 113, res.LCNs[113])
	assert.Equal(t, 0.25, res.Rates[1])

	assert.Equal(t, 0.5, res.DichroiconRate)
	assert.Equal(t, 0.375, res.BarrelRate)
	assert.InDelta(t, 4.0/3, res.RelativeLightYield, 1e-12)
}

func TestCoincidenceCableDelays(t *testing.T) {
	delays := noDelays()
	delays[112] = 10
	res, err := Coincidence(context.Background(), coincidenceEvents(t), CoincidenceOptions{
		Geometry:    coincidenceGeometry(t),
		PromptMin:   -2,
		PromptMax:   2,
		CableDelays: delays,
	})
	require.NoError(t, err)
	// both dichroicon hits arrive earlier than the 10 ns delay allows
	assert.Equal(t, int64(0), res.Hits[112])
	assert.Equal(t, int64(1), res.Hits[113])
	assert.Equal(t, int64(2), res.Hits[0])
}

func TestCoincidenceNeedsCableDelays(t *testing.T) {
	for _, delays := range [][]float64{nil, make([]float64, 113)} {
		_, err := Coincidence(context.Background(), coincidenceEvents(t), CoincidenceOptions{
			Geometry:    coincidenceGeometry(t),
			PromptMin:   -20,
			PromptMax:   20,
			CableDelays: delays,
		})
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr, "%d delays", len(delays))
		assert.Equal(t, "cable_delays", cfgErr.Param)
	}
}

func TestCoincidenceErrors(t *testing.T) {
	_, err := Coincidence(context.Background(), coincidenceEvents(t), CoincidenceOptions{PromptMin: -1, PromptMax: 1})
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Coincidence(context.Background(), coincidenceEvents(t), CoincidenceOptions{
		Geometry:    coincidenceGeometry(t),
		PromptMin:   5,
		PromptMax:   5,
		CableDelays: noDelays(),
	})
	assert.ErrorAs(t, err, &cfgErr)

	src := NewMemorySource(batchOf(t, 0, map[string]Jagged{
		"lcn":         {{50}},
		"fitted_time": {{0}},
	}))
	_, err = Coincidence(context.Background(), src, CoincidenceOptions{
		Geometry:    coincidenceGeometry(t),
		PromptMin:   -1,
		PromptMax:   1,
		CableDelays: noDelays(),
	})
	var lookup *LookupError
	assert.ErrorAs(t, err, &lookup)
}
