package laserball

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPromptCut(t *testing.T) {
	g := testGeometry(t)
	n := DefaultRefractiveIndex
	tof := g.TimeOfFlight(r3.Vec{}, n)

	cut, err := PromptCut{
		Geometry:        g,
		RefractiveIndex: n,
		Offset:          6,
		Window:          10,
		IDField:         "id",
		TimeField:       "t",
		CrossingsField:  "nx",
	}.Func()
	require.NoError(t, err)

	b := batchOf(t, 0, map[string]Jagged{
		"id": {{0, 1}, {2, 3, 0}},
		"t":  {{tof[0] + 6, tof[1] + 16.5}, {tof[2] - 3.9, tof[3] + 6, tof[0] + 15.9}},
		"nx": {{1, 1}, {1, 2, 1}},
	})
	mask, err := cut(b)
	require.NoError(t, err)

	ids, _ := b.Field("id")
	kept, err := mask.Apply(ids, 0)
	require.NoError(t, err)
	// id 1 is late, id 3 has two crossings
	assert.Equal(t, Jagged{{0}, {2, 0}}, kept)
}

func TestPromptCutWithoutCrossings(t *testing.T) {
	g := testGeometry(t)
	cut, err := PromptCut{
		Geometry:        g,
		RefractiveIndex: 1,
		Window:          10,
		IDField:         "id",
		TimeField:       "t",
	}.Func()
	require.NoError(t, err)

	tof := g.TimeOfFlight(r3.Vec{}, 1)
	b := batchOf(t, 0, map[string]Jagged{
		"id": {{3}},
		"t":  {{tof[3] + 9.99}},
	})
	mask, err := cut(b)
	require.NoError(t, err)
	kept, err := mask.Apply(b.Fields["id"], 0)
	require.NoError(t, err)
	assert.Equal(t, Jagged{{3}}, kept)
}

func TestPromptCutByLCNWithDelays(t *testing.T) {
	g := testGeometry(t)
	tof := g.TimeOfFlight(r3.Vec{}, 1)

	cut, err := PromptCut{
		Geometry:        g,
		RefractiveIndex: 1,
		Window:          1,
		IDField:         "lcn",
		TimeField:       "t",
		ByLCN:           true,
		CableDelays:     []float64{100, 0, 0, 0},
	}.Func()
	require.NoError(t, err)

	// lcn 0 is id 3, lcn 3 is id 0
	b := batchOf(t, 0, map[string]Jagged{
		"lcn": {{0, 3, 0}},
		"t":   {{tof[3] + 100, tof[0], tof[3]}},
	})
	mask, err := cut(b)
	require.NoError(t, err)
	kept, err := mask.Apply(b.Fields["lcn"], 0)
	require.NoError(t, err)
	assert.Equal(t, Jagged{{0, 3}}, kept)
}

func TestPromptCutMissingDelay(t *testing.T) {
	cut, err := PromptCut{
		Geometry:        testGeometry(t),
		RefractiveIndex: 1,
		Window:          1,
		IDField:         "lcn",
		TimeField:       "t",
		ByLCN:           true,
		CableDelays:     []float64{100, 0},
	}.Func()
	require.NoError(t, err)

	_, err = cut(batchOf(t, 0, map[string]Jagged{"lcn": {{1, 3}}, "t": {{0, 0}}}))
	var lookup *LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, 3.0, lookup.Key)
}

func TestPromptCutUnknownID(t *testing.T) {
	cut, err := PromptCut{
		Geometry:        testGeometry(t),
		RefractiveIndex: 1,
		Window:          1,
		IDField:         "id",
		TimeField:       "t",
	}.Func()
	require.NoError(t, err)

	_, err = cut(batchOf(t, 0, map[string]Jagged{"id": {{17}}, "t": {{0}}}))
	var lookup *LookupError
	assert.ErrorAs(t, err, &lookup)
}

func TestPromptCutFieldMismatch(t *testing.T) {
	cut, err := PromptCut{
		Geometry:        testGeometry(t),
		RefractiveIndex: 1,
		Window:          1,
		IDField:         "id",
		TimeField:       "t",
	}.Func()
	require.NoError(t, err)

	_, err = cut(batchOf(t, 10, map[string]Jagged{"id": {{1}, {1, 2}}, "t": {{0}, {0}}}))
	var mismatch *DataMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(11), mismatch.Entry)
}

func TestPromptCutValidation(t *testing.T) {
	g := testGeometry(t)
	for name, c := range map[string]PromptCut{
		"no geometry": {RefractiveIndex: 1, Window: 1, IDField: "id", TimeField: "t"},
		"no fields":   {Geometry: g, RefractiveIndex: 1, Window: 1},
		"no window":   {Geometry: g, RefractiveIndex: 1, IDField: "id", TimeField: "t"},
		"no index":    {Geometry: g, Window: 1, IDField: "id", TimeField: "t"},
	} {
		_, err := c.Func()
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr, name)
	}
}

func TestTimeWindow(t *testing.T) {
	b := batchOf(t, 0, map[string]Jagged{"t": {{-20, -19.9, 0, 20}, {}}})
	mask, err := TimeWindow("t", -20, 20)(b)
	require.NoError(t, err)
	kept, err := mask.Apply(b.Fields["t"], 0)
	require.NoError(t, err)
	assert.Equal(t, Jagged{{-19.9, 0}, {}}, kept)
}
