package h5

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

func testBatch(t *testing.T, entry int64, ids, times laserball.Jagged) *laserball.EventBatch {
	t.Helper()
	b, err := laserball.NewEventBatch(entry, len(ids), map[string]laserball.Jagged{"id": ids, "t": times})
	require.NoError(t, err)
	return b
}

func TestWriterRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "out.h5")
	w, err := NewWriter(fname, 4)
	require.NoError(t, err)

	h, err := laserball.NewHistogram([]float64{-0.5, 0.5, 1.5, 2.5})
	require.NoError(t, err)
	h.Counts = []int64{3, 0, 9}
	require.NoError(t, w.WriteHistogram("wvl_514_z_0", h))

	rows := []laserball.OccupancyRow{
		{ID: 4, LCN: 112, Type: laserball.TypeDichroicon, ZPos: -100, Degree: 30, NHits: 17},
		{ID: 5, LCN: 3, Type: laserball.TypeBarrel, ZPos: -100, Degree: 30, NHits: 120},
	}
	require.NoError(t, w.WriteOccupancy(rows[:1]))
	require.NoError(t, w.WriteOccupancy(rows[1:]))

	g, err := laserball.NewGeometry([]laserball.Channel{
		{ID: 7, LCN: 1, Type: 1, Position: r3.Vec{X: 1, Y: 2, Z: 3}, Direction: r3.Vec{Z: -1}},
		{ID: 2, LCN: 0, Type: 0, Position: r3.Vec{X: -1}},
	})
	require.NoError(t, err)
	require.NoError(t, w.WriteGeometry(g))
	assert.Error(t, w.WriteGeometry(g))
	require.NoError(t, w.Close())

	got, err := ReadHistogram(fname, "wvl_514_z_0")
	require.NoError(t, err)
	assert.Equal(t, h.Edges, got.Edges)
	assert.Equal(t, h.Counts, got.Counts)

	gotRows, err := ReadOccupancy(fname)
	require.NoError(t, err)
	assert.Equal(t, rows, gotRows)

	gotGeom, err := LoadGeometryHDF5(fname)
	require.NoError(t, err)
	require.Equal(t, 2, gotGeom.Len())
	assert.Equal(t, 2, gotGeom.Channel(0).ID)
	idx, err := gotGeom.Index(7)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, gotGeom.Channel(idx).Position)
	assert.Equal(t, r3.Vec{Z: -1}, gotGeom.Channel(idx).Direction)
}

func TestBatchTableRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "hits.h5")
	w, err := NewWriter(fname, 0)
	require.NoError(t, err)
	require.NoError(t, w.WriteBatch("output", testBatch(t, 0,
		laserball.Jagged{{0, 1}, {}, {2}},
		laserball.Jagged{{1.5, 2.5}, {}, {3.5}})))
	require.NoError(t, w.WriteBatch("output", testBatch(t, 3,
		laserball.Jagged{{1, 1, 2}},
		laserball.Jagged{{4, 5, 6}})))
	require.NoError(t, w.Close())

	table, err := OpenTable(fname, "output")
	require.NoError(t, err)
	defer table.Close()
	assert.Equal(t, int64(4), table.Entries())
	assert.Equal(t, []string{"id", "t"}, table.Fields())

	var batches []*laserball.EventBatch
	require.NoError(t, table.Scan(context.Background(), []string{"id"}, 2, func(b *laserball.EventBatch) error {
		batches = append(batches, b)
		return nil
	}))
	require.Len(t, batches, 2)
	assert.Equal(t, int64(2), batches[1].Entry)
	ids, err := batches[1].Field("id")
	require.NoError(t, err)
	assert.Equal(t, laserball.Jagged{{2}, {1, 1, 2}}, ids)

	src, err := laserball.OpenSource(fname + ":output")
	require.NoError(t, err)
	h, err := laserball.Aggregate(context.Background(), src, laserball.AggregateOptions{
		Target:      laserball.ByFieldName("id"),
		Expressions: []string{"id"},
		Bins:        laserball.ChannelBins(2),
		StepSize:    laserball.StepSize{Entries: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, h.Counts)
}

func TestWriteBatchLayoutMismatch(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "bad.h5"), 0)
	require.NoError(t, err)
	defer w.Close()

	err = w.WriteBatch("output", testBatch(t, 0,
		laserball.Jagged{{0, 1}},
		laserball.Jagged{{1.5}}))
	var mismatch *laserball.DataMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestOpenTableMissingTree(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.h5")
	w, err := NewWriter(fname, 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = OpenTable(fname, "output")
	assert.Error(t, err)
}
