package laserball

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

var hitsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
	{Name: "t", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
}, nil)

func writeHitsParquet(t *testing.T, fname string, ids [][]int32, times [][]float64) {
	t.Helper()
	f, err := os.Create(fname)
	require.NoError(t, err)
	defer f.Close()

	fw, err := pqarrow.NewFileWriter(hitsSchema, f, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)

	b := array.NewRecordBuilder(memory.DefaultAllocator, hitsSchema)
	defer b.Release()
	idb := b.Field(0).(*array.ListBuilder)
	tb := b.Field(1).(*array.ListBuilder)
	for i := range ids {
		idb.Append(true)
		idb.ValueBuilder().(*array.Int32Builder).AppendValues(ids[i], nil)
		tb.Append(true)
		tb.ValueBuilder().(*array.Float64Builder).AppendValues(times[i], nil)
	}
	rec := b.NewRecord()
	defer rec.Release()
	require.NoError(t, fw.Write(rec))
	require.NoError(t, fw.Close())
}

func writeHitsROOT(t *testing.T, fname string, ids [][]int32, times [][]float64) {
	t.Helper()
	f, err := groot.Create(fname)
	require.NoError(t, err)
	defer f.Close()

	var data struct {
		N  int32
		ID []int32
		T  []float64
	}
	w, err := rtree.NewWriter(f, "output", []rtree.WriteVar{
		{Name: "n", Value: &data.N},
		{Name: "id", Value: &data.ID, Count: "n"},
		{Name: "t", Value: &data.T, Count: "n"},
	})
	require.NoError(t, err)
	for i := range ids {
		data.N = int32(len(ids[i]))
		data.ID = ids[i]
		data.T = times[i]
		_, err := w.Write()
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestSplitTreePath(t *testing.T) {
	for _, tc := range []struct {
		in, pattern, tree string
	}{
		{"data/*.root:output", "data/*.root", "output"},
		{"data/*.root", "data/*.root", DefaultTreeName},
		{"data/*.root:", "data/*.root:", DefaultTreeName},
		{"run:1/x.root", "run:1/x.root", DefaultTreeName},
		{"a:b/c.root:meta", "a:b/c.root", "meta"},
	} {
		pattern, tree := SplitTreePath(tc.in)
		assert.Equal(t, tc.pattern, pattern, tc.in)
		assert.Equal(t, tc.tree, tree, tc.in)
	}
}

func TestOpenSourceNoFiles(t *testing.T) {
	_, err := OpenSource(filepath.Join(t.TempDir(), "*.root:output"))
	var openErr *ErrOpenFile
	require.ErrorAs(t, err, &openErr)
	assert.ErrorIs(t, err, errNoFiles)
}

func TestOpenTableUnsupported(t *testing.T) {
	_, err := OpenTable("hits.csv", "")
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMemorySourceRechunks(t *testing.T) {
	a := batchOf(t, 0, map[string]Jagged{"x": {{1}, {2}, {3}}, "y": {{0}, {0}, {0}}})
	b := batchOf(t, 3, map[string]Jagged{"x": {{4}, {5}}, "y": {{0}, {0}}})
	src := NewMemorySource(a, b)

	n, err := src.NumEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	it, err := src.Iterate(context.Background(), IterateOptions{
		Expressions: []string{"x"},
		StepSize:    StepSize{Entries: 2},
	})
	require.NoError(t, err)
	defer it.Close()

	var entries []int64
	var lens []int
	for {
		batch, err := it.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		entries = append(entries, batch.Entry)
		lens = append(lens, batch.Len())
		assert.Equal(t, []string{"x"}, batch.Names())
	}
	assert.Equal(t, []int64{0, 2, 3}, entries)
	assert.Equal(t, []int{2, 1, 2}, lens)
}

func TestParquetSourceAggregate(t *testing.T) {
	dir := t.TempDir()
	writeHitsParquet(t, filepath.Join(dir, "a.parquet"),
		[][]int32{{0, 1}, {}, {2}},
		[][]float64{{1, 2}, {}, {3}})
	writeHitsParquet(t, filepath.Join(dir, "b.parquet"),
		[][]int32{{1, 1, 3}},
		[][]float64{{4, 5, 6}})

	src, err := OpenSource(filepath.Join(dir, "*.parquet") + ":output")
	require.NoError(t, err)
	assert.Len(t, src.Files, 2)

	n, err := src.NumEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	for _, step := range []int64{1, 2, 100} {
		h, err := Aggregate(context.Background(), src, AggregateOptions{
			Target:      ByFieldName("id"),
			Expressions: []string{"id"},
			Bins:        ChannelBins(3),
			StepSize:    StepSize{Entries: step},
			NumWorkers:  2,
		})
		require.NoError(t, err, "step %d", step)
		assert.Equal(t, []int64{1, 3, 1, 1}, h.Counts, "step %d", step)
	}
}

func TestParquetTableUnknownColumn(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "a.parquet")
	writeHitsParquet(t, fname, [][]int32{{0}}, [][]float64{{1}})

	table, err := OpenParquetTable(fname)
	require.NoError(t, err)
	defer table.Close()

	err = table.Scan(context.Background(), []string{"nope"}, 10, func(*EventBatch) error { return nil })
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestROOTTableScanRange(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "hits.root")
	writeHitsROOT(t, fname,
		[][]int32{{0, 1}, {2}, {}, {3, 3}},
		[][]float64{{1.5, 2.5}, {3.5}, {}, {4.5, 5.5}})

	table, err := OpenROOTTable(fname, "output")
	require.NoError(t, err)
	defer table.Close()

	assert.Equal(t, int64(4), table.Entries())
	assert.ElementsMatch(t, []string{"n", "id", "t"}, table.Branches())

	var got []*EventBatch
	err = table.ScanRange(context.Background(), []string{"id", "t"}, 1, 4, 2, func(b *EventBatch) error {
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Entry)
	assert.Equal(t, int64(3), got[1].Entry)

	ids, err := got[0].Field("id")
	require.NoError(t, err)
	assert.Equal(t, Jagged{{2}, {}}, ids)
	times, err := got[1].Field("t")
	require.NoError(t, err)
	assert.Equal(t, Jagged{{4.5, 5.5}}, times)
}

func TestROOTSourceAggregate(t *testing.T) {
	dir := t.TempDir()
	writeHitsROOT(t, filepath.Join(dir, "a.root"),
		[][]int32{{0, 1}, {2}},
		[][]float64{{1, 2}, {3}})
	writeHitsROOT(t, filepath.Join(dir, "b.root"),
		[][]int32{{2, 2}},
		[][]float64{{1, 2}})

	src, err := OpenSource(filepath.Join(dir, "*.root"))
	require.NoError(t, err)

	h, err := Aggregate(context.Background(), src, AggregateOptions{
		Target:      ByFieldName("id"),
		Expressions: []string{"id"},
		Bins:        ChannelBins(2),
		StepSize:    StepSize{Entries: 1},
		NumWorkers:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 3}, h.Counts)
}

func TestLoadGeometryROOT(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "meta.root")
	f, err := groot.Create(fname)
	require.NoError(t, err)

	var meta struct {
		N     int32
		X     []float64
		Y     []float64
		Z     []float64
		Dummy int32
	}
	w, err := rtree.NewWriter(f, "meta", []rtree.WriteVar{
		{Name: "npmt", Value: &meta.N},
		{Name: "pmtx", Value: &meta.X, Count: "npmt"},
		{Name: "pmty", Value: &meta.Y, Count: "npmt"},
		{Name: "pmtz", Value: &meta.Z, Count: "npmt"},
		{Name: "runId", Value: &meta.Dummy},
	})
	require.NoError(t, err)
	meta.N = 2
	meta.X = []float64{1000, 0}
	meta.Y = []float64{0, 1000}
	meta.Z = []float64{-50, 50}
	_, err = w.Write()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	g, err := LoadGeometryROOT(fname, "", DataGeometryBranches)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	ch := g.Channel(1)
	assert.Equal(t, 1, ch.ID)
	assert.Equal(t, 1, ch.LCN)
	assert.Equal(t, 50.0, ch.Position.Z)

	_, err = LoadGeometryROOT(fname, "meta", SimGeometryBranches)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
