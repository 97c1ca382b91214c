package laserball

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetTable reads a Parquet file whose columns are either numeric
// scalars (one value per event) or lists of numbers.
type ParquetTable struct {
	Filename string
	file     *file.Reader
	reader   *pqarrow.FileReader
	size     int64
}

func OpenParquetTable(fname string) (*ParquetTable, error) {
	pf, err := file.OpenParquetFile(fname, false)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("error creating arrow reader for %s: %w", fname, err)
	}
	var size int64
	if info, err := os.Stat(fname); err == nil {
		size = info.Size()
	}
	return &ParquetTable{Filename: fname, file: pf, reader: fr, size: size}, nil
}

func (t *ParquetTable) Entries() int64 {
	return t.file.NumRows()
}

func (t *ParquetTable) EntryBytes() int64 {
	n := t.file.NumRows()
	if n <= 0 {
		return 1
	}
	return max(t.size/n, 1)
}

func (t *ParquetTable) Close() error {
	return t.file.Close()
}

// columnIndices maps top-level field names to parquet leaf columns.
func (t *ParquetTable) columnIndices(fields []string) ([]int, error) {
	if fields == nil {
		return nil, nil
	}
	byName := make(map[string]pqarrow.SchemaField, len(t.reader.Manifest.Fields))
	for _, sf := range t.reader.Manifest.Fields {
		byName[sf.Field.Name] = sf
	}
	var indices []int
	for _, name := range fields {
		sf, ok := byName[name]
		if !ok {
			return nil, &ConfigurationError{
				Param:  "expressions",
				Reason: fmt.Sprintf("column %q not found in %s", name, t.Filename),
			}
		}
		indices = append(indices, leafColumns(sf)...)
	}
	return indices, nil
}

func leafColumns(sf pqarrow.SchemaField) []int {
	if len(sf.Children) == 0 {
		return []int{sf.ColIndex}
	}
	var out []int
	for _, child := range sf.Children {
		out = append(out, leafColumns(child)...)
	}
	return out
}

func (t *ParquetTable) Scan(ctx context.Context, fields []string, rows int64, emit func(*EventBatch) error) error {
	indices, err := t.columnIndices(fields)
	if err != nil {
		return err
	}
	t.reader.Props.BatchSize = rows
	rr, err := t.reader.GetRecordReader(ctx, indices, nil)
	if err != nil {
		return fmt.Errorf("error creating record reader: %w", err)
	}
	defer rr.Release()

	var entry int64
	for rr.Next() {
		rec := rr.Record()
		n := int(rec.NumRows())
		cols := make(map[string]Jagged, rec.NumCols())
		for i := 0; i < int(rec.NumCols()); i++ {
			name := rec.ColumnName(i)
			values, err := arrowJagged(rec.Column(i))
			if err != nil {
				return fmt.Errorf("column %q: %w", name, err)
			}
			cols[name] = values
		}
		batch, err := NewEventBatch(entry, n, cols)
		if err != nil {
			return err
		}
		entry += int64(n)
		if err := emit(batch); err != nil {
			return err
		}
	}
	return rr.Err()
}

func arrowJagged(arr arrow.Array) (Jagged, error) {
	out := make(Jagged, arr.Len())
	if list, ok := arr.(*array.List); ok {
		values := list.ListValues()
		for i := range out {
			if list.IsNull(i) {
				out[i] = []float64{}
				continue
			}
			beg, end := list.ValueOffsets(i)
			ev, err := arrowValues(values, int(beg), int(end))
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	}
	for i := range out {
		ev, err := arrowValues(arr, i, i+1)
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

type valuer[T Number] interface {
	Value(int) T
	IsNull(int) bool
}

func collect[T Number](a valuer[T], beg, end int) []float64 {
	out := make([]float64, 0, end-beg)
	for i := beg; i < end; i++ {
		if a.IsNull(i) {
			continue
		}
		out = append(out, float64(a.Value(i)))
	}
	return out
}

func arrowValues(arr arrow.Array, beg, end int) ([]float64, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return collect[int8](a, beg, end), nil
	case *array.Int16:
		return collect[int16](a, beg, end), nil
	case *array.Int32:
		return collect[int32](a, beg, end), nil
	case *array.Int64:
		return collect[int64](a, beg, end), nil
	case *array.Uint8:
		return collect[uint8](a, beg, end), nil
	case *array.Uint16:
		return collect[uint16](a, beg, end), nil
	case *array.Uint32:
		return collect[uint32](a, beg, end), nil
	case *array.Uint64:
		return collect[uint64](a, beg, end), nil
	case *array.Float32:
		return collect[float32](a, beg, end), nil
	case *array.Float64:
		return collect[float64](a, beg, end), nil
	case *array.Boolean:
		out := make([]float64, 0, end-beg)
		for i := beg; i < end; i++ {
			if a.IsNull(i) {
				continue
			}
			out = append(out, boolToFloat(a.Value(i)))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
}
