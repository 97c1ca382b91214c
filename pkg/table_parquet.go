package laserball

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

var occupancySchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "lcn", Type: arrow.PrimitiveTypes.Int64},
	{Name: "type", Type: arrow.PrimitiveTypes.Int64},
	{Name: "zpos", Type: arrow.PrimitiveTypes.Float64},
	{Name: "degree", Type: arrow.PrimitiveTypes.Int64},
	{Name: "nhits", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// WriteOccupancyParquet writes rows as a zstd compressed Parquet table
// with one column per OccupancyRow field.
func WriteOccupancyParquet(w io.Writer, rows []OccupancyRow) error {
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd))
	fw, err := pqarrow.NewFileWriter(occupancySchema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("error creating parquet writer: %w", err)
	}

	b := array.NewRecordBuilder(memory.DefaultAllocator, occupancySchema)
	defer b.Release()
	for _, r := range rows {
		b.Field(0).(*array.Int64Builder).Append(int64(r.ID))
		b.Field(1).(*array.Int64Builder).Append(int64(r.LCN))
		b.Field(2).(*array.Int64Builder).Append(int64(r.Type))
		b.Field(3).(*array.Float64Builder).Append(r.ZPos)
		b.Field(4).(*array.Int64Builder).Append(int64(r.Degree))
		b.Field(5).(*array.Int64Builder).Append(r.NHits)
	}
	rec := b.NewRecord()
	defer rec.Release()

	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("error writing occupancy table: %w", err)
	}
	return fw.Close()
}

func SaveOccupancyParquet(fname string, rows []OccupancyRow) error {
	f, err := os.Create(fname)
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}
	if err := WriteOccupancyParquet(f, rows); err != nil {
		f.Close()
		return err
	}
	// the parquet writer may already have closed f
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	logger.Info(fmt.Sprintf("Wrote %d occupancy rows to %s", len(rows), fname), "output")
	return nil
}

// ReadOccupancyParquet loads a table written by WriteOccupancyParquet.
func ReadOccupancyParquet(fname string) ([]OccupancyRow, error) {
	table, err := OpenParquetTable(fname)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	fields := []string{"id", "lcn", "type", "zpos", "degree", "nhits"}
	var rows []OccupancyRow
	err = table.Scan(context.Background(), fields, max(table.Entries(), 1), func(b *EventBatch) error {
		cols := make([][]float64, len(fields))
		for i, name := range fields {
			values, err := b.Field(name)
			if err != nil {
				return err
			}
			cols[i] = values.Flatten()
			if len(cols[i]) != b.Len() {
				return &DataMismatchError{What: fmt.Sprintf("column %q", name), Expected: b.Len(), Got: len(cols[i]), Entry: b.Entry}
			}
		}
		for j := 0; j < b.Len(); j++ {
			rows = append(rows, OccupancyRow{
				ID:     int(cols[0][j]),
				LCN:    int(cols[1][j]),
				Type:   int(cols[2][j]),
				ZPos:   cols[3][j],
				Degree: int(cols[4][j]),
				NHits:  int64(cols[5][j]),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", fname, err)
	}
	return rows, nil
}
