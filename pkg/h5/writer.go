package h5

import (
	"errors"
	"fmt"
	"slices"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

// Writer stores histograms, occupancy tables, geometry and raw hit
// batches in one HDF5 file.
type Writer struct {
	File             *hdf5.File
	Filename         string
	CompressionLevel int

	HistogramsGroup *hdf5.Group
	GeometryGroup   *hdf5.Group
	OccupancyTable  *hdf5.Dataset
	OccupancyRows   int

	trees map[string]*treeWriter
}

type treeWriter struct {
	group    *hdf5.Group
	fields   []string
	datasets map[string]*hdf5.Dataset
	offsets  *hdf5.Dataset
	lengths  map[string]int
	entries  int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	f, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &laserball.ErrOpenFile{Filename: filename, Err: err}
	}
	w := &Writer{
		File:             f,
		Filename:         filename,
		CompressionLevel: compressionLevel,
		trees:            make(map[string]*treeWriter),
	}
	if w.HistogramsGroup, err = createGroup(f, HistogramsGroup); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WriteHistogram stores h as the counts and edges datasets of group
// histograms/name.
func (w *Writer) WriteHistogram(name string, h *laserball.Histogram) error {
	g, err := w.HistogramsGroup.CreateGroup(name)
	if err != nil {
		return &laserball.ErrCreateGroup{GroupName: HistogramsGroup + "/" + name, Err: err}
	}
	defer g.Close()

	counts, err := createArray(g, "counts", hdf5.T_NATIVE_INT64, w.CompressionLevel)
	if err != nil {
		return err
	}
	defer counts.Close()
	edges, err := createArray(g, "edges", hdf5.T_NATIVE_DOUBLE, w.CompressionLevel)
	if err != nil {
		return err
	}
	defer edges.Close()

	if err := writeArrayToTable(counts, &h.Counts, 0); err != nil {
		return fmt.Errorf("error writing %s counts: %w", name, err)
	}
	if err := writeArrayToTable(edges, &h.Edges, 0); err != nil {
		return fmt.Errorf("error writing %s edges: %w", name, err)
	}
	return nil
}

// WriteOccupancy appends rows to the occupancy table.
func (w *Writer) WriteOccupancy(rows []laserball.OccupancyRow) error {
	if w.OccupancyTable == nil {
		table, err := createTable(w.File, OccupancyTable, occupancyHDF5{}, w.CompressionLevel)
		if err != nil {
			return err
		}
		w.OccupancyTable = table
	}
	// The array MUST be allocated at creation, HDF5 needs the full slice
	data := make([]occupancyHDF5, len(rows))
	for i, r := range rows {
		data[i] = occupancyHDF5{
			id:     int32(r.ID),
			lcn:    int32(r.LCN),
			pmt:    int32(r.Type),
			zpos:   r.ZPos,
			degree: int32(r.Degree),
			nhits:  r.NHits,
		}
	}
	if err := writeArrayToTable(w.OccupancyTable, &data, w.OccupancyRows); err != nil {
		return fmt.Errorf("error writing occupancy table: %w", err)
	}
	w.OccupancyRows += len(rows)
	return nil
}

// WriteGeometry stores the channel table sorted by channel id.
func (w *Writer) WriteGeometry(g *laserball.Geometry) error {
	if w.GeometryGroup != nil {
		return fmt.Errorf("geometry already written to %s", w.Filename)
	}
	group, err := createGroup(w.File, GeometryGroup)
	if err != nil {
		return err
	}
	w.GeometryGroup = group

	table, err := createTable(group, GeometryTable, channelHDF5{}, w.CompressionLevel)
	if err != nil {
		return err
	}
	defer table.Close()

	channels := g.Channels()
	slices.SortFunc(channels, func(a, b laserball.Channel) int { return a.ID - b.ID })
	data := make([]channelHDF5, len(channels))
	for i, ch := range channels {
		data[i] = channelHDF5{
			id:  int32(ch.ID),
			lcn: int32(ch.LCN),
			pmt: int32(ch.Type),
			x:   ch.Position.X,
			y:   ch.Position.Y,
			z:   ch.Position.Z,
			u:   ch.Direction.X,
			v:   ch.Direction.Y,
			w:   ch.Direction.Z,
		}
	}
	return writeArrayToTable(table, &data, 0)
}

// WriteBatch appends the events of b to the group tree. The first batch
// fixes the set of fields, every field is stored flat and the event
// boundaries go to entry_offsets.
func (w *Writer) WriteBatch(tree string, b *laserball.EventBatch) error {
	tw, ok := w.trees[tree]
	if !ok {
		var err error
		if tw, err = w.newTreeWriter(tree, b.Names()); err != nil {
			return err
		}
		w.trees[tree] = tw
	}

	// all fields must share the event layout for the offsets to hold
	var layout laserball.Jagged
	for _, name := range tw.fields {
		values, err := b.Field(name)
		if err != nil {
			return err
		}
		if layout == nil {
			layout = values
			continue
		}
		for i := range values {
			if len(values[i]) != len(layout[i]) {
				return &laserball.DataMismatchError{
					What:     fmt.Sprintf("field %q length differs from %q", name, tw.fields[0]),
					Expected: len(layout[i]),
					Got:      len(values[i]),
					Entry:    b.Entry + int64(i),
				}
			}
		}
	}

	for _, name := range tw.fields {
		values, _ := b.Field(name)
		flat := values.Flatten()
		if err := writeArrayToTable(tw.datasets[name], &flat, tw.lengths[name]); err != nil {
			return fmt.Errorf("error writing %s/%s: %w", tree, name, err)
		}
		tw.lengths[name] += len(flat)
	}

	offsets := make([]int64, len(layout))
	next := int64(tw.lengths[tw.fields[0]]) - int64(layout.Count())
	for i, ev := range layout {
		next += int64(len(ev))
		offsets[i] = next
	}
	if err := writeArrayToTable(tw.offsets, &offsets, tw.entries+1); err != nil {
		return fmt.Errorf("error writing %s/%s: %w", tree, OffsetsDataset, err)
	}
	tw.entries += len(offsets)
	return nil
}

func (w *Writer) newTreeWriter(tree string, fields []string) (*treeWriter, error) {
	if len(fields) == 0 {
		return nil, &laserball.ConfigurationError{Param: "tree", Reason: fmt.Sprintf("no fields to write to %s", tree)}
	}
	group, err := createGroup(w.File, tree)
	if err != nil {
		return nil, err
	}
	tw := &treeWriter{
		group:    group,
		fields:   fields,
		datasets: make(map[string]*hdf5.Dataset, len(fields)),
		lengths:  make(map[string]int, len(fields)),
	}
	for _, name := range fields {
		dset, err := createArray(group, name, hdf5.T_NATIVE_DOUBLE, w.CompressionLevel)
		if err != nil {
			return nil, err
		}
		tw.datasets[name] = dset
	}
	if tw.offsets, err = createArray(group, OffsetsDataset, hdf5.T_NATIVE_INT64, w.CompressionLevel); err != nil {
		return nil, err
	}
	zero := []int64{0}
	if err := writeArrayToTable(tw.offsets, &zero, 0); err != nil {
		return nil, err
	}
	return tw, nil
}

func (w *Writer) Close() error {
	var errs []error

	for name, tw := range w.trees {
		for field, dset := range tw.datasets {
			if err := dset.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %s/%s: %w", name, field, err))
			}
		}
		if tw.offsets != nil {
			if err := tw.offsets.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing %s offsets: %w", name, err))
			}
		}
		if err := tw.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s group: %w", name, err))
		}
	}
	if w.OccupancyTable != nil {
		if err := w.OccupancyTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing occupancy table: %w", err))
		}
	}
	if w.GeometryGroup != nil {
		if err := w.GeometryGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing geometry group: %w", err))
		}
	}
	if err := w.HistogramsGroup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing histograms group: %w", err))
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}
