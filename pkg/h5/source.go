package h5

import (
	"context"
	"fmt"
	"os"
	"slices"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

func init() {
	opener := func(fname, tree string) (laserball.Table, error) { return OpenTable(fname, tree) }
	laserball.RegisterFormat(".h5", opener)
	laserball.RegisterFormat(".hdf5", opener)
}

// Table is one tree group: a flat dataset per field plus entry_offsets,
// the cumulative hit count at each event boundary. Datasets with one value
// per event are read as scalar fields.
type Table struct {
	Filename string
	Tree     string

	file    *hdf5.File
	group   *hdf5.Group
	offsets []int64
	fields  []string
	size    int64
}

func OpenTable(fname string, tree string) (*Table, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &laserball.ErrOpenFile{Filename: fname, Err: err}
	}
	t := &Table{Filename: fname, Tree: tree, file: f}
	if err := t.init(); err != nil {
		f.Close()
		return nil, err
	}
	if info, err := os.Stat(fname); err == nil {
		t.size = info.Size()
	}
	return t, nil
}

func (t *Table) init() error {
	group, err := t.file.OpenGroup(t.Tree)
	if err != nil {
		return fmt.Errorf("error opening group %q in %s: %w", t.Tree, t.Filename, err)
	}
	t.group = group

	dset, err := group.OpenDataset(OffsetsDataset)
	if err != nil {
		return fmt.Errorf("error opening %s/%s: %w", t.Tree, OffsetsDataset, err)
	}
	defer dset.Close()
	n, err := datasetLen(dset)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s/%s is empty", t.Tree, OffsetsDataset)
	}
	if t.offsets, err = readRange[int64](dset, 0, n); err != nil {
		return fmt.Errorf("error reading %s/%s: %w", t.Tree, OffsetsDataset, err)
	}

	nObjs, err := group.NumObjects()
	if err != nil {
		return err
	}
	for i := uint(0); i < nObjs; i++ {
		name, err := group.ObjectNameByIndex(i)
		if err != nil {
			return err
		}
		if name != OffsetsDataset {
			t.fields = append(t.fields, name)
		}
	}
	slices.Sort(t.fields)
	return nil
}

func (t *Table) Entries() int64 {
	return int64(len(t.offsets) - 1)
}

func (t *Table) EntryBytes() int64 {
	n := t.Entries()
	if n <= 0 {
		return 1
	}
	return max(t.size/n, 1)
}

func (t *Table) Fields() []string {
	return slices.Clone(t.fields)
}

func (t *Table) Close() error {
	if t.group != nil {
		t.group.Close()
	}
	return t.file.Close()
}

func (t *Table) Scan(ctx context.Context, fields []string, rows int64, emit func(*laserball.EventBatch) error) error {
	if fields == nil {
		fields = t.fields
	}
	for _, name := range fields {
		if !slices.Contains(t.fields, name) {
			return &laserball.ConfigurationError{Param: "expressions", Reason: fmt.Sprintf("no field %q in %s:%s", name, t.Filename, t.Tree)}
		}
	}
	datasets := make(map[string]*hdf5.Dataset, len(fields))
	defer func() {
		for _, dset := range datasets {
			dset.Close()
		}
	}()
	lengths := make(map[string]int, len(fields))
	for _, name := range fields {
		dset, err := t.group.OpenDataset(name)
		if err != nil {
			return fmt.Errorf("error opening %s/%s: %w", t.Tree, name, err)
		}
		datasets[name] = dset
		if lengths[name], err = datasetLen(dset); err != nil {
			return err
		}
	}

	entries := t.Entries()
	for beg := int64(0); beg < entries; beg += rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(beg+rows, entries)
		cols := make(map[string]laserball.Jagged, len(fields))
		for _, name := range fields {
			values, err := t.readField(datasets[name], lengths[name], beg, end)
			if err != nil {
				return fmt.Errorf("error reading %s/%s: %w", t.Tree, name, err)
			}
			cols[name] = values
		}
		batch, err := laserball.NewEventBatch(beg, int(end-beg), cols)
		if err != nil {
			return err
		}
		if err := emit(batch); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) readField(dset *hdf5.Dataset, length int, beg, end int64) (laserball.Jagged, error) {
	out := make(laserball.Jagged, end-beg)
	switch int64(length) {
	case t.offsets[len(t.offsets)-1]:
		first, last := int(t.offsets[beg]), int(t.offsets[end])
		flat, err := readRange[float64](dset, first, last)
		if err != nil {
			return nil, err
		}
		for i := range out {
			lo, hi := t.offsets[beg+int64(i)], t.offsets[beg+int64(i)+1]
			out[i] = flat[int(lo)-first : int(hi)-first]
		}
	case t.Entries():
		flat, err := readRange[float64](dset, int(beg), int(end))
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] = flat[i : i+1]
		}
	default:
		return nil, &laserball.DataMismatchError{What: "dataset length", Expected: int(t.offsets[len(t.offsets)-1]), Got: length, Entry: beg}
	}
	return out, nil
}
