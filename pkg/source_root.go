package laserball

import (
	"context"
	"fmt"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// ROOTTable reads one TTree of a ROOT file with groot.
type ROOTTable struct {
	Filename string
	file     *riofs.File
	tree     rtree.Tree
	size     int64
}

func OpenROOTTable(fname string, treeName string) (*ROOTTable, error) {
	f, err := groot.Open(fname)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	obj, err := f.Get(treeName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error getting tree %q from %s: %w", treeName, fname, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		f.Close()
		return nil, fmt.Errorf("object %q in %s is a %T, not a tree", treeName, fname, obj)
	}
	var size int64
	if info, err := os.Stat(fname); err == nil {
		size = info.Size()
	}
	return &ROOTTable{Filename: fname, file: f, tree: tree, size: size}, nil
}

func (t *ROOTTable) Entries() int64 {
	return t.tree.Entries()
}

// EntryBytes uses the on-disk size, which underestimates the decompressed
// size of an entry.
func (t *ROOTTable) EntryBytes() int64 {
	n := t.tree.Entries()
	if n <= 0 {
		return 1
	}
	return max(t.size/n, 1)
}

func (t *ROOTTable) Close() error {
	return t.file.Close()
}

// Branches lists the readable variable names of the tree.
func (t *ROOTTable) Branches() []string {
	rvars := rtree.NewReadVars(t.tree)
	names := make([]string, len(rvars))
	for i, rv := range rvars {
		names[i] = readVarName(rv)
	}
	return names
}

func readVarName(rv rtree.ReadVar) string {
	if rv.Leaf != "" && rv.Leaf != rv.Name {
		return rv.Name + "." + rv.Leaf
	}
	return rv.Name
}

func (t *ROOTTable) readVars(fields []string) ([]rtree.ReadVar, []string, error) {
	all := rtree.NewReadVars(t.tree)
	if fields == nil {
		names := make([]string, len(all))
		for i, rv := range all {
			names[i] = readVarName(rv)
		}
		return all, names, nil
	}
	byName := make(map[string]rtree.ReadVar, len(all))
	for _, rv := range all {
		byName[readVarName(rv)] = rv
	}
	rvars := make([]rtree.ReadVar, len(fields))
	for i, name := range fields {
		rv, ok := byName[name]
		if !ok {
			return nil, nil, &ConfigurationError{
				Param:  "expressions",
				Reason: fmt.Sprintf("branch %q not found in %s", name, t.Filename),
			}
		}
		rvars[i] = rv
	}
	return rvars, fields, nil
}

func (t *ROOTTable) Scan(ctx context.Context, fields []string, rows int64, emit func(*EventBatch) error) error {
	return t.ScanRange(ctx, fields, 0, t.tree.Entries(), rows, emit)
}

// ScanRange is Scan restricted to entries [beg, end).
func (t *ROOTTable) ScanRange(ctx context.Context, fields []string, beg, end int64, rows int64, emit func(*EventBatch) error) error {
	if beg >= end {
		return nil
	}
	rvars, names, err := t.readVars(fields)
	if err != nil {
		return err
	}
	r, err := rtree.NewReader(t.tree, rvars, rtree.WithRange(beg, end))
	if err != nil {
		return fmt.Errorf("error creating tree reader: %w", err)
	}
	defer r.Close()

	cols := make([]Jagged, len(rvars))
	var start int64 = -1
	n := 0
	flush := func() error {
		fields := make(map[string]Jagged, len(names))
		for i, name := range names {
			fields[name] = cols[i]
			cols[i] = nil
		}
		batch, err := NewEventBatch(start, n, fields)
		if err != nil {
			return err
		}
		n = 0
		start = -1
		if err := ctx.Err(); err != nil {
			return err
		}
		return emit(batch)
	}

	err = r.Read(func(rctx rtree.RCtx) error {
		if start < 0 {
			start = rctx.Entry
		}
		for i, rv := range rvars {
			values, err := leafValues(rv.Value)
			if err != nil {
				return fmt.Errorf("branch %q: %w", names[i], err)
			}
			cols[i] = append(cols[i], values)
		}
		n++
		if int64(n) >= rows {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return flush()
	}
	return nil
}

// leafValues copies the current value of a read variable. Scalars become
// one-element slices.
func leafValues(ptr any) ([]float64, error) {
	switch v := ptr.(type) {
	case *bool:
		return []float64{boolToFloat(*v)}, nil
	case *int8:
		return []float64{float64(*v)}, nil
	case *int16:
		return []float64{float64(*v)}, nil
	case *int32:
		return []float64{float64(*v)}, nil
	case *int64:
		return []float64{float64(*v)}, nil
	case *uint8:
		return []float64{float64(*v)}, nil
	case *uint16:
		return []float64{float64(*v)}, nil
	case *uint32:
		return []float64{float64(*v)}, nil
	case *uint64:
		return []float64{float64(*v)}, nil
	case *float32:
		return []float64{float64(*v)}, nil
	case *float64:
		return []float64{*v}, nil
	case *[]bool:
		out := make([]float64, len(*v))
		for i, b := range *v {
			out[i] = boolToFloat(b)
		}
		return out, nil
	case *[]int8:
		return toFloat64s(*v), nil
	case *[]int16:
		return toFloat64s(*v), nil
	case *[]int32:
		return toFloat64s(*v), nil
	case *[]int64:
		return toFloat64s(*v), nil
	case *[]uint8:
		return toFloat64s(*v), nil
	case *[]uint16:
		return toFloat64s(*v), nil
	case *[]uint32:
		return toFloat64s(*v), nil
	case *[]uint64:
		return toFloat64s(*v), nil
	case *[]float32:
		return toFloat64s(*v), nil
	case *[]float64:
		return toFloat64s(*v), nil
	}
	return nil, fmt.Errorf("unsupported branch type %T", ptr)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
