package laserball

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// GeometryBranches names the branches of the metadata tree. Empty names are
// not read: a missing ID or LCN defaults to the row index, a missing type
// or direction to zero.
type GeometryBranches struct {
	ID, LCN, Type string
	X, Y, Z       string
	U, V, W       string
}

// SimGeometryBranches matches the simulation ntuple metadata.
var SimGeometryBranches = GeometryBranches{
	ID: "pmtId", LCN: "pmtChannel", Type: "pmtType",
	X: "pmtX", Y: "pmtY", Z: "pmtZ",
	U: "pmtU", V: "pmtV", W: "pmtW",
}

// DataGeometryBranches matches the processed detector data metadata, where
// rows are already ordered by logical channel.
var DataGeometryBranches = GeometryBranches{
	X: "pmtx", Y: "pmty", Z: "pmtz",
}

// LoadGeometryROOT reads the first entry of the metadata tree.
func LoadGeometryROOT(fname string, treeName string, branches GeometryBranches) (*Geometry, error) {
	if treeName == "" {
		treeName = "meta"
	}
	table, err := OpenROOTTable(fname, treeName)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	var names []string
	for _, name := range []string{branches.ID, branches.LCN, branches.Type,
		branches.X, branches.Y, branches.Z, branches.U, branches.V, branches.W} {
		if name != "" {
			names = append(names, name)
		}
	}
	if branches.X == "" || branches.Y == "" || branches.Z == "" {
		return nil, &ConfigurationError{Param: "geometry", Reason: "position branches are required"}
	}

	var first *EventBatch
	err = table.ScanRange(context.Background(), names, 0, min(table.Entries(), 1), 1, func(b *EventBatch) error {
		first = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading geometry from %s: %w", fname, err)
	}
	if first == nil || first.Len() == 0 {
		return nil, fmt.Errorf("metadata tree %q in %s is empty", treeName, fname)
	}

	column := func(name string) ([]float64, error) {
		if name == "" {
			return nil, nil
		}
		values, err := first.Field(name)
		if err != nil {
			return nil, err
		}
		return values[0], nil
	}
	cols := make(map[string][]float64)
	for _, name := range names {
		values, err := column(name)
		if err != nil {
			return nil, err
		}
		cols[name] = values
	}

	n := len(cols[branches.X])
	for _, name := range names {
		if len(cols[name]) != n {
			return nil, &DataMismatchError{What: fmt.Sprintf("geometry branch %q length", name), Expected: n, Got: len(cols[name])}
		}
	}
	at := func(name string, i int, def float64) float64 {
		if name == "" {
			return def
		}
		return cols[name][i]
	}

	channels := make([]Channel, n)
	for i := range channels {
		channels[i] = Channel{
			ID:        int(at(branches.ID, i, float64(i))),
			LCN:       int(at(branches.LCN, i, float64(i))),
			Type:      int(at(branches.Type, i, 0)),
			Position:  r3.Vec{X: at(branches.X, i, 0), Y: at(branches.Y, i, 0), Z: at(branches.Z, i, 0)},
			Direction: r3.Vec{X: at(branches.U, i, 0), Y: at(branches.V, i, 0), Z: at(branches.W, i, 0)},
		}
	}
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Read %d channels from %s:%s", n, fname, treeName), "geometry")
	}
	return NewGeometry(channels)
}
