package h5

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

func readAll[T any](f *hdf5.File, path string) ([]T, error) {
	dset, err := f.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer dset.Close()
	n, err := datasetLen(dset)
	if err != nil {
		return nil, err
	}
	return readRange[T](dset, 0, n)
}

// ReadHistogram loads histograms/name from fname.
func ReadHistogram(fname string, name string) (*laserball.Histogram, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &laserball.ErrOpenFile{Filename: fname, Err: err}
	}
	defer f.Close()

	base := HistogramsGroup + "/" + name
	edges, err := readAll[float64](f, base+"/edges")
	if err != nil {
		return nil, err
	}
	counts, err := readAll[int64](f, base+"/counts")
	if err != nil {
		return nil, err
	}
	h, err := laserball.NewHistogram(edges)
	if err != nil {
		return nil, err
	}
	if len(counts) != h.NBins() {
		return nil, &laserball.DataMismatchError{What: base + " counts", Expected: h.NBins(), Got: len(counts)}
	}
	copy(h.Counts, counts)
	return h, nil
}

// ReadOccupancy loads the occupancy table of fname.
func ReadOccupancy(fname string) ([]laserball.OccupancyRow, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &laserball.ErrOpenFile{Filename: fname, Err: err}
	}
	defer f.Close()

	data, err := readAll[occupancyHDF5](f, OccupancyTable)
	if err != nil {
		return nil, err
	}
	rows := make([]laserball.OccupancyRow, len(data))
	for i, r := range data {
		rows[i] = laserball.OccupancyRow{
			ID:     int(r.id),
			LCN:    int(r.lcn),
			Type:   int(r.pmt),
			ZPos:   r.zpos,
			Degree: int(r.degree),
			NHits:  r.nhits,
		}
	}
	return rows, nil
}
