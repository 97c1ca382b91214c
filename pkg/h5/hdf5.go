// Package h5 reads and writes laserball data in HDF5 files. It is kept
// apart from the laserball package because it needs cgo and libhdf5;
// importing it registers the .h5 and .hdf5 source formats.
package h5

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

// Layout of the files written by Writer.
const (
	HistogramsGroup = "histograms"
	OccupancyTable  = "occupancy"
	GeometryGroup   = "geometry"
	GeometryTable   = "channels"
	OffsetsDataset  = "entry_offsets"
)

const tableChunk = 32768

type occupancyHDF5 struct {
	id     int32
	lcn    int32
	pmt    int32
	zpos   float64
	degree int32
	nhits  int64
}

type channelHDF5 struct {
	id  int32
	lcn int32
	pmt int32
	x   float64
	y   float64
	z   float64
	u   float64
	v   float64
	w   float64
}

// location is a file or a group.
type location interface {
	CreateDatasetWith(name string, dtype *hdf5.Datatype, dspace *hdf5.Dataspace, dcpl *hdf5.PropList) (*hdf5.Dataset, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

func unlimited() uint {
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	return uint(unlimitedDims)
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &laserball.ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func datasetCreateProps(chunk uint, compressionLevel int) (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	if err := plist.SetChunk([]uint{chunk}); err != nil {
		plist.Close()
		return nil, err
	}
	if compressionLevel > 0 {
		if err := plist.SetDeflate(compressionLevel); err != nil {
			plist.Close()
			return nil, err
		}
	}
	return plist, nil
}

// createArray creates an extendable one dimensional dataset of dtype.
func createArray(group location, name string, dtype *hdf5.Datatype, compressionLevel int) (*hdf5.Dataset, error) {
	space, err := hdf5.CreateSimpleDataspace([]uint{0}, []uint{unlimited()})
	if err != nil {
		return nil, &laserball.ErrCreateTable{TableName: name, Err: err}
	}
	defer space.Close()

	plist, err := datasetCreateProps(tableChunk, compressionLevel)
	if err != nil {
		return nil, &laserball.ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		return nil, &laserball.ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

// createTable creates an extendable table whose rows are datatype values.
func createTable(group location, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &laserball.ErrCreateTable{TableName: name, Err: err}
	}
	return createArray(group, name, dtype, compressionLevel)
}

// writeArrayToTable appends data after the first offset rows of dataset.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, offset int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	rowsInFile := uint(offset)
	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		return fmt.Errorf("error extending dataset: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{rowsInFile}, nil, []uint{length}, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

func datasetLen(dset *hdf5.Dataset) (int, error) {
	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return 0, err
	}
	if len(dims) != 1 {
		return 0, fmt.Errorf("expected a one dimensional dataset, got %d dimensions", len(dims))
	}
	return int(dims[0]), nil
}

// readRange reads rows [beg, end) of a one dimensional dataset, converting
// the stored type to T.
func readRange[T any](dset *hdf5.Dataset, beg, end int) ([]T, error) {
	out := make([]T, end-beg)
	if len(out) == 0 {
		return out, nil
	}
	count := []uint{uint(end - beg)}
	memspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()
	filespace := dset.Space()
	defer filespace.Close()
	if err := filespace.SelectHyperslab([]uint{uint(beg)}, nil, count, nil); err != nil {
		return nil, err
	}
	if err := dset.ReadSubset(&out, memspace, filespace); err != nil {
		return nil, err
	}
	return out, nil
}
