package h5

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"gonum.org/v1/gonum/spatial/r3"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

// LoadGeometryHDF5 reads the channel table written by Writer.WriteGeometry.
func LoadGeometryHDF5(fname string) (*laserball.Geometry, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &laserball.ErrOpenFile{Filename: fname, Err: err}
	}
	defer f.Close()

	path := GeometryGroup + "/" + GeometryTable
	data, err := readAll[channelHDF5](f, path)
	if err != nil {
		return nil, fmt.Errorf("error reading geometry from %s: %w", fname, err)
	}
	n := len(data)

	channels := make([]laserball.Channel, n)
	for i, ch := range data {
		channels[i] = laserball.Channel{
			ID:        int(ch.id),
			LCN:       int(ch.lcn),
			Type:      int(ch.pmt),
			Position:  r3.Vec{X: ch.x, Y: ch.y, Z: ch.z},
			Direction: r3.Vec{X: ch.u, Y: ch.v, Z: ch.w},
		}
	}
	return laserball.NewGeometry(channels)
}
