package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	laserball "github.com/eos-exp/laserball_go/pkg"
	"github.com/eos-exp/laserball_go/pkg/h5"
)

// LoadGeometry reads the channel table from the database when use_db is
// set, otherwise from geometry_file (HDF5 or ROOT metadata tree).
func LoadGeometry(config laserball.Configuration, logger laserball.Logger) (*laserball.Geometry, error) {
	if config.UseDB {
		dbConn, err := laserball.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		defer dbConn.Close()
		return laserball.LoadGeometryFromDB(dbConn, config.RunNumber)
	}
	if config.GeometryFile == "" {
		return nil, &laserball.ConfigurationError{Param: "geometry_file", Reason: "no geometry file and use_db is false"}
	}

	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading geometry from %s", config.GeometryFile), "geometry")
	}
	switch strings.ToLower(filepath.Ext(config.GeometryFile)) {
	case ".h5", ".hdf5":
		return h5.LoadGeometryHDF5(config.GeometryFile)
	}
	branches, err := GeometryBranches(config.GeometryLayout)
	if err != nil {
		return nil, err
	}
	return laserball.LoadGeometryROOT(config.GeometryFile, config.GeometryTree, branches)
}

func GeometryBranches(layout string) (laserball.GeometryBranches, error) {
	switch layout {
	case "", "sim":
		return laserball.SimGeometryBranches, nil
	case "data":
		return laserball.DataGeometryBranches, nil
	}
	return laserball.GeometryBranches{}, &laserball.ConfigurationError{Param: "geometry_layout", Reason: fmt.Sprintf("unknown layout %q", layout)}
}
