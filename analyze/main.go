package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
	"github.com/eos-exp/laserball_go/pkg/h5"
)

var (
	logger        = cli.NewLogger()
	configuration laserball.Configuration
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	angleTable := flag.String("angle", "angle_scan.parquet", "Angle scan occupancy table")
	runTable := flag.String("run", "run_scan.parquet", "Detector data occupancy table, empty to skip")
	simTable := flag.String("sim", "sim_scan.parquet", "Laserball simulation occupancy table, empty to skip")
	flag.Parse()

	var err error
	configuration, err = cli.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	laserball.SetLogger(logger)
	laserball.SetVerbosity(configuration.Verbosity)

	tables := []struct {
		fname string
		label string
		curve laserball.RatioCurve
	}{
		{*angleTable, "", laserball.RatioCurve{Dashed: true}},
		{*runTable, "Eos data", laserball.RatioCurve{Color: color.RGBA{A: 255}}},
		{*simTable, "Laserball Sim", laserball.RatioCurve{Color: color.RGBA{R: 255, A: 255}}},
	}

	var curves []laserball.RatioCurve
	for _, t := range tables {
		if t.fname == "" {
			continue
		}
		series, err := ratios(t.fname)
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		for i := range series {
			if t.label != "" {
				series[i].Label = t.label
			}
			logSeries(series[i])
		}
		curve := t.curve
		curve.Series = series
		curves = append(curves, curve)
	}

	fname := configuration.FileOut
	if fname == "" {
		fname = filepath.Join(configuration.OutputDir, "dichroicon_ratio."+configuration.PlotFormat)
	}
	if err := laserball.PlotRatios(curves, "Normalized dichroicon occupancy", fname); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Plot saved to %s", fname), "analyze")
}

// ratios applies the online mask to a table and returns the dichroicon to
// barrel mean occupancy ratio per degree.
func ratios(fname string) ([]laserball.RatioSeries, error) {
	rows, err := readTable(fname)
	if err != nil {
		return nil, err
	}
	online, err := laserball.FilterRows(rows, laserball.OnlineMask(rows, configuration.OnlineFraction))
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("%s: %d of %d channels online", fname, len(online), len(rows)), "analyze")
	return laserball.NormalizedRatio(online, laserball.TypeDichroicon, laserball.TypeBarrel), nil
}

func readTable(fname string) ([]laserball.OccupancyRow, error) {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".h5", ".hdf5":
		return h5.ReadOccupancy(fname)
	}
	return laserball.ReadOccupancyParquet(fname)
}

func logSeries(s laserball.RatioSeries) {
	if configuration.Verbosity == 0 {
		return
	}
	for _, p := range s.Points {
		logger.Info(fmt.Sprintf("%s: z=%v ratio=%.4f", s.Label, p.ZPos, p.Ratio), "analyze")
	}
}
