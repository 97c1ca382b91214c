package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
	"github.com/eos-exp/laserball_go/pkg/h5"
)

// The laserball simulation is run at a single wavelength.
const simWavelength = 514

var (
	logger        = cli.NewLogger()
	configuration laserball.Configuration
)

// fieldFlags override the scan_* configuration keys, only when given on
// the command line.
type fieldFlags struct {
	fs        *flag.FlagSet
	idField   *string
	timeField *string
	offset    *float64
}

func newFieldFlags(fs *flag.FlagSet) *fieldFlags {
	return &fieldFlags{
		fs:        fs,
		idField:   fs.String("id-field", "", "Branch with the hit channel ids (default scan_id_field)"),
		timeField: fs.String("time-field", "", "Branch with the hit times (default scan_time_field)"),
		offset:    fs.Float64("offset", 0, "Prompt window center in ns (default scan_time_offset)"),
	}
}

func (f *fieldFlags) apply(config *laserball.Configuration) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "id-field":
			config.ScanIDField = *f.idField
		case "time-field":
			config.ScanTimeField = *f.timeField
		case "offset":
			config.ScanTimeOffset = *f.offset
		}
	})
	config.IDField = config.ScanIDField
	config.TimeField = config.ScanTimeField
	config.TimeOffset = config.ScanTimeOffset
}

type position struct {
	label  string
	source laserball.Source
	zpos   float64
	degree int
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	mode := flag.String("mode", "angle", "Scan to merge: angle, sim or run")
	fields := newFieldFlags(flag.CommandLine)
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
	fields.apply(&configuration)
	if configuration.Verbosity > 0 {
		cli.PrintConfiguration(configuration, logger)
	}

	positions, err := scanPositions(*mode)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if err := run(context.Background(), *mode, positions); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func scanPositions(mode string) ([]position, error) {
	var positions []position
	switch mode {
	case "angle":
		for _, deg := range configuration.Degrees {
			for _, zpos := range configuration.ZPositions {
				fname := filepath.Join(configuration.DataDir, laserball.AngleScanFile(deg, zpos))
				positions = append(positions, position{
					label:  filepath.Base(fname),
					source: laserball.NewFileSource([]string{fname}, configuration.TreeName),
					zpos:   zpos,
					degree: deg,
				})
			}
		}
	case "sim":
		for _, zpos := range configuration.ZPositions {
			fname := filepath.Join(configuration.DataDir, laserball.SimFile(simWavelength, zpos))
			positions = append(positions, position{
				label:  filepath.Base(fname),
				source: laserball.NewFileSource([]string{fname}, configuration.TreeName),
				zpos:   zpos,
			})
		}
	case "run":
		runs := make([]int, 0, len(configuration.RunZPos))
		for key := range configuration.RunZPos {
			runNumber, err := strconv.Atoi(key)
			if err != nil {
				return nil, &laserball.ConfigurationError{Param: "run_zpos", Reason: fmt.Sprintf("invalid run number %q", key)}
			}
			runs = append(runs, runNumber)
		}
		sort.Ints(runs)
		for _, runNumber := range runs {
			pattern := laserball.RunPattern(configuration.DataDir, runNumber)
			source, err := laserball.OpenSource(pattern + ":" + configuration.TreeName)
			if err != nil {
				return nil, fmt.Errorf("run %d: %w", runNumber, err)
			}
			positions = append(positions, position{
				label:  fmt.Sprintf("Run %d", runNumber),
				source: source,
				zpos:   configuration.RunZPos[strconv.Itoa(runNumber)],
			})
		}
	default:
		return nil, &laserball.ConfigurationError{Param: "mode", Reason: fmt.Sprintf("unknown scan %q", mode)}
	}
	return positions, nil
}

func run(ctx context.Context, mode string, positions []position) error {
	if len(positions) == 0 {
		return &laserball.ConfigurationError{Param: "mode", Reason: fmt.Sprintf("no positions to scan for %q", mode)}
	}
	if !configuration.UseDB && configuration.GeometryFile == "" {
		if fs, ok := positions[0].source.(*laserball.FileSource); ok && len(fs.Files) > 0 {
			configuration.GeometryFile = fs.Files[0]
		}
	}
	geometry, err := cli.LoadGeometry(configuration, logger)
	if err != nil {
		return fmt.Errorf("error loading geometry: %w", err)
	}
	step, err := laserball.ParseStepSize(configuration.StepSize)
	if err != nil {
		return err
	}

	var rows []laserball.OccupancyRow
	for _, pos := range positions {
		cut, err := laserball.PromptCut{
			Geometry:        geometry,
			Source:          r3.Vec{Z: pos.zpos},
			RefractiveIndex: configuration.RefractiveIndex,
			Offset:          configuration.TimeOffset,
			Window:          configuration.PromptWindow,
			IDField:         configuration.IDField,
			TimeField:       configuration.TimeField,
		}.Func()
		if err != nil {
			return err
		}
		hist, err := laserball.Aggregate(ctx, pos.source, laserball.AggregateOptions{
			Target:      laserball.ByFieldName(configuration.IDField),
			Expressions: []string{configuration.IDField, configuration.TimeField},
			Bins:        laserball.ChannelBins(geometry.MaxID()),
			Cut:         cut,
			StepSize:    step,
			NumWorkers:  configuration.NumWorkers,
			Progress:    laserball.NewLogProgress(pos.label),
		})
		if err != nil {
			return fmt.Errorf("error aggregating %s: %w", pos.label, err)
		}
		posRows, err := laserball.OccupancyRows(hist, geometry, pos.zpos, pos.degree)
		if err != nil {
			return fmt.Errorf("%s: %w", pos.label, err)
		}
		rows = append(rows, posRows...)
	}

	if err := os.MkdirAll(configuration.OutputDir, 0o755); err != nil {
		return err
	}
	switch configuration.OutputFormat {
	case "hdf5":
		fname := outputName(mode, ".h5")
		writer, err := h5.NewWriter(fname, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		if err := writer.WriteOccupancy(rows); err != nil {
			writer.Close()
			return err
		}
		if err := writer.WriteGeometry(geometry); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	default:
		return laserball.SaveOccupancyParquet(outputName(mode, ".parquet"), rows)
	}
}

func outputName(mode string, ext string) string {
	if configuration.FileOut != "" {
		return configuration.FileOut
	}
	return filepath.Join(configuration.OutputDir, mode+"_scan"+ext)
}
