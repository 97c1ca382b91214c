package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
	"github.com/eos-exp/laserball_go/pkg/h5"
)

// Bottom 8 inch PMTs normalise the light yield of each position.
const bottom8inType = 4

var (
	logger        = cli.NewLogger()
	configuration laserball.Configuration
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	index := flag.Int("index", 0, "Index of the wavelength to aggregate")
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
	if configuration.Verbosity > 0 {
		cli.PrintConfiguration(configuration, logger)
	}

	if err := run(context.Background(), *index); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, index int) error {
	if index < 0 || index >= len(configuration.Wavelengths) {
		return fmt.Errorf("wavelength index %d out of range [0, %d)", index, len(configuration.Wavelengths))
	}
	if len(configuration.ZPositions) == 0 {
		return &laserball.ConfigurationError{Param: "z_positions", Reason: "no source positions"}
	}
	wvl := configuration.Wavelengths[index]
	zpositions := slices.Clone(configuration.ZPositions)
	slices.Sort(zpositions)

	// every input must exist before any aggregation starts
	files := make(map[float64]string, len(zpositions))
	for _, zpos := range zpositions {
		fname := filepath.Join(configuration.DataDir, laserball.SimFile(wvl, zpos))
		if _, err := os.Stat(fname); err != nil {
			return fmt.Errorf("sim file not found for %s: %w", filepath.Base(fname), err)
		}
		files[zpos] = fname
	}

	if !configuration.UseDB && configuration.GeometryFile == "" {
		configuration.GeometryFile = files[zpositions[0]]
	}
	geometry, err := cli.LoadGeometry(configuration, logger)
	if err != nil {
		return fmt.Errorf("error loading geometry: %w", err)
	}

	step, err := laserball.ParseStepSize(configuration.StepSize)
	if err != nil {
		return err
	}

	results := laserball.MCResults{Index: index}
	bottom8in := geometry.LCNsByType(bottom8inType)
	for _, zpos := range zpositions {
		start := time.Now()
		hist, err := aggregatePosition(ctx, geometry, files[zpos], zpos, step)
		if err != nil {
			return fmt.Errorf("error aggregating %s: %w", files[zpos], err)
		}
		norm, err := laserball.MeanCounts(hist, bottom8in)
		if err != nil {
			return err
		}
		results.Edges = hist.Edges
		results.Entries = append(results.Entries, laserball.MCEntry{
			ZPos:       zpos,
			Wavelength: wvl,
			NHits:      hist.Counts,
			Norm:       norm,
		})
		logger.Info(fmt.Sprintf("%d nm at z=%v: %d prompt hits, bottom 8in mean %.2f (%d ms)",
			wvl, zpos, hist.Entries(), norm, time.Since(start).Milliseconds()), "aggregate")

		if configuration.Plot {
			fname := filepath.Join(configuration.OutputDir, fmt.Sprintf("nhit_%dnm_%s.%s", wvl, laserball.ZPosLabel(zpos), configuration.PlotFormat))
			title := fmt.Sprintf("%d nm, z = %v mm", wvl, zpos)
			if err := laserball.PlotHistogram(hist, title, "Logical Channel Number", fname); err != nil {
				return err
			}
		}
	}
	return save(index, geometry, results)
}

func aggregatePosition(ctx context.Context, geometry *laserball.Geometry, fname string, zpos float64, step laserball.StepSize) (*laserball.Histogram, error) {
	prompt := laserball.PromptCut{
		Geometry:        geometry,
		Source:          r3.Vec{Z: zpos},
		RefractiveIndex: configuration.RefractiveIndex,
		Offset:          configuration.TimeOffset,
		Window:          configuration.PromptWindow,
		IDField:         configuration.IDField,
		TimeField:       configuration.TimeField,
	}
	if configuration.RequireSingleCrossing {
		prompt.CrossingsField = configuration.CrossingsField
	}
	cut, err := prompt.Func()
	if err != nil {
		return nil, err
	}

	return laserball.Aggregate(ctx, laserball.NewFileSource([]string{fname}, configuration.TreeName), laserball.AggregateOptions{
		Target:      laserball.ByFieldName(configuration.Target),
		Expressions: configuration.Branches,
		Bins:        cli.Bins(configuration),
		Transform:   geometry.LCNTransform(),
		Cut:         cut,
		StepSize:    step,
		NumWorkers:  configuration.NumWorkers,
		Progress:    laserball.NewLogProgress(filepath.Base(fname)),
	})
}

func save(index int, geometry *laserball.Geometry, results laserball.MCResults) error {
	if err := os.MkdirAll(configuration.OutputDir, 0o755); err != nil {
		return err
	}
	switch configuration.OutputFormat {
	case "hdf5":
		fname := filepath.Join(configuration.OutputDir, fmt.Sprintf("mc_aggregated_nhit.%d.h5", index))
		writer, err := h5.NewWriter(fname, configuration.CompressionLevel)
		if err != nil {
			return err
		}
		for _, e := range results.Entries {
			h := &laserball.Histogram{Counts: e.NHits, Edges: results.Edges}
			name := fmt.Sprintf("%dnm_%s", e.Wavelength, laserball.ZPosLabel(e.ZPos))
			if err := writer.WriteHistogram(name, h); err != nil {
				writer.Close()
				return err
			}
		}
		if err := writer.WriteGeometry(geometry); err != nil {
			writer.Close()
			return err
		}
		logger.Info(fmt.Sprintf("Writing %s", fname), "aggregate")
		return writer.Close()
	case "", "msgpack":
		fname := filepath.Join(configuration.OutputDir, fmt.Sprintf("mc_aggregated_nhit.%d%s", index, laserball.ResultsExt))
		logger.Info(fmt.Sprintf("Writing %s", fname), "aggregate")
		return laserball.SaveResults(fname, results)
	}
	return &laserball.ConfigurationError{Param: "output_format", Reason: fmt.Sprintf("unknown format %q", configuration.OutputFormat)}
}
