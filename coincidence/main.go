package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
)

var (
	logger        = cli.NewLogger()
	configuration laserball.Configuration
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	runNumber := flag.Int("run", 0, "Run number")
	zpos := flag.Float64("zpos", 0, "Laserball z position in mm")
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

	if err := run(context.Background(), *runNumber, *zpos); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, runNumber int, zpos float64) error {
	fname, err := laserball.FindRunFile(configuration.DataDir, runNumber)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Processing file %s, laserball position: %v", fname, zpos), "coincidence")

	// channel positions of the processed data are indexed by LCN
	if !configuration.UseDB && configuration.GeometryFile == "" {
		configuration.GeometryFile = fname
		configuration.GeometryLayout = "data"
	}
	geometry, err := cli.LoadGeometry(configuration, logger)
	if err != nil {
		return fmt.Errorf("error loading geometry: %w", err)
	}
	step, err := laserball.ParseStepSize(configuration.StepSize)
	if err != nil {
		return err
	}

	res, err := laserball.Coincidence(ctx, laserball.NewFileSource([]string{fname}, "events"), laserball.CoincidenceOptions{
		Geometry:        geometry,
		Source:          r3.Vec{Z: zpos},
		RefractiveIndex: configuration.CoincidenceIndex,
		LCNField:        "lcn",
		TimeField:       "fitted_time",
		PromptMin:       configuration.PromptMin,
		PromptMax:       configuration.PromptMax,
		CableDelays:     configuration.CableDelays,
		BadChannels:     configuration.BadChannels,
		RateCut:         configuration.CoincidenceCut,
		StepSize:        step,
		NumWorkers:      configuration.NumWorkers,
		Progress:        laserball.NewLogProgress(fmt.Sprintf("Run %d", runNumber)),
	})
	if err != nil {
		return err
	}

	if configuration.Plot {
		out := filepath.Join(configuration.OutputDir, fmt.Sprintf("coincidence_run%d.%s", runNumber, configuration.PlotFormat))
		if err := laserball.PlotRates(res, fmt.Sprintf("Run %d", runNumber), out); err != nil {
			return err
		}
	}
	logger.Info(fmt.Sprintf("Run %d : Dichroicon relative light yield: %.2f", runNumber, res.RelativeLightYield), "coincidence")
	return nil
}
