package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/eos-exp/laserball_go/internal/cli"
	laserball "github.com/eos-exp/laserball_go/pkg"
	"github.com/eos-exp/laserball_go/pkg/h5"
)

var (
	logger        = cli.NewLogger()
	configuration laserball.Configuration
)

// convert copies the configured branches of every input file into one
// HDF5 file readable as a laserball source, plus the channel table.
func main() {
	configFilename := flag.String("config", "", "Configuration file path")
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

	start := time.Now()
	if err := run(context.Background()); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Total time: %d ms", time.Since(start).Milliseconds()), "convert")
}

func run(ctx context.Context) (err error) {
	if configuration.Input == "" || configuration.FileOut == "" {
		return &laserball.ConfigurationError{Param: "input", Reason: "input and file_out are required"}
	}
	source, err := laserball.OpenSource(configuration.Input)
	if err != nil {
		return err
	}
	step, err := laserball.ParseStepSize(configuration.StepSize)
	if err != nil {
		return err
	}

	writer, err := h5.NewWriter(configuration.FileOut, configuration.CompressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, writer.Close())
	}()

	if configuration.UseDB || configuration.GeometryFile != "" {
		geometry, err := cli.LoadGeometry(configuration, logger)
		if err != nil {
			return fmt.Errorf("error loading geometry: %w", err)
		}
		if err := writer.WriteGeometry(geometry); err != nil {
			return err
		}
	}

	total, err := source.NumEntries(ctx)
	if err != nil {
		return err
	}
	progress := laserball.NewLogProgress(configuration.Input)
	progress.Start(total)
	defer progress.Finish()

	// a single reader keeps the entries in file order
	it, err := source.Iterate(ctx, laserball.IterateOptions{
		Expressions: configuration.Branches,
		StepSize:    step,
		NumWorkers:  1,
	})
	if err != nil {
		return err
	}
	defer it.Close()

	for {
		batch, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading batch: %w", err)
		}
		if err := writer.WriteBatch(source.Tree, batch); err != nil {
			return err
		}
		progress.Update(batch.Len())
	}
}
