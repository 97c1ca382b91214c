package laserball

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Transform maps the flattened target array element-wise. It must return a
// slice of the same length.
type Transform func(values []float64) ([]float64, error)

// CutFunc evaluates a selection over a batch.
type CutFunc func(batch *EventBatch) (Mask, error)

type AggregateOptions struct {
	Target TargetSelector
	// Expressions lists the fields to materialize. Nil reads every field.
	Expressions []string
	Bins        BinParams
	Transform   Transform
	Cut         CutFunc
	StepSize    StepSize
	NumWorkers  int
	Progress    ProgressSink
}

// Aggregate folds every batch of source into one histogram. For each batch
// the target array is selected, cut, flattened, transformed and binned, in
// that order, and the result is merged into the running total. Any error
// aborts the whole aggregation and no partial histogram is returned.
func Aggregate(ctx context.Context, source Source, opts AggregateOptions) (*Histogram, error) {
	if err := opts.Target.validate(); err != nil {
		return nil, err
	}
	edges, err := opts.Bins.BinEdges()
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, &ConfigurationError{Param: "source", Reason: "no source given"}
	}
	if name := opts.Target.FieldName(); name != "" && opts.Expressions != nil && !slices.Contains(opts.Expressions, name) {
		return nil, &ConfigurationError{
			Param:  "expressions",
			Reason: fmt.Sprintf("target field %q is not in %v", name, opts.Expressions),
		}
	}
	step := opts.StepSize
	if step.IsZero() {
		step, _ = ParseStepSize(DefaultStepSize)
	}
	progress := opts.Progress
	if progress == nil {
		progress = NopProgress{}
	}

	total, err := source.NumEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting entries: %w", err)
	}
	progress.Start(total)
	defer progress.Finish()

	it, err := source.Iterate(ctx, IterateOptions{
		Expressions: opts.Expressions,
		StepSize:    step,
		NumWorkers:  opts.NumWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("error iterating source: %w", err)
	}
	defer it.Close()

	var result *Histogram
	for {
		batch, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading batch: %w", err)
		}
		progress.Update(batch.Len())

		hist, err := histogramBatch(batch, edges, opts)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = hist
			continue
		}
		if err := result.Merge(hist); err != nil {
			var mismatch *DataMismatchError
			if errors.As(err, &mismatch) {
				mismatch.Entry = batch.Entry
			}
			return nil, err
		}
	}
	if result == nil {
		return NewHistogram(edges)
	}
	return result, nil
}

func histogramBatch(batch *EventBatch, edges []float64, opts AggregateOptions) (*Histogram, error) {
	target, err := opts.Target.Select(batch)
	if err != nil {
		return nil, fmt.Errorf("error selecting %v at entry %d: %w", opts.Target, batch.Entry, err)
	}
	if len(target) != batch.Len() {
		return nil, &DataMismatchError{What: "target event count", Expected: batch.Len(), Got: len(target), Entry: batch.Entry}
	}

	if opts.Cut != nil {
		mask, err := opts.Cut(batch)
		if err != nil {
			return nil, fmt.Errorf("error evaluating cut at entry %d: %w", batch.Entry, err)
		}
		target, err = mask.Apply(target, batch.Entry)
		if err != nil {
			return nil, err
		}
	}

	flat := target.Flatten()

	if opts.Transform != nil {
		transformed, err := opts.Transform(flat)
		if err != nil {
			return nil, fmt.Errorf("error transforming batch at entry %d: %w", batch.Entry, err)
		}
		if len(transformed) != len(flat) {
			return nil, &DataMismatchError{What: "transform output length", Expected: len(flat), Got: len(transformed), Entry: batch.Entry}
		}
		flat = transformed
	}

	hist, err := NewHistogram(edges)
	if err != nil {
		return nil, err
	}
	hist.Fill(flat)
	return hist, nil
}
