package laserball

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// fileIterator distributes files to a pool of readers. Batches from
// different files may interleave; the consumer is the only one touching
// the aggregated result.
type fileIterator struct {
	results chan *EventBatch
	group   *errgroup.Group
	cancel  context.CancelFunc
}

func startReaders(ctx context.Context, files []string, tree string, opts IterateOptions) *fileIterator {
	nWorkers := opts.NumWorkers
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > len(files) {
		nWorkers = len(files)
	}

	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	jobs := make(chan string, len(files))
	for _, fname := range files {
		jobs <- fname
	}
	close(jobs)

	results := make(chan *EventBatch, nWorkers)
	for w := 1; w <= nWorkers; w++ {
		id := w
		group.Go(func() error {
			return worker(gctx, id, tree, jobs, results, opts)
		})
	}
	go func() {
		group.Wait()
		close(results)
	}()

	return &fileIterator{results: results, group: group, cancel: cancel}
}

func worker(ctx context.Context, id int, tree string, jobs <-chan string, results chan<- *EventBatch, opts IterateOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d recovered from panic: %v", id, r)
		}
	}()

	for fname := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if verbosity > 1 {
			logger.Info(fmt.Sprintf("Worker %d reading %s", id, fname), "workers")
		}
		if err := readFile(ctx, fname, tree, results, opts); err != nil {
			return err
		}
	}
	return nil
}

func readFile(ctx context.Context, fname string, tree string, results chan<- *EventBatch, opts IterateOptions) error {
	table, err := OpenTable(fname, tree)
	if err != nil {
		return err
	}
	rows := opts.StepSize.EntriesFor(table.EntryBytes())
	err = table.Scan(ctx, opts.Expressions, rows, func(batch *EventBatch) error {
		batch.Source = fname
		select {
		case results <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	closeErr := table.Close()
	if err != nil {
		return fmt.Errorf("error reading %s: %w", fname, err)
	}
	if closeErr != nil {
		return fmt.Errorf("error closing %s: %w", fname, closeErr)
	}
	return nil
}

func (it *fileIterator) Next(ctx context.Context) (*EventBatch, error) {
	select {
	case batch, ok := <-it.results:
		if !ok {
			if err := it.group.Wait(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		return batch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the readers and waits for them.
func (it *fileIterator) Close() error {
	it.cancel()
	for range it.results {
	}
	err := it.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
