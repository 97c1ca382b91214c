package laserball

import (
	"context"
	"io"
)

// MemorySource serves batches already held in memory, re-chunked to the
// requested step size. Chunks never span two input batches.
type MemorySource struct {
	batches []*EventBatch
}

func NewMemorySource(batches ...*EventBatch) *MemorySource {
	return &MemorySource{batches: batches}
}

func (s *MemorySource) NumEntries(ctx context.Context) (int64, error) {
	var total int64
	for _, b := range s.batches {
		total += int64(b.Len())
	}
	return total, nil
}

func (s *MemorySource) entryBytes() int64 {
	var bytes, entries int64
	for _, b := range s.batches {
		bytes += b.Bytes()
		entries += int64(b.Len())
	}
	if entries == 0 {
		return 1
	}
	return bytes / entries
}

func (s *MemorySource) Iterate(ctx context.Context, opts IterateOptions) (BatchIterator, error) {
	return &memoryIterator{
		batches: s.batches,
		fields:  opts.Expressions,
		rows:    int(opts.StepSize.EntriesFor(s.entryBytes())),
	}, nil
}

type memoryIterator struct {
	batches []*EventBatch
	fields  []string
	rows    int
	current int
	offset  int
}

func (it *memoryIterator) Next(ctx context.Context) (*EventBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for it.current < len(it.batches) && it.offset >= it.batches[it.current].Len() {
		it.current++
		it.offset = 0
	}
	if it.current >= len(it.batches) {
		return nil, io.EOF
	}
	batch := it.batches[it.current]
	end := min(it.offset+it.rows, batch.Len())
	chunk := batch.Slice(it.offset, end)
	it.offset = end
	return chunk.Project(it.fields)
}

func (it *memoryIterator) Close() error {
	return nil
}
