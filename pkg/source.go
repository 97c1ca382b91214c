package laserball

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

const DefaultTreeName = "output"

// Source is a dataset that can be read in batches.
type Source interface {
	// NumEntries returns the total number of events, or -1 if unknown.
	NumEntries(ctx context.Context) (int64, error)
	Iterate(ctx context.Context, opts IterateOptions) (BatchIterator, error)
}

type IterateOptions struct {
	Expressions []string
	StepSize    StepSize
	NumWorkers  int
}

// BatchIterator yields batches until it returns io.EOF.
type BatchIterator interface {
	Next(ctx context.Context) (*EventBatch, error)
	Close() error
}

// Table is one tree of one file.
type Table interface {
	Entries() int64
	// EntryBytes estimates the size of one entry, used to turn byte step
	// sizes into entry counts.
	EntryBytes() int64
	// Scan reads the named fields (all when nil) in chunks of at most rows
	// entries and hands every chunk to emit, in file order.
	Scan(ctx context.Context, fields []string, rows int64, emit func(*EventBatch) error) error
	Close() error
}

// TableOpener opens the tree named tree in file fname.
type TableOpener func(fname string, tree string) (Table, error)

var (
	formatsMu sync.RWMutex
	formats   = map[string]TableOpener{}
)

// RegisterFormat makes files with the given extension readable by
// FileSource. Packages providing a format call it from init.
func RegisterFormat(ext string, opener TableOpener) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[strings.ToLower(ext)] = opener
}

func init() {
	RegisterFormat(".root", func(fname, tree string) (Table, error) { return OpenROOTTable(fname, tree) })
	RegisterFormat(".parquet", func(fname, tree string) (Table, error) { return OpenParquetTable(fname) })
}

// OpenTable opens fname with the opener registered for its extension.
func OpenTable(fname string, tree string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(fname))
	formatsMu.RLock()
	opener, ok := formats[ext]
	formatsMu.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Param: "source", Reason: fmt.Sprintf("unsupported file type %q for %s", ext, fname)}
	}
	if tree == "" {
		tree = DefaultTreeName
	}
	return opener(fname, tree)
}

var errNoFiles = errors.New("no files match pattern")

// SplitTreePath splits "pattern:tree" at the last colon. Without a colon
// the tree is DefaultTreeName.
func SplitTreePath(path string) (string, string) {
	i := strings.LastIndex(path, ":")
	if i < 0 {
		return path, DefaultTreeName
	}
	tree := path[i+1:]
	if tree == "" || strings.ContainsAny(tree, `/\`) {
		return path, DefaultTreeName
	}
	return path[:i], tree
}

// FileSource reads the same tree from a list of files.
type FileSource struct {
	Files []string
	Tree  string
}

// OpenSource expands "glob:tree" into a FileSource. The glob supports
// doublestar patterns.
func OpenSource(path string) (*FileSource, error) {
	pattern, tree := SplitTreePath(path)
	files, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}
	if len(files) == 0 {
		return nil, &ErrOpenFile{Filename: pattern, Err: errNoFiles}
	}
	sort.Strings(files)
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Found %d files for %s", len(files), path), "source")
	}
	return NewFileSource(files, tree), nil
}

func NewFileSource(files []string, tree string) *FileSource {
	if tree == "" {
		tree = DefaultTreeName
	}
	return &FileSource{Files: files, Tree: tree}
}

func (s *FileSource) NumEntries(ctx context.Context) (int64, error) {
	var total int64
	for _, fname := range s.Files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t, err := OpenTable(fname, s.Tree)
		if err != nil {
			return 0, err
		}
		total += t.Entries()
		if err := t.Close(); err != nil {
			return 0, fmt.Errorf("error closing %s: %w", fname, err)
		}
	}
	return total, nil
}

func (s *FileSource) Iterate(ctx context.Context, opts IterateOptions) (BatchIterator, error) {
	if len(s.Files) == 0 {
		return nil, &ErrOpenFile{Filename: s.Tree, Err: errNoFiles}
	}
	return startReaders(ctx, s.Files, s.Tree, opts), nil
}
