package laserball

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResults() MCResults {
	return MCResults{
		Index: 3,
		Edges: []float64{-0.5, 0.5, 1.5},
		Entries: []MCEntry{
			{ZPos: -300, Wavelength: 376, NHits: []int64{4, 2}, Norm: 3},
			{ZPos: 300, Wavelength: 376, NHits: []int64{0, 7}, Norm: 0.5},
		},
	}
}

func TestResultsStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, testResults()))

	var got MCResults
	require.NoError(t, ReadResults(&buf, &got))
	assert.Equal(t, testResults(), got)

	e, ok := got.Lookup(300, 376)
	require.True(t, ok)
	assert.Equal(t, []int64{0, 7}, e.NHits)
	_, ok = got.Lookup(300, 378)
	assert.False(t, ok)
}

func TestResultsFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "mc"+ResultsExt)
	require.NoError(t, SaveResults(fname, testResults()))

	var got MCResults
	require.NoError(t, LoadResults(fname, &got))
	assert.Equal(t, testResults(), got)

	err := LoadResults(filepath.Join(t.TempDir(), "missing"+ResultsExt), &got)
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

func TestReadResultsCorrupt(t *testing.T) {
	var got MCResults
	assert.Error(t, ReadResults(bytes.NewReader([]byte("not zstd")), &got))
}
