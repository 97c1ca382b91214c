package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	require.NoError(t, err)

	assert.Equal(t, laserball.DefaultTreeName, config.TreeName)
	assert.Equal(t, laserball.DefaultStepSize, config.StepSize)
	assert.Equal(t, 1, config.NumWorkers)
	assert.Equal(t, "digitPMTID", config.IDField)
	assert.Equal(t, 1.34, config.RefractiveIndex)
	assert.Equal(t, 1.342, config.CoincidenceIndex)
	assert.Empty(t, config.CableDelays)
	assert.Equal(t, "fit_pmtid_Lognormal", config.ScanIDField)
	assert.Equal(t, "fit_time_Lognormal", config.ScanTimeField)
	assert.Zero(t, config.ScanTimeOffset)
	assert.Len(t, config.Wavelengths, 76)
	assert.Equal(t, 370, config.Wavelengths[0])
	assert.Equal(t, 520, config.Wavelengths[75])
	assert.Equal(t, laserball.BaselineDegree, config.Degrees[0])
	assert.Len(t, config.Degrees, 20)
	assert.Equal(t, -300.0, config.RunZPos["152"])
	assert.Contains(t, config.BadChannels, 127)
	assert.Equal(t, "sim", config.GeometryLayout)
}

func TestLoadConfigurationFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(fname, []byte(`{
		"input": "data/*.root:output",
		"num_workers": 8,
		"step_size": "5000",
		"bad_channels": [1, 2],
		"run_zpos": {"200": 42}
	}`), 0o644))

	config, err := LoadConfiguration(fname)
	require.NoError(t, err)
	assert.Equal(t, "data/*.root:output", config.Input)
	assert.Equal(t, 8, config.NumWorkers)
	assert.Equal(t, "5000", config.StepSize)
	assert.Equal(t, []int{1, 2}, config.BadChannels)
	assert.Equal(t, 42.0, config.RunZPos["200"])
	// untouched keys keep their defaults
	assert.Equal(t, "fitTime", config.TimeField)
}

func TestLoadConfigurationEnv(t *testing.T) {
	t.Setenv("LASERBALL_NUM_WORKERS", "3")
	t.Setenv("LASERBALL_TREE_NAME", "events")

	config, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, 3, config.NumWorkers)
	assert.Equal(t, "events", config.TreeName)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	t.Setenv("LASERBALL_STEP_SIZE", "-5")
	_, err = LoadConfiguration("")
	var cfgErr *laserball.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBins(t *testing.T) {
	config, err := LoadConfiguration("")
	require.NoError(t, err)
	edges, err := Bins(config).BinEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 271)
	assert.Equal(t, -0.5, edges[0])
	assert.Equal(t, 269.5, edges[270])
}

func TestGeometryBranches(t *testing.T) {
	b, err := GeometryBranches("data")
	require.NoError(t, err)
	assert.Equal(t, laserball.DataGeometryBranches, b)

	b, err = GeometryBranches("")
	require.NoError(t, err)
	assert.Equal(t, laserball.SimGeometryBranches, b)

	_, err = GeometryBranches("detector")
	assert.Error(t, err)
}

func TestLoadGeometryNeedsSource(t *testing.T) {
	config, err := LoadConfiguration("")
	require.NoError(t, err)
	_, err = LoadGeometry(config, NewLoggerTo(os.Stdout, os.Stderr))
	var cfgErr *laserball.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
