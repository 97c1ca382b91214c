package laserball

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
)

// ZPosLabel names a source position the way the simulation files do:
// "300_up" above the center, "300_down" at or below it.
func ZPosLabel(zpos float64) string {
	z := strconv.FormatFloat(math.Abs(zpos), 'f', -1, 64)
	if zpos > 0 {
		return z + "_up"
	}
	return z + "_down"
}

// SimFile is the simulated laserball ntuple of one wavelength and position.
func SimFile(wavelength int, zpos float64) string {
	return fmt.Sprintf("eos_pbomb_%dnm_%s.ntuple.root", wavelength, ZPosLabel(zpos))
}

// AngleScanFile is the ntuple of one dichroic filter angle. The baseline
// degree names the scan without filter.
func AngleScanFile(degree int, zpos float64) string {
	if degree == BaselineDegree {
		return fmt.Sprintf("pbomb_baseline_%s.ntuple.root", ZPosLabel(zpos))
	}
	return fmt.Sprintf("pbomb_%d_deg_%s.ntuple.root", degree, ZPosLabel(zpos))
}

// RunPattern matches the processed ntuples of a detector run.
func RunPattern(dataDir string, run int) string {
	return filepath.Join(dataDir, fmt.Sprintf("run%d", run), "*.ntuple.root")
}

// FindRunFile returns the first file under dataDir/*/ whose path names
// the run, e.g. ".../run149_...root" but not ".../run1490...".
func FindRunFile(dataDir string, run int) (string, error) {
	files, err := doublestar.FilepathGlob(filepath.Join(dataDir, "*", "*.root"))
	if err != nil {
		return "", err
	}
	tag := regexp.MustCompile(fmt.Sprintf(`run%d(\D|$)`, run))
	for _, f := range files {
		if tag.MatchString(filepath.ToSlash(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("no file found for run %d in %s", run, dataDir)
}
