package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	laserball "github.com/eos-exp/laserball_go/pkg"
)

// EnvPrefix prefixes the environment variables overriding configuration
// keys, e.g. LASERBALL_NUM_WORKERS.
const EnvPrefix = "LASERBALL"

var defaultBadChannels = []int{7, 15, 28, 31, 40, 46, 47, 63, 79, 91, 95, 111, 122, 124,
	125, 126, 127, 142, 143, 159, 175, 178, 179, 191, 192, 197, 200, 207,
	208, 212, 216, 218, 220, 221, 222, 223, 236, 237, 238, 239, 252, 253,
	254, 255, 256, 257, 260, 263, 264, 268, 269, 270, 271, 272, 273, 274,
	275, 276, 277, 278, 279, 280, 281, 282, 283, 284, 285, 286, 287, 288,
	289, 290, 291, 292, 293, 294, 295, 296, 297, 298, 299}

var defaultRunZPos = map[string]float64{
	"149": 0, "150": -100, "151": -200, "152": -300, "153": -400, "154": -500, "155": -600,
	"156": 100, "157": 200, "158": 300, "159": 400, "160": 500, "161": 600,
}

func arangeInt(start, stop, step int) []int {
	var out []int
	for v := start; v < stop; v += step {
		out = append(out, v)
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbosity", 0)
	v.SetDefault("input", "")
	v.SetDefault("data_dir", ".")
	v.SetDefault("tree_name", laserball.DefaultTreeName)
	v.SetDefault("file_out", "")
	v.SetDefault("output_dir", ".")
	v.SetDefault("step_size", laserball.DefaultStepSize)
	v.SetDefault("num_workers", 1)
	v.SetDefault("target", "digitPMTID")
	v.SetDefault("branches", []string{"digitNCrossings", "digitPMTID", "fitTime"})

	v.SetDefault("geometry_file", "")
	v.SetDefault("geometry_tree", "meta")
	v.SetDefault("geometry_layout", "sim")
	v.SetDefault("use_db", false)
	v.SetDefault("host", "localhost")
	v.SetDefault("user", "eosreader")
	v.SetDefault("pass", "readonly")
	v.SetDefault("dbname", "EOS")
	v.SetDefault("run_number", 0)

	v.SetDefault("bin_start", -0.5)
	v.SetDefault("bin_stop", 270.5)
	v.SetDefault("bin_step", 1.0)

	v.SetDefault("refractive_index", laserball.DefaultRefractiveIndex)
	v.SetDefault("time_offset", 6.0)
	v.SetDefault("prompt_window", 10.0)
	v.SetDefault("require_single_crossing", true)
	v.SetDefault("id_field", "digitPMTID")
	v.SetDefault("time_field", "fitTime")
	v.SetDefault("crossings_field", "digitNCrossings")

	v.SetDefault("wavelengths", arangeInt(370, 521, 2))
	v.SetDefault("z_positions", []float64{-600, -500, -400, -300, -200, -100, 0, 100, 200, 300, 400, 500, 600})
	v.SetDefault("degrees", append([]int{laserball.BaselineDegree}, arangeInt(0, 91, 5)...))
	v.SetDefault("run_zpos", defaultRunZPos)
	v.SetDefault("scan_id_field", "fit_pmtid_Lognormal")
	v.SetDefault("scan_time_field", "fit_time_Lognormal")
	v.SetDefault("scan_time_offset", 0.0)

	v.SetDefault("online_fraction", 0.1)
	v.SetDefault("coincidence_cut", 0.01)
	// water at 425 nm
	v.SetDefault("coincidence_refractive_index", 1.342)
	v.SetDefault("prompt_min", -20.0)
	v.SetDefault("prompt_max", 20.0)
	v.SetDefault("bad_channels", defaultBadChannels)
	v.SetDefault("cable_delays", []float64{})
	v.SetDefault("plot", false)
	v.SetDefault("plot_format", "png")
	v.SetDefault("output_format", "msgpack")
	v.SetDefault("compression_level", 4)
}

// LoadConfiguration sets the defaults, overlays the file when one is given
// and applies LASERBALL_* environment overrides.
func LoadConfiguration(filename string) (laserball.Configuration, error) {
	var config laserball.Configuration

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := laserball.ParseStepSize(config.StepSize); err != nil {
		return config, err
	}
	return config, nil
}

func PrintConfiguration(config laserball.Configuration, logger laserball.Logger) {
	logger.Info(fmt.Sprintf("Input: %s", config.Input), "config")
	logger.Info(fmt.Sprintf("Data dir: %s", config.DataDir), "config")
	logger.Info(fmt.Sprintf("Tree name: %s", config.TreeName), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Output dir: %s", config.OutputDir), "config")
	logger.Info(fmt.Sprintf("Output format: %s", config.OutputFormat), "config")
	logger.Info(fmt.Sprintf("Step size: %s", config.StepSize), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Target: %s", config.Target), "config")
	logger.Info(fmt.Sprintf("Branches: %v", config.Branches), "config")
	logger.Info(fmt.Sprintf("Geometry file: %s", config.GeometryFile), "config")
	logger.Info(fmt.Sprintf("Geometry tree: %s (%s)", config.GeometryTree, config.GeometryLayout), "config")
	logger.Info(fmt.Sprintf("Use DB: %t", config.UseDB), "config")
	if config.UseDB {
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
		logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	}
	logger.Info(fmt.Sprintf("Bins: [%v, %v) step %v", config.BinStart, config.BinStop, config.BinStep), "config")
	logger.Info(fmt.Sprintf("Refractive index: %v", config.RefractiveIndex), "config")
	logger.Info(fmt.Sprintf("Prompt window: %v +- %v ns", config.TimeOffset, config.PromptWindow), "config")
	logger.Info(fmt.Sprintf("Single crossing: %t", config.RequireSingleCrossing), "config")
	logger.Info(fmt.Sprintf("Fields: id %s, time %s, crossings %s", config.IDField, config.TimeField, config.CrossingsField), "config")
	logger.Info(fmt.Sprintf("Wavelengths: %v", config.Wavelengths), "config")
	logger.Info(fmt.Sprintf("Z positions: %v", config.ZPositions), "config")
	logger.Info(fmt.Sprintf("Degrees: %v", config.Degrees), "config")
	logger.Info(fmt.Sprintf("Scan fields: id %s, time %s, offset %v ns", config.ScanIDField, config.ScanTimeField, config.ScanTimeOffset), "config")
	logger.Info(fmt.Sprintf("Online fraction: %v", config.OnlineFraction), "config")
	logger.Info(fmt.Sprintf("Coincidence cut: %v", config.CoincidenceCut), "config")
	logger.Info(fmt.Sprintf("Coincidence refractive index: %v", config.CoincidenceIndex), "config")
	logger.Info(fmt.Sprintf("Cable delays: %d", len(config.CableDelays)), "config")
	logger.Info(fmt.Sprintf("Bad channels: %d", len(config.BadChannels)), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}

// Bins returns the configured arange binning.
func Bins(config laserball.Configuration) laserball.BinParams {
	return laserball.BinParams{Arange: &laserball.Arange{Start: config.BinStart, Stop: config.BinStop, Step: config.BinStep}}
}
