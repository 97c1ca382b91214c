package laserball

// Configuration is shared by every command. Each command reads the keys it
// needs and ignores the rest.
type Configuration struct {
	Verbosity  int      `json:"verbosity" mapstructure:"verbosity"`
	Input      string   `json:"input" mapstructure:"input"`
	DataDir    string   `json:"data_dir" mapstructure:"data_dir"`
	TreeName   string   `json:"tree_name" mapstructure:"tree_name"`
	FileOut    string   `json:"file_out" mapstructure:"file_out"`
	OutputDir  string   `json:"output_dir" mapstructure:"output_dir"`
	StepSize   string   `json:"step_size" mapstructure:"step_size"`
	NumWorkers int      `json:"num_workers" mapstructure:"num_workers"`
	Target     string   `json:"target" mapstructure:"target"`
	Branches   []string `json:"branches" mapstructure:"branches"`

	// Geometry
	GeometryFile string `json:"geometry_file" mapstructure:"geometry_file"`
	GeometryTree string `json:"geometry_tree" mapstructure:"geometry_tree"`
	UseDB        bool   `json:"use_db" mapstructure:"use_db"`
	Host         string `json:"host" mapstructure:"host"`
	User         string `json:"user" mapstructure:"user"`
	Passwd       string `json:"pass" mapstructure:"pass"`
	DBName       string `json:"dbname" mapstructure:"dbname"`
	RunNumber    int    `json:"run_number" mapstructure:"run_number"`

	// GeometryLayout selects the metadata branch names, "sim" or "data".
	GeometryLayout string `json:"geometry_layout" mapstructure:"geometry_layout"`

	// Binning, numpy arange semantics
	BinStart float64 `json:"bin_start" mapstructure:"bin_start"`
	BinStop  float64 `json:"bin_stop" mapstructure:"bin_stop"`
	BinStep  float64 `json:"bin_step" mapstructure:"bin_step"`

	// Prompt cut
	RefractiveIndex       float64 `json:"refractive_index" mapstructure:"refractive_index"`
	TimeOffset            float64 `json:"time_offset" mapstructure:"time_offset"`
	PromptWindow          float64 `json:"prompt_window" mapstructure:"prompt_window"`
	RequireSingleCrossing bool    `json:"require_single_crossing" mapstructure:"require_single_crossing"`
	IDField               string  `json:"id_field" mapstructure:"id_field"`
	TimeField             string  `json:"time_field" mapstructure:"time_field"`
	CrossingsField        string  `json:"crossings_field" mapstructure:"crossings_field"`

	// Scans
	Wavelengths    []int              `json:"wavelengths" mapstructure:"wavelengths"`
	ZPositions     []float64          `json:"z_positions" mapstructure:"z_positions"`
	Degrees        []int              `json:"degrees" mapstructure:"degrees"`
	RunZPos        map[string]float64 `json:"run_zpos" mapstructure:"run_zpos"`
	ScanIDField    string             `json:"scan_id_field" mapstructure:"scan_id_field"`
	ScanTimeField  string             `json:"scan_time_field" mapstructure:"scan_time_field"`
	ScanTimeOffset float64            `json:"scan_time_offset" mapstructure:"scan_time_offset"`

	// Analysis
	OnlineFraction   float64   `json:"online_fraction" mapstructure:"online_fraction"`
	CoincidenceCut   float64   `json:"coincidence_cut" mapstructure:"coincidence_cut"`
	CoincidenceIndex float64   `json:"coincidence_refractive_index" mapstructure:"coincidence_refractive_index"`
	PromptMin        float64   `json:"prompt_min" mapstructure:"prompt_min"`
	PromptMax        float64   `json:"prompt_max" mapstructure:"prompt_max"`
	BadChannels      []int     `json:"bad_channels" mapstructure:"bad_channels"`
	CableDelays      []float64 `json:"cable_delays" mapstructure:"cable_delays"`
	Plot             bool      `json:"plot" mapstructure:"plot"`
	PlotFormat       string    `json:"plot_format" mapstructure:"plot_format"`
	OutputFormat     string    `json:"output_format" mapstructure:"output_format"`
	CompressionLevel int       `json:"compression_level" mapstructure:"compression_level"`
}
