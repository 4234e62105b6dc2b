package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ic-timon/nnbench/ann"
)

// Config validation errors
var (
	ErrInvalidStage     = errors.New("stage must be runtime, accuracy or all")
	ErrInvalidPatchSize = errors.New("patch_size must be positive")
	ErrInvalidReps      = errors.New("reps must be positive")
	ErrInvalidAlpha     = errors.New("alpha must be positive and finite")
	ErrInvalidBatchSize = errors.New("batch_size must be positive")
	ErrInvalidWorkers   = errors.New("workers must be positive")
	ErrInvalidSizes     = errors.New("sizes must be non-empty and positive")
	ErrInvalidResizes   = errors.New("resizes must be non-empty and at least patch_size")
	ErrInvalidIndexes   = errors.New("indexes must name registered index kinds")
	ErrInvalidRecallK   = errors.New("recall_k must be positive")
	ErrInvalidImages    = errors.New("image_x and image_y must be set together")
	ErrInvalidLogFormat = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel  = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidIVFProbe  = errors.New("ivf_probe must be positive")
	ErrInvalidHNSW      = errors.New("hnsw_m and hnsw_ef must be positive")
)

// Config is the benchmark configuration. Environment variables use the NNBENCH_ prefix.
type Config struct {
	Stage       string   `envconfig:"STAGE" default:"runtime"`
	PatchSize   int      `envconfig:"PATCH_SIZE" default:"7"`
	Reps        int      `envconfig:"REPS" default:"50"`
	Alpha       float64  `envconfig:"ALPHA" default:"1"`
	BatchSize   int      `envconfig:"BATCH_SIZE" default:"256"`
	Workers     int      `envconfig:"WORKERS" default:"1"`
	Sizes       []int    `envconfig:"SIZES" default:"64,128,192,256,320,384,448,512"`
	Resizes     []int    `envconfig:"RESIZES" default:"64,128"`
	Indexes     []string `envconfig:"INDEXES" default:"flat,ivf"`
	ImageX      string   `envconfig:"IMAGE_X"`
	ImageY      string   `envconfig:"IMAGE_Y"`
	RecallK     int      `envconfig:"RECALL_K" default:"10"`
	Seed        int64    `envconfig:"SEED" default:"42"`
	ReportDir   string   `envconfig:"REPORT_DIR" default:"report"`
	CacheDir    string   `envconfig:"CACHE_DIR"`
	MetricsFile string   `envconfig:"METRICS_FILE"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string   `envconfig:"LOG_FORMAT" default:"console"`
	IVFProbe    int      `envconfig:"IVF_PROBE" default:"2"`
	HNSWM       int      `envconfig:"HNSW_M" default:"16"`
	HNSWEf      int      `envconfig:"HNSW_EF" default:"20"`
}

// LoadConfig reads envFiles (missing files are skipped), then NNBENCH_* environment
// variables, then command-line args, each layer overriding the previous one.
func LoadConfig(args []string, envFiles ...string) (Config, error) {
	var cfg Config
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := envconfig.Process("NNBENCH", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}

	fl := flag.NewFlagSet("nnbench", flag.ContinueOnError)
	fl.StringVar(&cfg.Stage, "stage", cfg.Stage, "stage: runtime | accuracy | all")
	fl.IntVar(&cfg.PatchSize, "patch-size", cfg.PatchSize, "patch side p; vectors have 3p² components")
	fl.IntVar(&cfg.Reps, "reps", cfg.Reps, "timed repetitions per configuration")
	fl.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "normalization alpha for batched-nn")
	fl.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "batch size b")
	fl.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent batches / query workers")
	fl.Func("sizes", "comma-separated runtime sizes s (n = s²)", intList(&cfg.Sizes))
	fl.Func("resizes", "comma-separated accuracy resizes", intList(&cfg.Resizes))
	fl.Func("indexes", "comma-separated index kinds "+strings.Join(ann.Kinds(), ","), stringList(&cfg.Indexes))
	fl.StringVar(&cfg.ImageX, "image-x", cfg.ImageX, "query image for the accuracy stage")
	fl.StringVar(&cfg.ImageY, "image-y", cfg.ImageY, "candidate image for the accuracy stage")
	fl.IntVar(&cfg.RecallK, "recall-k", cfg.RecallK, "k for recall@k")
	fl.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fl.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "report output directory")
	fl.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "patch cache directory (fvecs); empty disables")
	fl.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Prometheus textfile output; empty disables")
	fl.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug | info | warn | error")
	fl.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console | json")
	fl.IntVar(&cfg.IVFProbe, "ivf-probe", cfg.IVFProbe, "ivf cells probed per query")
	fl.IntVar(&cfg.HNSWM, "hnsw-m", cfg.HNSWM, "hnsw max neighbors")
	fl.IntVar(&cfg.HNSWEf, "hnsw-ef", cfg.HNSWEf, "hnsw search list size")
	if err := fl.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func intList(dst *[]int) func(string) error {
	return func(s string) error {
		var out []int
		for _, part := range strings.Split(s, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		*dst = out
		return nil
	}
}

func stringList(dst *[]string) func(string) error {
	return func(s string) error {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
		return nil
	}
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if cfg.Stage != "runtime" && cfg.Stage != "accuracy" && cfg.Stage != "all" {
		return ErrInvalidStage
	}
	if cfg.PatchSize <= 0 {
		return ErrInvalidPatchSize
	}
	if cfg.Reps <= 0 {
		return ErrInvalidReps
	}
	if !(cfg.Alpha > 0) || cfg.Alpha > math.MaxFloat32 {
		return ErrInvalidAlpha
	}
	if cfg.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if cfg.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if len(cfg.Sizes) == 0 || slices.Min(cfg.Sizes) <= 0 {
		return ErrInvalidSizes
	}
	if len(cfg.Resizes) == 0 || slices.Min(cfg.Resizes) < cfg.PatchSize {
		return ErrInvalidResizes
	}
	kinds := ann.Kinds()
	for _, k := range cfg.Indexes {
		if !slices.Contains(kinds, k) {
			return fmt.Errorf("%w: %q", ErrInvalidIndexes, k)
		}
	}
	if cfg.RecallK <= 0 {
		return ErrInvalidRecallK
	}
	if (cfg.ImageX == "") != (cfg.ImageY == "") {
		return ErrInvalidImages
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" && cfg.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	if cfg.IVFProbe <= 0 {
		return ErrInvalidIVFProbe
	}
	if cfg.HNSWM <= 0 || cfg.HNSWEf <= 0 {
		return ErrInvalidHNSW
	}
	return nil
}

// Dim returns the patch vector dimension 3p².
func (c *Config) Dim() int {
	return 3 * c.PatchSize * c.PatchSize
}

// annOptions builds index options for a run with the given number of queries.
func (c *Config) annOptions(queries int) ann.Options {
	return ann.Options{
		NList:     int(math.Sqrt(float64(queries))),
		NProbe:    c.IVFProbe,
		HNSWM:     c.HNSWM,
		HNSWEf:    c.HNSWEf,
		Seed:      c.Seed,
		BatchSize: c.BatchSize,
		Workers:   c.Workers,
	}
}
