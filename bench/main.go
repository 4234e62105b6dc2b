// Benchmark entry point: -stage runtime|accuracy|all
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ic-timon/nnbench/bench/metrics"
	"github.com/ic-timon/nnbench/patch"
	"github.com/ic-timon/nnbench/simd"
)

type runner struct {
	cfg    Config
	log    zerolog.Logger
	timer  *Timer
	rec    *metrics.Recorder
	loader patch.Loader
}

func newRunner(cfg Config, log zerolog.Logger) *runner {
	rec := metrics.NewRecorder()
	return &runner{
		cfg:    cfg,
		log:    log,
		timer:  &Timer{Reps: cfg.Reps, Log: log, Rec: rec},
		rec:    rec,
		loader: patch.ImageLoader{PatchSize: cfg.PatchSize},
	}
}

// run executes the configured stages and writes the metrics textfile.
func (r *runner) run(ctx context.Context) error {
	var errs []error
	if r.cfg.Stage == "runtime" || r.cfg.Stage == "all" {
		if _, err := r.runRuntime(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cfg.Stage == "accuracy" || r.cfg.Stage == "all" {
		if _, err := r.runAccuracy(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.cfg.MetricsFile != "" {
		if err := r.rec.WriteTextfile(r.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func main() {
	boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg, err := LoadConfig(os.Args[1:], ".env")
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	if err := ValidateConfig(&cfg); err != nil {
		boot.Fatal().Err(err).Msg("invalid config")
	}
	log, err := newLogger(&cfg, os.Stderr)
	if err != nil {
		boot.Fatal().Err(err).Msg("logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("stage", cfg.Stage).
		Int("patch_size", cfg.PatchSize).
		Int("reps", cfg.Reps).
		Strs("indexes", cfg.Indexes).
		Str("kernel", simd.ImplDesc()).
		Msg("benchmark starting")
	if err := newRunner(cfg, log).run(ctx); err != nil {
		log.Error().Err(err).Msg("benchmark finished with errors")
		stop()
		os.Exit(1)
	}
	log.Info().Str("report_dir", cfg.ReportDir).Msg("benchmark complete")
}
