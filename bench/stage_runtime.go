package main

import (
	"context"

	"github.com/ic-timon/nnbench/ann"
	"github.com/ic-timon/nnbench/bench/gen"
	"github.com/ic-timon/nnbench/bench/metrics"
	"github.com/ic-timon/nnbench/nn"
)

// runRuntime times every method on X, Y ~ N(0,1) with n = s² rows for each
// configured size s. Cells hold the mean seconds per call.
func (r *runner) runRuntime(ctx context.Context) (*metrics.ResultTable, error) {
	cfg := r.cfg
	d := cfg.Dim()
	table := metrics.NewResultTable("runtime", "s")
	for _, s := range cfg.Sizes {
		if err := ctx.Err(); err != nil {
			return table, err
		}
		n := s * s
		log := r.log.With().Str("stage", "runtime").Int("s", s).Int("n", n).Int("d", d).Logger()
		log.Info().Msg("generating point sets")
		metrics.GC()
		before := metrics.Take()

		x, err := gen.Gaussian(n, d, cfg.Seed)
		if err != nil {
			return table, err
		}
		y, err := gen.Gaussian(n, d, cfg.Seed+1)
		if err != nil {
			return table, err
		}

		alpha := float32(cfg.Alpha)
		table.Set(s, "batched-nn", mean(r.timer.Time(ctx, "batched-nn", func() error {
			_, err := nn.BatchedNearestNeighbor(x, y, alpha, cfg.BatchSize, nn.WithWorkers(cfg.Workers))
			return err
		})))
		table.Set(s, "plain-nn", mean(r.timer.Time(ctx, "plain-nn", func() error {
			_, err := nn.PlainNearestNeighbor(x, y, cfg.BatchSize, nn.WithWorkers(cfg.Workers))
			return err
		})))
		for _, kind := range cfg.Indexes {
			table.Set(s, kind, mean(r.timer.Time(ctx, kind, func() error {
				idx, err := ann.New(kind, d, cfg.annOptions(n))
				if err != nil {
					return err
				}
				_, _, err = ann.NearestIndices(idx, x, y, 1)
				return err
			})))
		}

		after := metrics.Take()
		delta := metrics.Diff(before, after)
		ev := log.Info().Float64("heap_mb", after.HeapAllocMB()).Uint32("gcs", delta.GCs)
		for _, c := range table.Columns {
			if v, ok := table.Get(s, c); ok && v != nil {
				ev = ev.Float64(c, *v)
			}
		}
		ev.Msg("row complete")
		if err := table.Flush(cfg.ReportDir); err != nil {
			return table, err
		}
	}
	return table, nil
}
