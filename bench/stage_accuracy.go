package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ic-timon/nnbench/ann"
	"github.com/ic-timon/nnbench/bench/gen"
	"github.com/ic-timon/nnbench/bench/metrics"
	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/store"
)

// runAccuracy compares every approximate index with exact search on patch sets
// of each configured resize.
func (r *runner) runAccuracy(ctx context.Context) (*metrics.ResultTable, error) {
	cfg := r.cfg
	table := metrics.NewResultTable("accuracy", "s")
	for _, s := range cfg.Resizes {
		if err := ctx.Err(); err != nil {
			return table, err
		}
		log := r.log.With().Str("stage", "accuracy").Int("s", s).Logger()
		x, y, err := r.accuracyInputs(s, log)
		if err != nil {
			return table, err
		}
		log.Info().Int("n", x.Len()).Int("d", x.Dim()).Msg("point sets ready")

		flat, err := ann.New("flat", x.Dim(), cfg.annOptions(x.Len()))
		if err != nil {
			return table, err
		}
		exact, _, err := ann.NearestIndices(flat, x, y, 1)
		if err != nil {
			return table, err
		}
		table.Set(s, "true-dists", r.meanDistance(x, y, exact, "true-dists"))

		batched, err := nn.BatchedNearestNeighbor(x, y, float32(cfg.Alpha), cfg.BatchSize, nn.WithWorkers(cfg.Workers))
		if err != nil {
			r.fail(log, "batched-nn", err)
			table.Set(s, "batched-nn-dists", nil)
		} else {
			table.Set(s, "batched-nn-dists", r.meanDistance(x, y, batched, "batched-nn"))
		}

		for _, kind := range cfg.Indexes {
			if kind == "flat" {
				continue
			}
			r1, rk, dist := r.indexAccuracy(kind, x, y, exact, log)
			table.Set(s, kind+"-recall-1", r1)
			table.Set(s, fmt.Sprintf("%s-recall-%d", kind, cfg.RecallK), rk)
			table.Set(s, kind+"-dists", dist)
		}
		log.Info().Msg("row complete")
		if err := table.Flush(cfg.ReportDir); err != nil {
			return table, err
		}
	}
	return table, nil
}

// indexAccuracy returns recall@1, recall@k and the mean neighbor distance of one
// index; any failure yields nil cells.
func (r *runner) indexAccuracy(kind string, x, y nn.PointSet, exact []int, log zerolog.Logger) (r1, rk, dist *float64) {
	idx, err := ann.New(kind, x.Dim(), r.cfg.annOptions(x.Len()))
	if err != nil {
		r.fail(log, kind, err)
		return nil, nil, nil
	}
	var first []int
	var all [][]int
	if err := call(func() (err error) {
		first, all, err = ann.NearestIndices(idx, x, y, r.cfg.RecallK)
		return err
	}); err != nil {
		r.fail(log, kind, err)
		return nil, nil, nil
	}
	if v, err := metrics.Recall1(first, exact); err == nil {
		r1 = metrics.Value(v)
	}
	if v, err := metrics.RecallK(all, exact); err == nil {
		rk = metrics.Value(v)
	}
	dist = r.meanDistance(x, y, first, kind)
	log.Info().Str("index", kind).Any("recall_1", r1).Any("recall_k", rk).Msg("index evaluated")
	return r1, rk, dist
}

func (r *runner) meanDistance(x, y nn.PointSet, idx []int, name string) *float64 {
	v, err := metrics.MeanNeighborDistance(x, y, idx)
	if err != nil {
		r.fail(r.log, name, err)
		return nil
	}
	return metrics.Value(v)
}

func (r *runner) fail(log zerolog.Logger, name string, err error) {
	log.Error().Err(err).Str("method", name).Msg("configuration failed")
	if r.rec != nil {
		r.rec.Fail(name)
	}
}

// accuracyInputs loads both images at resize s, or synthesizes uniform 0..255
// patch-like sets of the same shape when no images are configured.
func (r *runner) accuracyInputs(s int, log zerolog.Logger) (x, y nn.PointSet, err error) {
	cfg := r.cfg
	if cfg.ImageX == "" {
		n := (s - cfg.PatchSize + 1) * (s - cfg.PatchSize + 1)
		if x, err = gen.Uniform(n, cfg.Dim(), 0, 255, cfg.Seed); err != nil {
			return x, y, err
		}
		y, err = gen.Uniform(n, cfg.Dim(), 0, 255, cfg.Seed+1)
		return x, y, err
	}
	if x, err = r.cachedPatches(cfg.ImageX, "x", s, log); err != nil {
		return x, y, err
	}
	y, err = r.cachedPatches(cfg.ImageY, "y", s, log)
	return x, y, err
}

// cachedPatches loads the patches of path at resize s, going through the fvecs
// cache when CacheDir is set.
func (r *runner) cachedPatches(path, role string, s int, log zerolog.Logger) (nn.PointSet, error) {
	if r.cfg.CacheDir == "" {
		return r.loader.Load(path, s)
	}
	cache := filepath.Join(r.cfg.CacheDir, fmt.Sprintf("%s_%d.fvecs", role, s))
	f, err := store.OpenFvecs(cache)
	switch {
	case err == nil:
		if f.Dim() == r.cfg.Dim() {
			defer f.Close()
			log.Debug().Str("cache", cache).Msg("patch cache hit")
			return f.PointSet()
		}
		f.Close()
		log.Warn().Str("cache", cache).Int("dim", f.Dim()).Msg("patch cache has a different dimension, reloading")
	case errors.Is(err, fs.ErrNotExist):
	default:
		log.Warn().Err(err).Str("cache", cache).Msg("unreadable patch cache, reloading")
	}
	ps, err := r.loader.Load(path, s)
	if err != nil {
		return ps, err
	}
	if err := os.MkdirAll(r.cfg.CacheDir, 0o755); err != nil {
		return ps, err
	}
	if err := store.SaveFvecs(cache, ps); err != nil {
		log.Warn().Err(err).Str("cache", cache).Msg("writing patch cache failed")
	}
	return ps, nil
}
