package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/nnbench/bench/metrics"
	"github.com/ic-timon/nnbench/nn"
	"github.com/ic-timon/nnbench/patch"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	cfg.Reps = 2
	cfg.PatchSize = 2
	cfg.Sizes = []int{4, 6}
	cfg.Resizes = []int{6}
	cfg.BatchSize = 5
	cfg.RecallK = 3
	cfg.ReportDir = t.TempDir()
	require.NoError(t, ValidateConfig(&cfg))
	return cfg
}

func TestRunRuntime_WritesEveryColumn(t *testing.T) {
	cfg := testConfig(t)
	cfg.Indexes = []string{"flat", "ivf", "lsh", "hnsw", "tree"}
	r := newRunner(cfg, zerolog.Nop())
	table, err := r.runRuntime(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"batched-nn", "plain-nn", "flat", "ivf", "lsh", "hnsw", "tree"}, table.Columns)
	for _, s := range cfg.Sizes {
		for _, c := range table.Columns {
			v, ok := table.Get(s, c)
			require.True(t, ok, c)
			require.NotNil(t, v, c)
			assert.Greater(t, *v, 0.0)
		}
	}
	b, err := os.ReadFile(metrics.ReportPath(cfg.ReportDir, "runtime", ".csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "s,batched-nn,plain-nn,flat,ivf,lsh,hnsw,tree", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "6,"))
	assert.FileExists(t, metrics.ReportPath(cfg.ReportDir, "runtime", ".parquet"))
	assert.FileExists(t, metrics.ReportPath(cfg.ReportDir, "runtime", ".json"))
}

func TestRunRuntime_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(cfg, zerolog.Nop()).runRuntime(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAccuracy_Synthetic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Indexes = []string{"flat", "ivf", "tree"}
	table, err := newRunner(cfg, zerolog.Nop()).runAccuracy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"true-dists", "batched-nn-dists",
		"ivf-recall-1", "ivf-recall-3", "ivf-dists",
		"tree-recall-1", "tree-recall-3", "tree-dists",
	}, table.Columns)

	get := func(c string) float64 {
		v, ok := table.Get(6, c)
		require.True(t, ok, c)
		require.NotNil(t, v, c)
		return *v
	}
	trueDist := get("true-dists")
	assert.GreaterOrEqual(t, get("batched-nn-dists"), trueDist*(1-1e-6))
	assert.GreaterOrEqual(t, get("ivf-dists"), trueDist*(1-1e-6))
	// a single-leaf tree is exact
	assert.Equal(t, 1.0, get("tree-recall-1"))
	assert.Equal(t, 1.0, get("tree-recall-3"))
	assert.InDelta(t, trueDist, get("tree-dists"), trueDist*1e-6)
	for _, c := range []string{"ivf-recall-1", "ivf-recall-3"} {
		assert.True(t, get(c) >= 0 && get(c) <= 1)
	}
}

type countingLoader struct {
	patch.Loader
	calls int
}

func (l *countingLoader) Load(path string, resize int) (nn.PointSet, error) {
	l.calls++
	return l.Loader.Load(path, resize)
}

func writeImage(t *testing.T, dir, name string, shift int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(10 * x), G: uint8(10*y + shift), B: uint8(x * y), A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestRunAccuracy_ImagesUseCache(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.ImageX = writeImage(t, dir, "x.png", 0)
	cfg.ImageY = writeImage(t, dir, "y.png", 7)
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.Indexes = []string{"flat", "lsh"}

	loader := &countingLoader{Loader: patch.ImageLoader{PatchSize: cfg.PatchSize}}
	r := newRunner(cfg, zerolog.Nop())
	r.loader = loader

	first, err := r.runAccuracy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
	assert.FileExists(t, filepath.Join(cfg.CacheDir, "x_6.fvecs"))
	assert.FileExists(t, filepath.Join(cfg.CacheDir, "y_6.fvecs"))

	second, err := r.runAccuracy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
	a, _ := first.Get(6, "true-dists")
	b, _ := second.Get(6, "true-dists")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *a, *b)
}

func TestRun_WritesMetricsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stage = "all"
	cfg.Sizes = []int{4}
	cfg.MetricsFile = filepath.Join(t.TempDir(), "nnbench.prom")
	require.NoError(t, newRunner(cfg, zerolog.Nop()).run(context.Background()))
	b, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `nnbench_call_duration_seconds_count{method="batched-nn"} 2`)
	assert.FileExists(t, metrics.ReportPath(cfg.ReportDir, "accuracy", ".csv"))
}
