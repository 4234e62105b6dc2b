package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/nnbench/nn"
)

func TestLatencyStatsFromDurations(t *testing.T) {
	ds := []time.Duration{3 * time.Second, 1 * time.Second, 2 * time.Second, 2 * time.Second}
	s := LatencyStatsFromDurations(ds)
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 2, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), s.Std, 1e-12)
	assert.InDelta(t, 2, s.P50, 1e-12)
	assert.InDelta(t, 3, s.P99, 1e-12)
	assert.Equal(t, LatencyStats{}, LatencyStatsFromDurations(nil))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, Percentile(sorted, -5))
	assert.Equal(t, 5.0, Percentile(sorted, 100))
	assert.Equal(t, 3.0, Percentile(sorted, 50))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestDiff(t *testing.T) {
	before := Snapshot{TS: time.Unix(0, 0), TotalAlloc: 100, NumGC: 2}
	after := Snapshot{TS: time.Unix(2, 0), TotalAlloc: 300, NumGC: 5}
	d := Diff(before, after)
	assert.Equal(t, uint64(200), d.AllocBytes)
	assert.Equal(t, uint32(3), d.GCs)
	assert.InDelta(t, 100, d.AllocRate(), 1e-9)
	assert.Zero(t, Diff(after, before).AllocBytes)
}

func sampleTable() *ResultTable {
	tb := NewResultTable("runtime", "s")
	tb.Set(64, "batched-nn", Value(0.5))
	tb.Set(64, "ivf", nil)
	tb.Set(128, "batched-nn", Value(2))
	tb.Set(128, "ivf", Value(1.25))
	return tb
}

func TestResultTable_SetAndGet(t *testing.T) {
	tb := sampleTable()
	assert.Equal(t, []string{"batched-nn", "ivf"}, tb.Columns)
	require.Len(t, tb.Rows, 2)
	v, ok := tb.Get(128, "ivf")
	require.True(t, ok)
	assert.Equal(t, 1.25, *v)
	v, ok = tb.Get(64, "ivf")
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = tb.Get(256, "ivf")
	assert.False(t, ok)
}

func TestResultTable_WriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "runtime_table.csv")
	require.NoError(t, sampleTable().WriteCSV(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s,batched-nn,ivf\n64,0.5,\n128,2,1.25\n", string(b))
}

func TestResultTable_WriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime_table.parquet")
	require.NoError(t, sampleTable().WriteParquet(path))
	got, err := parquet.ReadFile[Record](path)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, int64(64), got[1].Param)
	assert.Equal(t, "ivf", got[1].Config)
	assert.Nil(t, got[1].Value)
	require.NotNil(t, got[3].Value)
	assert.Equal(t, 1.25, *got[3].Value)
}

func TestResultTable_Flush(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, sampleTable().Flush(dir))
	for _, ext := range []string{".csv", ".parquet", ".json"} {
		assert.FileExists(t, ReportPath(dir, "runtime", ext))
	}
	b, err := os.ReadFile(ReportPath(dir, "runtime", ".json"))
	require.NoError(t, err)
	var decoded struct {
		Stage   string   `json:"stage"`
		Columns []string `json:"columns"`
		Rows    []Row    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "runtime", decoded.Stage)
	assert.Equal(t, []string{"batched-nn", "ivf"}, decoded.Columns)
	require.Len(t, decoded.Rows, 2)
	assert.Nil(t, decoded.Rows[0].Values["ivf"])
	assert.Equal(t, 2.0, *decoded.Rows[1].Values["batched-nn"])
}

func mustPointSet(t *testing.T, rows [][]float32) nn.PointSet {
	t.Helper()
	ps, err := nn.PointSetFromRows(rows)
	require.NoError(t, err)
	return ps
}

func TestResultTable_FlushNonFiniteCells(t *testing.T) {
	tb := NewResultTable("accuracy", "s")
	d, err := MeanNeighborDistance(
		mustPointSet(t, [][]float32{{0, 0}}),
		mustPointSet(t, [][]float32{{1, 1}}),
		[]int{-1},
	)
	require.NoError(t, err)
	tb.Set(4, "lsh-dists", Value(d))
	tb.Set(4, "inf", Value(math.Inf(1)))
	tb.Set(4, "ok", Value(0.5))

	dir := t.TempDir()
	require.NoError(t, tb.Flush(dir))
	v, ok := tb.Get(4, "lsh-dists")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, _ = tb.Get(4, "inf")
	assert.Nil(t, v)

	b, err := os.ReadFile(ReportPath(dir, "accuracy", ".json"))
	require.NoError(t, err)
	var decoded struct {
		Rows []Row `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded.Rows, 1)
	assert.Nil(t, decoded.Rows[0].Values["lsh-dists"])
	assert.Equal(t, 0.5, *decoded.Rows[0].Values["ok"])
}

func TestRecall(t *testing.T) {
	exact := []int{0, 1, 2, 3}
	r1, err := Recall1([]int{0, 5, 2, 7}, exact)
	require.NoError(t, err)
	assert.Equal(t, 0.5, r1)

	rk, err := RecallK([][]int{{0, 9}, {5, 1}, {7, 8}, {-1, -1}}, exact)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rk)

	_, err = Recall1([]int{1}, exact)
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
	_, err = RecallK(nil, nil)
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestMeanNeighborDistance(t *testing.T) {
	x, err := nn.PointSetFromRows([][]float32{{0, 0}, {1, 1}, {5, 5}})
	require.NoError(t, err)
	y, err := nn.PointSetFromRows([][]float32{{0, 1}, {3, 1}})
	require.NoError(t, err)

	d, err := MeanNeighborDistance(x, y, []int{0, 1, -1})
	require.NoError(t, err)
	assert.InDelta(t, (1.0+4.0)/2, d, 1e-9)

	d, err = MeanNeighborDistance(x, y, []int{-1, -1, -1})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(d))

	_, err = MeanNeighborDistance(x, y, []int{0, 2, 0})
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
	_, err = MeanNeighborDistance(x, y, []int{0})
	assert.ErrorIs(t, err, nn.ErrInvalidInput)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Observe("ivf", 10*time.Millisecond)
	r.Observe("ivf", 20*time.Millisecond)
	r.Observe("flat", time.Millisecond)
	r.Fail("hnsw")

	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("hnsw")))

	expected := `
# HELP nnbench_call_failures_total Benchmark configurations that failed or panicked.
# TYPE nnbench_call_failures_total counter
nnbench_call_failures_total{method="hnsw"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "nnbench_call_failures_total"))

	path := filepath.Join(t.TempDir(), "nnbench.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `nnbench_call_duration_seconds_count{method="ivf"} 2`)
}
