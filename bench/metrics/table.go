package metrics

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// Row holds the values of one parameter setting. A nil value is a failed or
// skipped measurement.
type Row struct {
	Param  int                 `json:"param"`
	Values map[string]*float64 `json:"values"`
}

// ResultTable is a benchmark result table: one row per parameter value, one
// column per configuration, in insertion order.
type ResultTable struct {
	Stage     string   `json:"stage"`
	ParamName string   `json:"param_name"`
	Columns   []string `json:"columns"`
	Rows      []*Row   `json:"rows"`
}

// NewResultTable creates an empty table.
func NewResultTable(stage, paramName string) *ResultTable {
	return &ResultTable{Stage: stage, ParamName: paramName}
}

// Set records value for (param, column). A nil value marks the cell missing.
func (t *ResultTable) Set(param int, column string, value *float64) {
	t.addColumn(column)
	r := t.row(param)
	r.Values[column] = value
}

// Get returns the value at (param, column) and whether the cell is present.
func (t *ResultTable) Get(param int, column string) (*float64, bool) {
	for _, r := range t.Rows {
		if r.Param == param {
			v, ok := r.Values[column]
			return v, ok
		}
	}
	return nil, false
}

func (t *ResultTable) addColumn(c string) {
	for _, existing := range t.Columns {
		if existing == c {
			return
		}
	}
	t.Columns = append(t.Columns, c)
}

func (t *ResultTable) row(param int) *Row {
	for _, r := range t.Rows {
		if r.Param == param {
			return r
		}
	}
	r := &Row{Param: param, Values: map[string]*float64{}}
	t.Rows = append(t.Rows, r)
	return r
}

// Value boxes v for Set. NaN and infinities become a missing cell, which every
// report format can encode.
func Value(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteCSV writes the table with a header of ParamName followed by the columns.
// Missing values are empty cells.
func (t *ResultTable) WriteCSV(path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(append([]string{t.ParamName}, t.Columns...)); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, 0, len(t.Columns)+1)
		rec = append(rec, strconv.Itoa(r.Param))
		for _, c := range t.Columns {
			rec = append(rec, formatCell(r.Values[c]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// Record is one cell of the long-format Parquet report.
type Record struct {
	Param  int64    `parquet:"param"`
	Config string   `parquet:"config"`
	Value  *float64 `parquet:"value,optional"`
}

// Records flattens the table into long format, row by row in column order.
func (t *ResultTable) Records() []Record {
	out := make([]Record, 0, len(t.Rows)*len(t.Columns))
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			if v, ok := r.Values[c]; ok {
				out = append(out, Record{Param: int64(r.Param), Config: c, Value: v})
			}
		}
	}
	return out
}

// WriteParquet writes Records to path with zstd compression.
func (t *ResultTable) WriteParquet(path string) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	pw := parquet.NewGenericWriter[Record](f, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(t.Records()); err != nil {
		_ = pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}

type jsonReport struct {
	*ResultTable
	GeneratedAt time.Time `json:"generated_at"`
}

// WriteJSON writes the table as an indented JSON summary.
func (t *ResultTable) WriteJSON(path string) error {
	b, err := json.MarshalIndent(jsonReport{ResultTable: t, GeneratedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// Flush rewrites the CSV, Parquet and JSON reports of the table under dir.
func (t *ResultTable) Flush(dir string) error {
	if err := t.WriteCSV(ReportPath(dir, t.Stage, ".csv")); err != nil {
		return fmt.Errorf("csv report: %w", err)
	}
	if err := t.WriteParquet(ReportPath(dir, t.Stage, ".parquet")); err != nil {
		return fmt.Errorf("parquet report: %w", err)
	}
	if err := t.WriteJSON(ReportPath(dir, t.Stage, ".json")); err != nil {
		return fmt.Errorf("json report: %w", err)
	}
	return nil
}

// ReportPath returns dir/<stage>_table<ext>.
func ReportPath(dir, stage, ext string) string {
	return filepath.Join(dir, stage+"_table"+ext)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
