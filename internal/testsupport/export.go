// Package testsupport builds growth profiler exports for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Export describes a synthetic reader export.
type Export struct {
	PlateType  string
	NumColumns string
	NumRows    string
	PlateID    string
	Samples    []Sample
}

// Sample is one timepoint row.
type Sample struct {
	Time   string
	Values []string
}

// NewExport returns an export for a rows x cols plate with no samples.
func NewExport(id string, rows, cols int) Export {
	return Export{
		PlateType:  "96 Well Plate",
		NumColumns: strconv.Itoa(cols),
		NumRows:    strconv.Itoa(rows),
		PlateID:    id,
	}
}

// GrowthSample returns a sample of wells values where the first above
// wells read 1.5 and the rest read 0.2.
func GrowthSample(time string, wells, above int) Sample {
	values := make([]string, wells)
	for i := range values {
		if i < above {
			values[i] = "1.5"
		} else {
			values[i] = "0.2"
		}
	}
	return Sample{Time: time, Values: values}
}

// Rows returns the export as rows, matching the reader's fixed layout.
func (e Export) Rows() [][]string {
	rows := make([][]string, 34)
	for i := range rows {
		rows[i] = []string{"Info", ""}
	}
	rows[0] = []string{"Growth Profiler export"}
	rows[3] = []string{}
	rows[4] = []string{"Plate type", e.PlateType}
	rows[5] = []string{"Columns", e.NumColumns}
	rows[6] = []string{"Rows", e.NumRows}
	rows[9] = []string{"Plate ID", e.PlateID}
	rows[33] = []string{"Time", "A1", "A2"}
	for _, s := range e.Samples {
		rows = append(rows, append([]string{s.Time}, s.Values...))
	}
	return rows
}

// CSV renders the export as comma separated text.
func (e Export) CSV() string {
	var b strings.Builder
	for _, row := range e.Rows() {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return b.String()
}

// WriteExport writes e to dir/name and returns the path.
func WriteExport(t testing.TB, dir, name string, e Export) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(e.CSV()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
