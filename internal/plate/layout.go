package plate

import "fmt"

// Header field names in a Layout.
const (
	FieldPlateType  = "plate_type"
	FieldNumColumns = "num_columns"
	FieldNumRows    = "num_rows"
	FieldPlateID    = "plate_id"
)

// Cell addresses a zero-based row and column in the export.
type Cell struct {
	Row int
	Col int
}

// Layout is the row schema of a reader export: where each header field lives
// and where the growth samples begin.
type Layout struct {
	Version      string
	Fields       map[string]Cell
	SamplesStart int
}

// DefaultLayout returns the layout written by the growth profiler's OD export.
func DefaultLayout() Layout {
	return Layout{
		Version: "gp-od-v1",
		Fields: map[string]Cell{
			FieldPlateType:  {Row: 4, Col: 1},
			FieldNumColumns: {Row: 5, Col: 1},
			FieldNumRows:    {Row: 6, Col: 1},
			FieldPlateID:    {Row: 9, Col: 1},
		},
		SamplesStart: 34,
	}
}

// Validate checks that every header field is addressed and that samples
// start after the header.
func (l Layout) Validate() error {
	last := -1
	for _, name := range []string{FieldPlateType, FieldNumColumns, FieldNumRows, FieldPlateID} {
		c, ok := l.Fields[name]
		if !ok {
			return fmt.Errorf("layout %s: missing field %s", l.Version, name)
		}
		if c.Row < 0 || c.Col < 0 {
			return fmt.Errorf("layout %s: field %s has negative offset", l.Version, name)
		}
		if c.Row > last {
			last = c.Row
		}
	}
	if l.SamplesStart <= last {
		return fmt.Errorf("layout %s: samples start at row %d inside header (last header row %d)", l.Version, l.SamplesStart, last)
	}
	return nil
}
