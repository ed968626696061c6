// Package plate extracts plate geometry and growth samples from reader exports.
package plate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// Extractor parses export rows according to a Layout.
type Extractor struct {
	layout Layout
}

// NewExtractor creates an extractor for layout.
func NewExtractor(layout Layout) (*Extractor, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{layout: layout}, nil
}

// Extract parses rows with the default layout.
func Extract(rows [][]string) (domain.PlateInfo, []domain.GrowthSample, error) {
	return (&Extractor{layout: DefaultLayout()}).Extract(rows)
}

// Extract reads the plate header and every complete sample row. Rows that
// are empty or shorter than Wells()+1 cells are skipped, since an export may
// still be in progress. rows is not modified.
func (e *Extractor) Extract(rows [][]string) (domain.PlateInfo, []domain.GrowthSample, error) {
	var info domain.PlateInfo
	var err error

	if info.PlateType, err = e.cell(rows, FieldPlateType); err != nil {
		return domain.PlateInfo{}, nil, err
	}
	if info.NumColumns, err = e.positiveInt(rows, FieldNumColumns); err != nil {
		return domain.PlateInfo{}, nil, err
	}
	if info.NumRows, err = e.positiveInt(rows, FieldNumRows); err != nil {
		return domain.PlateInfo{}, nil, err
	}
	if info.PlateID, err = e.cell(rows, FieldPlateID); err != nil {
		return domain.PlateInfo{}, nil, err
	}
	if err := info.Validate(); err != nil {
		return domain.PlateInfo{}, nil, err
	}

	wells := info.Wells()
	var samples []domain.GrowthSample
	for i := e.layout.SamplesStart; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || len(row) < wells+1 {
			continue
		}
		values := make([]string, wells)
		copy(values, row[1:wells+1])
		samples = append(samples, domain.GrowthSample{Time: row[0], WellValues: values})
	}

	return info, samples, nil
}

func (e *Extractor) cell(rows [][]string, field string) (string, error) {
	c := e.layout.Fields[field]
	if c.Row >= len(rows) {
		return "", fmt.Errorf("%w: %s: header row %d missing (export has %d rows)", domain.ErrFormat, field, c.Row, len(rows))
	}
	row := rows[c.Row]
	if c.Col >= len(row) {
		return "", fmt.Errorf("%w: %s: row %d has no column %d", domain.ErrFormat, field, c.Row, c.Col)
	}
	return strings.TrimSpace(row[c.Col]), nil
}

func (e *Extractor) positiveInt(rows [][]string, field string) (int, error) {
	v, err := e.cell(rows, field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", domain.ErrFormat, field, v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s: %d must be positive", domain.ErrFormat, field, n)
	}
	if n > domain.MaxWells {
		return 0, fmt.Errorf("%w: %s: %d exceeds %d", domain.ErrFormat, field, n, domain.MaxWells)
	}
	return n, nil
}
