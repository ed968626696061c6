package plate

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bft-labs/gpwatch/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads an export into rows. Rows may have differing lengths.
func ReadFile(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrIO, path, err)
	}
	return ReadBytes(data)
}

// ReadBytes parses export content into rows, one per physical line. Blank
// lines are kept as empty rows so header offsets stay aligned with the file.
// LF, CRLF and lone CR line endings are accepted. A quoted field never spans
// lines.
func ReadBytes(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(data) == 0 {
		return nil, nil
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	lines := bytes.Split(data, []byte{'\n'})
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}

	rows := make([][]string, 0, len(lines))
	for i, line := range lines {
		if len(line) == 0 {
			rows = append(rows, []string{})
			continue
		}
		record, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrFormat, i+1, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func parseLine(line []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	record, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, perr.Err
		}
		return nil, err
	}
	return record, nil
}

// ExtractFile reads path and extracts it with the extractor's layout.
func (e *Extractor) ExtractFile(path string) (domain.PlateInfo, []domain.GrowthSample, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return domain.PlateInfo{}, nil, err
	}
	info, samples, err := e.Extract(rows)
	if err != nil {
		return domain.PlateInfo{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, samples, nil
}
