package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Row represents a single CSV row with column name to value mapping.
type Row map[string]string

// ReadRows reads a CSV file whose columns come in a fixed order. The title
// line is skipped without being interpreted, and each following record is
// mapped positionally onto columns. Records may carry trailing columns
// beyond the known ones; they are ignored.
func ReadRows(path string, columns []string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	rows, err := readRows(f, columns)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return rows, nil
}

func readRows(r io.Reader, columns []string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty (no title line)")
		}
		return nil, fmt.Errorf("parse title line: %w", err)
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		if len(record) < len(columns) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", line, len(record), len(columns))
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			row[c] = record[i]
		}
		rows = append(rows, row)
	}

	return rows, nil
}
