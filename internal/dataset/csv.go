package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyFile is returned when a CSV source has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// ReadCSV parses comma-separated text with a header row.
// Rows may be shorter than the header; missing trailing cells are empty.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	return FromRecords(header, rows)
}

// ReadCSVFile opens and parses a CSV file.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	d, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// WriteCSV writes the dataset with a header row. Empty cells are written
// as empty fields.
func WriteCSV(w io.Writer, d *Dataset) error {
	writer := csv.NewWriter(w)
	header, rows := d.Records()
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

// WriteCSVFile writes the dataset to path, creating parent directories.
func WriteCSVFile(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, d); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
