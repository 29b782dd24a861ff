// Package transcode reads and writes the tab-delimited address table format:
// a header row followed by one record per line, columns
// nom, adresse, cp, ville, contact (+ adresse_valide on output).
package transcode

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Houeta/addrcheck/internal/models"
)

// Column layouts, in the fixed on-disk order.
var (
	inputColumns  = []string{"nom", "adresse", "cp", "ville", "contact"}
	outputColumns = []string{"nom", "adresse", "cp", "ville", "contact", "adresse_valide"}
)

// ErrMalformedRecord is returned when a row does not match the expected column shape.
var ErrMalformedRecord = errors.New("row does not match the expected column shape")

// Reader decodes tab-delimited rows into InputRecord values.
// The header row is consumed and discarded on the first Read call; columns
// are matched by position.
type Reader struct {
	csv        *csv.Reader
	row        int // 0-indexed data row number, for error messages
	headerRead bool
}

// NewReader wraps r in a tab-delimited record decoder.
func NewReader(r io.Reader) *Reader {
	c := csv.NewReader(r)
	c.Comma = '\t'
	// Column count is checked per row so the error can name the row.
	c.FieldsPerRecord = -1
	c.LazyQuotes = true
	return &Reader{csv: c}
}

// Read returns the next record in file order. It returns io.EOF at end of
// input, and a wrapped ErrMalformedRecord when a row has the wrong number
// of columns. Field values are returned verbatim.
func (r *Reader) Read() (models.InputRecord, error) {
	if !r.headerRead {
		if _, err := r.csv.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return models.InputRecord{}, io.EOF
			}
			return models.InputRecord{}, fmt.Errorf("failed to read header row: %w", err)
		}
		r.headerRead = true
	}

	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.InputRecord{}, io.EOF
		}
		return models.InputRecord{}, fmt.Errorf("row %d: %w", r.row, err)
	}
	defer func() { r.row++ }()

	if len(row) != len(inputColumns) {
		return models.InputRecord{}, fmt.Errorf(
			"row %d has %d columns, want %d: %w", r.row, len(row), len(inputColumns), ErrMalformedRecord,
		)
	}

	return models.InputRecord{
		Name:       row[0],
		Address:    row[1],
		PostalCode: row[2],
		City:       row[3],
		Contact:    row[4],
	}, nil
}

// Writer encodes OutputRecord values as tab-delimited rows.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w in a tab-delimited record encoder.
func NewWriter(w io.Writer) *Writer {
	c := csv.NewWriter(w)
	c.Comma = '\t'
	return &Writer{csv: c}
}

// WriteHeader emits the six-column output header. It must be called once,
// before any record.
func (w *Writer) WriteHeader() error {
	if err := w.csv.Write(outputColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write emits one record. The first five fields are copied verbatim from the
// input; the boolean is rendered as a literal true/false token.
func (w *Writer) Write(rec models.OutputRecord) error {
	row := []string{
		rec.Name,
		rec.Address,
		rec.PostalCode,
		rec.City,
		rec.Contact,
		strconv.FormatBool(rec.AddressValid),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Flush writes buffered rows to the underlying stream and reports any error
// that occurred during writing.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
