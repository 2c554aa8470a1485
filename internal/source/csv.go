package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericdfournier/la100es/pkg/parcel"
	"github.com/ericdfournier/la100es/pkg/validation"
)

// LoadParcelsCSV reads a parcel and permit dataset from a CSV file.
func LoadParcelsCSV(path string, opts Options) ([]*parcel.Parcel, *validation.Report, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := ReadRecords(f, path, RequiredColumns, opts.Progress)
	if err != nil {
		return nil, nil, err
	}
	return Assemble(records, path, opts)
}

// ReadRecords reads a CSV with a header row into records, checking that
// every required column is present.
func ReadRecords(r io.Reader, src string, required []string, progress io.Writer) ([]Record, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	if len(rows) == 0 {
		return nil, errors.New(src + ": csv has no header row")
	}

	header := rows[0]
	// Handle BOM on first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if err := requireColumns(cols, required, src); err != nil {
		return nil, err
	}

	bar := newBar(len(rows)-1, progress, src+" ")
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		out = append(out, rec)
		bar.Increment()
	}
	bar.Finish()
	return out, nil
}

func requireColumns(cols, required []string, src string) error {
	if required == nil {
		return nil
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, c := range required {
		if !have[c] {
			return &parcel.MissingFieldError{Field: c, Source: src}
		}
	}
	return nil
}
