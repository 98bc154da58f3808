// Package dataset packages per-record parameter tables into CSV
// content for manual side-channel delivery: the target API cannot
// ingest datasets programmatically. Pure functions only; the caller
// persists or zips the returned content.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/besa-qa/xmigrate/pkg/types"
)

// Output naming follows the source tool's archive layout.
const (
	filePrefix       = "dataset_"
	fileExt          = ".csv"
	unresolvedPrefix = "UNRESOLVED_"
)

// Filename returns the CSV filename for a record's dataset: the
// resolved key when one exists, otherwise a clearly-marked placeholder
// carrying the internal id.
func Filename(rec *types.TestRecord) string {
	if rec.Resolution.HasKey() {
		return filePrefix + rec.Resolution.Key + fileExt
	}
	return filePrefix + unresolvedPrefix + rec.ID + fileExt
}

// Package renders one CSV per record that declares a dataset, keyed by
// filename. Column order is preserved from the source; the header row
// is the column list and data rows follow in source order. Two records
// resolved to the same key would silently shadow each other's file, so
// a filename collision is an error naming both records.
func Package(records []*types.TestRecord, datasets map[string]*types.Dataset) (map[string][]byte, error) {
	out := make(map[string][]byte)
	owner := make(map[string]string)
	for _, rec := range records {
		ds, ok := datasets[rec.ID]
		if !ok {
			continue
		}
		name := Filename(rec)
		if prev, taken := owner[name]; taken {
			return nil, fmt.Errorf("records %s and %s both produce %s; reset one resolution", prev, rec.ID, name)
		}
		content, err := render(ds)
		if err != nil {
			return nil, fmt.Errorf("dataset for record %s: %w", rec.ID, err)
		}
		owner[name] = rec.ID
		out[name] = content
	}
	return out, nil
}

// render writes one dataset as CSV bytes.
func render(ds *types.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ds.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range ds.Rows {
		// Short rows pad to the column count so every CSV line has
		// the same shape the target's manual import expects.
		if len(row) < len(ds.Columns) {
			padded := make([]string, len(ds.Columns))
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
