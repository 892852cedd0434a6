package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// CellUpdate is one sparse write: a value destined for a 1-indexed
// (row, col) position.
type CellUpdate struct {
	Row   int
	Col   int
	Value interface{}
}

// WriteOptions control grid writes
type WriteOptions struct {
	// NAValue replaces nil cells before serialization
	NAValue interface{}

	// Resize shrinks or grows the sheet to exactly fit the grid
	Resize bool

	// ValueInputOption controls how Sheets interprets written values
	ValueInputOption string
}

// DefaultWriteOptions substitutes empty strings for nils, resizes to fit,
// and lets Sheets evaluate formulas.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		NAValue:          "",
		Resize:           true,
		ValueInputOption: ValueInputUserEntered,
	}
}

// Writer implements sparse bulk writes over the Sheets API using one
// strategy: fetch the minimal covering range, prune cells not present in
// the input, and submit a single batch update.
type Writer struct {
	api SheetsAPI
}

// NewWriter creates a bulk writer over the given API client
func NewWriter(api SheetsAPI) *Writer {
	return &Writer{api: api}
}

// WriteGrid writes a rectangular grid of values starting at A1.
// Efficient for sparse data: cells holding the empty string are pruned
// from the batch and never written. nil cells become opts.NAValue first,
// so with the default options they are pruned too.
func (w *Writer) WriteGrid(ctx context.Context, spreadsheetID, sheetName string, grid [][]interface{}, opts WriteOptions) error {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return fmt.Errorf("grid must have at least one row and one column")
	}

	nRows := len(grid)
	nCols := len(grid[0])

	log.Info().
		Int("rows", nRows).
		Int("cols", nCols).
		Str("sheet_name", sheetName).
		Msg("Writing grid to sheet")

	if opts.Resize {
		if err := w.api.ResizeSheet(ctx, spreadsheetID, sheetName, nRows, nCols); err != nil {
			return err
		}
	}

	// Flatten row-major, substituting NAValue for nil. Short rows are
	// padded with NAValue so the flat sequence always covers the
	// rectangle.
	flat := make([]interface{}, 0, nRows*nCols)
	for _, row := range grid {
		for j := 0; j < nCols; j++ {
			var value interface{}
			if j < len(row) {
				value = row[j]
			}
			if value == nil {
				value = opts.NAValue
			}
			flat = append(flat, value)
		}
	}

	refs, err := w.api.FetchRange(ctx, spreadsheetID, sheetName, 1, 1, nRows, nCols)
	if err != nil {
		return err
	}
	if len(refs) != len(flat) {
		return fmt.Errorf("fetched range has %d cells, expected %d", len(refs), len(flat))
	}

	// Walk backwards so removals do not shift the indices still to come.
	// Empty cells (nil survives substitution only when NAValue is nil)
	// are pruned and never written.
	for i := len(refs) - 1; i >= 0; i-- {
		if NewCell(flat[i]).IsEmpty() {
			refs = append(refs[:i], refs[i+1:]...)
			continue
		}
		refs[i].Value = flat[i]
	}

	return w.api.BatchUpdateCells(ctx, spreadsheetID, sheetName, refs, opts.ValueInputOption)
}

// SendBulkData writes a sparse set of (row, col, value) updates in one
// batch. The covering range is the bounding rectangle of the updates;
// cells of that rectangle absent from the input are pruned, not cleared.
func (w *Writer) SendBulkData(ctx context.Context, spreadsheetID, sheetName string, updates []CellUpdate, valueInputOption string) error {
	log.Info().
		Int("cells", len(updates)).
		Str("sheet_name", sheetName).
		Msg("Writing cell data to sheet")

	if len(updates) == 0 {
		return w.api.BatchUpdateCells(ctx, spreadsheetID, sheetName, nil, valueInputOption)
	}

	lookup := make(map[[2]int]interface{}, len(updates))
	minRow, minCol := updates[0].Row, updates[0].Col
	maxRow, maxCol := updates[0].Row, updates[0].Col
	for _, u := range updates {
		lookup[[2]int{u.Row, u.Col}] = u.Value
		if u.Row < minRow {
			minRow = u.Row
		}
		if u.Row > maxRow {
			maxRow = u.Row
		}
		if u.Col < minCol {
			minCol = u.Col
		}
		if u.Col > maxCol {
			maxCol = u.Col
		}
	}

	refs, err := w.api.FetchRange(ctx, spreadsheetID, sheetName, minRow, minCol, maxRow, maxCol)
	if err != nil {
		return err
	}

	// Walk backwards so removals do not shift the indices still to come
	for i := len(refs) - 1; i >= 0; i-- {
		value, ok := lookup[[2]int{refs[i].Row, refs[i].Col}]
		if !ok {
			refs = append(refs[:i], refs[i+1:]...)
			continue
		}
		refs[i].Value = value
	}

	return w.api.BatchUpdateCells(ctx, spreadsheetID, sheetName, refs, valueInputOption)
}
