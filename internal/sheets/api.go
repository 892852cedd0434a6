package sheets

import (
	"context"
)

// SheetsAPI defines the interface for interacting with Google Sheets.
// This separates infrastructure concerns from the bulk-write logic.
//
// Note on interface{} usage:
// The Google Sheets API (google.golang.org/api/sheets/v4) uses
// [][]interface{} for cell values. This is outside our control and
// required for API compatibility. Keep interface{} constrained to this
// boundary; everything above it works with CellRef.
type SheetsAPI interface {
	// FetchRange reads the rectangle [r1,r2] x [c1,c2] (1-indexed,
	// inclusive) and returns one CellRef per cell in row-major order,
	// including cells the sheet currently leaves empty.
	FetchRange(ctx context.Context, spreadsheetID, sheetName string, r1, c1, r2, c2 int) ([]CellRef, error)

	// BatchUpdateCells writes all given cells in a single batch update.
	// A zero-length batch is a no-op and never reaches the wire.
	BatchUpdateCells(ctx context.Context, spreadsheetID, sheetName string, cells []CellRef, valueInputOption string) error

	// ResizeSheet sets the sheet grid to exactly rows x cols
	ResizeSheet(ctx context.Context, spreadsheetID, sheetName string, rows, cols int) error

	// SheetExists checks if a sheet with the given name exists
	SheetExists(ctx context.Context, spreadsheetID, sheetName string) (bool, error)
}
