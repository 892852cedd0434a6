package sheets

import (
	"fmt"
)

// Cell provides type-safe access to Google Sheets cell values.
// The Google Sheets API returns [][]interface{}, which we cannot change.
// This type wraps interface{} to keep unsafe access at the API boundary.
type Cell struct {
	raw interface{}
}

// NewCell creates a Cell from a raw interface{} value from Google Sheets API
func NewCell(raw interface{}) Cell {
	return Cell{raw: raw}
}

// String returns the cell value as a string
func (c Cell) String() string {
	if c.raw == nil {
		return ""
	}
	if s, ok := c.raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", c.raw)
}

// IsEmpty returns true if the cell contains nil or empty string
func (c Cell) IsEmpty() bool {
	return c.raw == nil || c.raw == ""
}

// Raw returns the underlying interface{} value for Google Sheets API calls.
// This should only be used at the API boundary.
func (c Cell) Raw() interface{} {
	return c.raw
}

// CellRef is an addressable handle to one spreadsheet cell within a
// fetched range. Row and Col are 1-indexed, matching Sheets addressing.
type CellRef struct {
	Row   int
	Col   int
	Value interface{}
}

// A1 returns the cell address in A1 notation
func (r CellRef) A1() string {
	return cellA1(r.Row, r.Col)
}

// colLetter converts a 1-indexed column number to its letter form
// (1 -> A, 26 -> Z, 27 -> AA)
func colLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}

// cellA1 converts 1-indexed row/col to A1 notation
func cellA1(row, col int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

// rangeA1 builds a sheet-qualified A1 range for the rectangle
// [r1,r2] x [c1,c2]
func rangeA1(sheetName string, r1, c1, r2, c2 int) string {
	return fmt.Sprintf("'%s'!%s:%s", sheetName, cellA1(r1, c1), cellA1(r2, c2))
}
