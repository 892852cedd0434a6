package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ValueInputUserEntered makes Sheets parse written values as if typed by
// a user, which triggers formula evaluation. ValueInputRaw stores them
// verbatim.
const (
	ValueInputUserEntered = "USER_ENTERED"
	ValueInputRaw         = "RAW"
)

// Client implements the SheetsAPI interface using Google Sheets API
type Client struct {
	service *sheets.Service
}

// NewClient creates a new Google Sheets client with the provided options,
// typically option.WithTokenSource from the service factory.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service}, nil
}

// NewClientFromService wraps an already-built Sheets service handle
func NewClientFromService(service *sheets.Service) *Client {
	return &Client{service: service}
}

// FetchRange reads the bounding rectangle and flattens it into row-major
// CellRefs. The API omits trailing empty cells and rows, so the result is
// padded back out to the full rectangle.
func (c *Client) FetchRange(ctx context.Context, spreadsheetID, sheetName string, r1, c1, r2, c2 int) ([]CellRef, error) {
	readRange := rangeA1(sheetName, r1, c1, r2, c2)

	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	nRows := r2 - r1 + 1
	nCols := c2 - c1 + 1
	refs := make([]CellRef, 0, nRows*nCols)

	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			var value interface{}
			if i < len(resp.Values) && j < len(resp.Values[i]) {
				value = resp.Values[i][j]
			}
			refs = append(refs, CellRef{
				Row:   r1 + i,
				Col:   c1 + j,
				Value: value,
			})
		}
	}

	return refs, nil
}

// BatchUpdateCells submits every cell as a single-cell value range in one
// batch update call. An empty batch returns without touching the API.
func (c *Client) BatchUpdateCells(ctx context.Context, spreadsheetID, sheetName string, cells []CellRef, valueInputOption string) error {
	if len(cells) == 0 {
		log.Debug().Str("sheet_name", sheetName).Msg("Empty batch update, nothing to write")
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(cells))
	for _, cell := range cells {
		data = append(data, &sheets.ValueRange{
			Range:  rangeA1(sheetName, cell.Row, cell.Col, cell.Row, cell.Col),
			Values: [][]interface{}{{cell.Value}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}

	_, err := c.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to batch update %d cells: %w", len(cells), err)
	}

	return nil
}

// ResizeSheet sets the sheet grid to exactly rows x cols
func (c *Client) ResizeSheet(ctx context.Context, spreadsheetID, sheetName string, rows, cols int) error {
	sheetID, err := c.sheetIDByName(ctx, spreadsheetID, sheetName)
	if err != nil {
		return err
	}

	log.Debug().
		Str("sheet_name", sheetName).
		Int("rows", rows).
		Int("cols", cols).
		Msg("Resizing sheet")

	req := &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId: sheetID,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(rows),
					ColumnCount: int64(cols),
				},
			},
			Fields: "gridProperties.rowCount,gridProperties.columnCount",
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{req},
	}

	_, err = c.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to resize sheet %s: %w", sheetName, err)
	}

	return nil
}

// SheetExists checks if a sheet with the given name exists in the spreadsheet
func (c *Client) SheetExists(ctx context.Context, spreadsheetID, sheetName string) (bool, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return true, nil
		}
	}

	return false, nil
}

func (c *Client) sheetIDByName(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	return 0, fmt.Errorf("sheet %s not found", sheetName)
}
