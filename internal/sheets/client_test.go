package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := sheetsapi.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Failed to create sheets service: %v", err)
	}

	return NewClientFromService(svc)
}

func TestFetchRangePadsShortResponse(t *testing.T) {
	// The API drops trailing empty cells and rows; the client must pad
	// the rectangle back out.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"range":"'Tab'!A1:C2","majorDimension":"ROWS","values":[["a","b"],["c"]]}`))
	})

	refs, err := client.FetchRange(context.Background(), "sid", "Tab", 1, 1, 2, 3)
	if err != nil {
		t.Fatalf("FetchRange returned error: %v", err)
	}

	if len(refs) != 6 {
		t.Fatalf("Expected 6 cells for 2x3 rectangle, got %d", len(refs))
	}

	expected := []CellRef{
		{Row: 1, Col: 1, Value: "a"},
		{Row: 1, Col: 2, Value: "b"},
		{Row: 1, Col: 3, Value: nil},
		{Row: 2, Col: 1, Value: "c"},
		{Row: 2, Col: 2, Value: nil},
		{Row: 2, Col: 3, Value: nil},
	}
	for i, want := range expected {
		if refs[i] != want {
			t.Errorf("Cell %d: expected %+v, got %+v", i, want, refs[i])
		}
	}
}

func TestFetchRangeOffsetOrigin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values":[["x"]]}`))
	})

	refs, err := client.FetchRange(context.Background(), "sid", "Tab", 3, 2, 3, 2)
	if err != nil {
		t.Fatalf("FetchRange returned error: %v", err)
	}
	if len(refs) != 1 || refs[0].Row != 3 || refs[0].Col != 2 {
		t.Errorf("Expected single cell at (3,2), got %+v", refs)
	}
}

func TestBatchUpdateCellsEmptyIsNoOp(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	err := client.BatchUpdateCells(context.Background(), "sid", "Tab", nil, ValueInputUserEntered)
	if err != nil {
		t.Fatalf("BatchUpdateCells returned error: %v", err)
	}
	if requests != 0 {
		t.Errorf("Expected zero requests for empty batch, got %d", requests)
	}
}

func TestBatchUpdateCellsRequestShape(t *testing.T) {
	var captured sheetsapi.BatchUpdateValuesRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("Unparseable request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"totalUpdatedCells":2}`))
	})

	cells := []CellRef{
		{Row: 1, Col: 1, Value: "a"},
		{Row: 2, Col: 2, Value: "b"},
	}

	err := client.BatchUpdateCells(context.Background(), "sid", "Tab", cells, ValueInputUserEntered)
	if err != nil {
		t.Fatalf("BatchUpdateCells returned error: %v", err)
	}

	if captured.ValueInputOption != ValueInputUserEntered {
		t.Errorf("Expected USER_ENTERED, got %q", captured.ValueInputOption)
	}
	if len(captured.Data) != 2 {
		t.Fatalf("Expected 2 value ranges, got %d", len(captured.Data))
	}
	if captured.Data[0].Range != "'Tab'!A1:A1" {
		t.Errorf("Expected range 'Tab'!A1:A1, got %q", captured.Data[0].Range)
	}
	if captured.Data[1].Range != "'Tab'!B2:B2" {
		t.Errorf("Expected range 'Tab'!B2:B2, got %q", captured.Data[1].Range)
	}
}
