package commands

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestArea(t *testing.T) {
	tests := []struct {
		title    string
		cells    string
		expected string
	}{
		{"data", "A1", "'data'!A1"},
		{"data", "1:1", "'data'!1:1"},
		{"data", "", "'data'"},
		{"Bob's readings", "A1", "'Bob''s readings'!A1"},
	}

	for _, test := range tests {
		if v := area(test.title, test.cells); v != test.expected {
			t.Errorf("Incorrect range for '%v' - expected:%v, got:%v", test.title, test.expected, v)
		}
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		rows     []int
		expected []span
	}{
		{nil, nil},
		{[]int{1}, []span{{1, 1}}},
		{[]int{1, 2, 3}, []span{{1, 3}}},
		{[]int{1, 2, 5, 6, 7, 9}, []span{{1, 2}, {5, 7}, {9, 9}}},
		{[]int{9, 2, 1, 6, 5, 7}, []span{{1, 2}, {5, 7}, {9, 9}}},
	}

	for _, test := range tests {
		if spans := coalesce(test.rows); !reflect.DeepEqual(spans, test.expected) {
			t.Errorf("Incorrect spans for %v\n   expected:%v\n   got:     %v", test.rows, test.expected, spans)
		}
	}
}

func TestCoalesceDoesNotModifyRows(t *testing.T) {
	rows := []int{3, 1, 2}

	coalesce(rows)

	if !reflect.DeepEqual(rows, []int{3, 1, 2}) {
		t.Errorf("coalesce reordered the row list: %v", rows)
	}
}

type request struct {
	method string
	path   string
	query  map[string]string
	body   []byte
}

// fakeSheets is a minimal Sheets API server for a spreadsheet 'ID' with a single worksheet 'data'.
type fakeSheets struct {
	sync.Mutex
	header   []any
	rows     [][]any
	requests []request
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.Lock()
	f.requests = append(f.requests, request{
		method: r.Method,
		path:   r.URL.Path,
		query: map[string]string{
			"valueInputOption": r.URL.Query().Get("valueInputOption"),
			"insertDataOption": r.URL.Query().Get("insertDataOption"),
		},
		body: body,
	})
	f.Unlock()

	path := r.URL.Path
	reply := map[string]any{}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/v4/spreadsheets/ID"):
		reply = map[string]any{
			"spreadsheetId": "ID",
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 7, "title": "data"}},
			},
		}

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/values/'data'!1:1"):
		if len(f.header) > 0 {
			reply = map[string]any{"values": [][]any{f.header}}
		}

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/values/'data'"):
		reply = map[string]any{"values": append([][]any{f.header}, f.rows...)}

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		reply = map[string]any{"spreadsheetId": "ID"}

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		reply = map[string]any{"spreadsheetId": "ID"}

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		reply = map[string]any{"spreadsheetId": "ID"}

	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

func (f *fakeSheets) find(method string, suffix string) *request {
	f.Lock()
	defer f.Unlock()

	for _, rq := range f.requests {
		if rq.method == method && strings.HasSuffix(rq.path, suffix) {
			return &rq
		}
	}

	return nil
}

func newSheetsService(t *testing.T, f *fakeSheets) *sheets.Service {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	google, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("Error creating Sheets service (%v)", err)
	}

	return google
}

func TestOpenWorksheet(t *testing.T) {
	f := fakeSheets{
		header: []any{"Timestamp", "Humidity", "Light"},
	}

	ws, err := openWorksheet(context.Background(), newSheetsService(t, &f), "ID", "Data")
	if err != nil {
		t.Fatalf("Unexpected error opening worksheet (%v)", err)
	}

	expected := map[string]int{"timestamp": 0, "humidity": 1, "light": 2}

	if ws.Title() != "data" {
		t.Errorf("Incorrect worksheet title - expected:%v, got:%v", "data", ws.Title())
	}

	if ws.sheetID != 7 {
		t.Errorf("Incorrect sheet ID - expected:%v, got:%v", 7, ws.sheetID)
	}

	if !reflect.DeepEqual(ws.Index(), expected) {
		t.Errorf("Incorrect column index\n   expected:%v\n   got:     %v", expected, ws.Index())
	}

	if rq := f.find(http.MethodPut, "/values/'data'!A1"); rq != nil {
		t.Errorf("Unexpected header update for worksheet with existing header")
	}
}

func TestOpenWorksheetWritesHeader(t *testing.T) {
	f := fakeSheets{}

	ws, err := openWorksheet(context.Background(), newSheetsService(t, &f), "ID", "data")
	if err != nil {
		t.Fatalf("Unexpected error opening worksheet (%v)", err)
	}

	rq := f.find(http.MethodPut, "/values/'data'!A1")
	if rq == nil {
		t.Fatalf("Expected header update for empty worksheet")
	}

	if v := rq.query["valueInputOption"]; v != "RAW" {
		t.Errorf("Incorrect header valueInputOption - expected:%v, got:%v", "RAW", v)
	}

	var values sheets.ValueRange
	if err := json.Unmarshal(rq.body, &values); err != nil {
		t.Fatalf("Error decoding header update (%v)", err)
	}

	header := []any{"Timestamp", "IR Temp", "Humidity Temp", "Baro Temp", "IR", "Humidity", "Pressure", "Light"}
	if len(values.Values) != 1 || !reflect.DeepEqual(values.Values[0], header) {
		t.Errorf("Incorrect header row\n   expected:%v\n   got:     %v", header, values.Values)
	}

	expected := map[string]int{
		"timestamp":    0,
		"irtemp":       1,
		"humiditytemp": 2,
		"barotemp":     3,
		"ir":           4,
		"humidity":     5,
		"pressure":     6,
		"light":        7,
	}

	if !reflect.DeepEqual(ws.Index(), expected) {
		t.Errorf("Incorrect column index\n   expected:%v\n   got:     %v", expected, ws.Index())
	}
}

func TestWorksheetAppend(t *testing.T) {
	f := fakeSheets{
		header: []any{"Timestamp", "Humidity"},
	}

	ws, err := openWorksheet(context.Background(), newSheetsService(t, &f), "ID", "data")
	if err != nil {
		t.Fatalf("Unexpected error opening worksheet (%v)", err)
	}

	rows := [][]any{
		{"2024-06-01 12:00:00", 47.5},
		{"2024-06-01 12:01:00", ""},
	}

	if err := ws.Append(context.Background(), rows); err != nil {
		t.Fatalf("Unexpected error appending rows (%v)", err)
	}

	rq := f.find(http.MethodPost, "/values/'data'!A1:append")
	if rq == nil {
		t.Fatalf("Expected append request")
	}

	if v := rq.query["valueInputOption"]; v != "USER_ENTERED" {
		t.Errorf("Incorrect valueInputOption - expected:%v, got:%v", "USER_ENTERED", v)
	}

	if v := rq.query["insertDataOption"]; v != "INSERT_ROWS" {
		t.Errorf("Incorrect insertDataOption - expected:%v, got:%v", "INSERT_ROWS", v)
	}

	var values sheets.ValueRange
	if err := json.Unmarshal(rq.body, &values); err != nil {
		t.Fatalf("Error decoding appended rows (%v)", err)
	}

	if !reflect.DeepEqual(values.Values, rows) {
		t.Errorf("Incorrect appended rows\n   expected:%v\n   got:     %v", rows, values.Values)
	}
}

func TestWorksheetPrune(t *testing.T) {
	f := fakeSheets{
		header: []any{"Timestamp", "Humidity"},
		rows: [][]any{
			{"2024-01-01 00:00:00", "41.5"},
			{"2024-01-01 00:01:00", "41.6"},
			{"2024-06-01 00:00:00", "47.5"},
			{"2024-01-01 00:02:00", "41.7"},
		},
	}

	ws, err := openWorksheet(context.Background(), newSheetsService(t, &f), "ID", "data")
	if err != nil {
		t.Fatalf("Unexpected error opening worksheet (%v)", err)
	}

	cutoff := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local)

	deleted, err := ws.Prune(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("Unexpected error pruning worksheet (%v)", err)
	}

	if deleted != 3 {
		t.Errorf("Incorrect number of deleted rows - expected:%v, got:%v", 3, deleted)
	}

	rq := f.find(http.MethodPost, "/v4/spreadsheets/ID:batchUpdate")
	if rq == nil {
		t.Fatalf("Expected batch update request")
	}

	var batch sheets.BatchUpdateSpreadsheetRequest
	if err := json.Unmarshal(rq.body, &batch); err != nil {
		t.Fatalf("Error decoding batch update (%v)", err)
	}

	type dimension struct {
		sheetID   int64
		dimension string
		start     int64
		end       int64
	}

	expected := []dimension{
		{7, "ROWS", 4, 5},
		{7, "ROWS", 1, 3},
	}

	requests := []dimension{}
	for _, r := range batch.Requests {
		if r.DeleteDimension != nil && r.DeleteDimension.Range != nil {
			v := r.DeleteDimension.Range
			requests = append(requests, dimension{v.SheetId, v.Dimension, v.StartIndex, v.EndIndex})
		}
	}

	if !reflect.DeepEqual(requests, expected) {
		t.Errorf("Incorrect delete requests\n   expected:%v\n   got:     %v", expected, requests)
	}
}

func TestWorksheetPruneWithoutStaleRows(t *testing.T) {
	f := fakeSheets{
		header: []any{"Timestamp", "Humidity"},
		rows: [][]any{
			{"2024-06-01 00:00:00", "47.5"},
			{"not a timestamp", "47.6"},
		},
	}

	ws, err := openWorksheet(context.Background(), newSheetsService(t, &f), "ID", "data")
	if err != nil {
		t.Fatalf("Unexpected error opening worksheet (%v)", err)
	}

	cutoff := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local)

	if deleted, err := ws.Prune(context.Background(), cutoff); err != nil {
		t.Fatalf("Unexpected error pruning worksheet (%v)", err)
	} else if deleted != 0 {
		t.Errorf("Incorrect number of deleted rows - expected:%v, got:%v", 0, deleted)
	}

	if rq := f.find(http.MethodPost, ":batchUpdate"); rq != nil {
		t.Errorf("Unexpected batch update for worksheet without stale rows")
	}
}
