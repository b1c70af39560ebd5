package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/sensortag-sheets/sensortag-sheets/readings"
)

type worksheet struct {
	google      *sheets.Service
	spreadsheet string
	title       string
	sheetID     int64
	index       map[string]int
}

// openWorksheet opens the named worksheet and builds the column index from its header row, writing the
// default header if the worksheet is empty.
func openWorksheet(ctx context.Context, google *sheets.Service, spreadsheetID string, name string) (*worksheet, error) {
	spreadsheet, err := getSpreadsheet(ctx, google, spreadsheetID)
	if err != nil {
		return nil, err
	}

	sheet, err := getSheet(spreadsheet, name)
	if err != nil {
		return nil, err
	}

	w := worksheet{
		google:      google,
		spreadsheet: spreadsheet.SpreadsheetId,
		title:       sheet.Properties.Title,
		sheetID:     sheet.Properties.SheetId,
	}

	response, err := google.Spreadsheets.Values.Get(w.spreadsheet, w.area("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve header row from worksheet '%s' (%v)", w.title, err)
	}

	var header []any
	if len(response.Values) > 0 {
		header = response.Values[0]
	}

	if len(header) == 0 {
		if err := w.writeHeader(ctx); err != nil {
			return nil, err
		}
	}

	w.index = readings.Index(header)

	debugf("worksheet '%s' column index: %v", w.title, w.index)

	return &w, nil
}

func (w *worksheet) Title() string {
	return w.title
}

func (w *worksheet) Index() map[string]int {
	return w.index
}

func (w *worksheet) Append(ctx context.Context, rows [][]any) error {
	values := sheets.ValueRange{
		Values: rows,
	}

	if _, err := w.google.Spreadsheets.Values.Append(w.spreadsheet, w.area("A1"), &values).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error appending to worksheet '%s' (%w)", w.title, err)
	}

	return nil
}

// Values returns the rows in a range of the worksheet. A blank range returns every row, including the
// header.
func (w *worksheet) Values(ctx context.Context, cells string) ([][]any, error) {
	response, err := w.google.Spreadsheets.Values.Get(w.spreadsheet, w.area(cells)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from worksheet '%s' (%v)", w.title, err)
	}

	return response.Values, nil
}

// Prune deletes the rows with a timestamp before the cutoff.
func (w *worksheet) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	values, err := w.Values(ctx, "")
	if err != nil {
		return 0, err
	} else if len(values) < 2 {
		return 0, nil
	}

	rows := []int{}
	for _, row := range readings.Before(values[1:], w.index["timestamp"], cutoff) {
		rows = append(rows, row+1)
	}

	spans := coalesce(rows)
	if len(spans) == 0 {
		return 0, nil
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{},
	}

	// delete from the bottom up so that the earlier row indices are unchanged
	deleted := 0
	for i := len(spans) - 1; i >= 0; i-- {
		rq.Requests = append(rq.Requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    w.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(spans[i].start),
					EndIndex:   int64(spans[i].end + 1),
				},
			},
		})

		deleted += spans[i].end - spans[i].start + 1
	}

	if _, err := w.google.Spreadsheets.BatchUpdate(w.spreadsheet, &rq).Context(ctx).Do(); err != nil {
		return 0, fmt.Errorf("error pruning worksheet '%s' (%w)", w.title, err)
	}

	return deleted, nil
}

func (w *worksheet) writeHeader(ctx context.Context) error {
	header := make([]any, len(readings.Columns))
	for i, v := range readings.Columns {
		header[i] = v
	}

	values := sheets.ValueRange{
		Values: [][]any{header},
	}

	if _, err := w.google.Spreadsheets.Values.Update(w.spreadsheet, w.area("A1"), &values).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error writing header to worksheet '%s' (%w)", w.title, err)
	}

	infof("wrote header row to worksheet '%s'", w.title)

	return nil
}

// area returns an A1 range on the worksheet, quoting the worksheet title.
func (w *worksheet) area(cells string) string {
	return area(w.title, cells)
}

func area(title string, cells string) string {
	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if cells == "" {
		return quoted
	}

	return quoted + "!" + cells
}

type span struct {
	start int
	end   int
}

// coalesce groups row numbers into contiguous spans, in ascending order.
func coalesce(rows []int) []span {
	if len(rows) == 0 {
		return nil
	}

	list := append([]int{}, rows...)
	sort.Ints(list)

	spans := []span{}
	start := list[0]
	last := list[0]
	for _, row := range list[1:] {
		if row != last+1 {
			spans = append(spans, span{start, last})
			start = row
		}

		last = row
	}

	return append(spans, span{start, last})
}
