package readings

import (
	"encoding/csv"
	"fmt"
	"io"
)

func MakeTSV(f io.Writer, table *Table) error {
	if table == nil || len(table.Header) == 0 {
		return fmt.Errorf("Missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(table.Header); err != nil {
		return err
	}

	for _, record := range table.Records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// ParseTSV reads a TSV file with a header row and validates it the same way as a downloaded worksheet.
func ParseTSV(f io.Reader) (*Table, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}

		rows = append(rows, row)
	}

	return MakeTable(rows)
}

// Rows lays out the table records as worksheet rows using the worksheet column index. Columns that are
// not in the index are dropped.
func Rows(table *Table, index map[string]int) [][]any {
	columns := 0
	for _, v := range index {
		if v >= columns {
			columns = v + 1
		}
	}

	rows := [][]any{}
	for _, record := range table.Records {
		row := make([]any, columns)
		for i := range row {
			row[i] = ""
		}

		for i, h := range table.Header {
			if ix, ok := index[normalise(h)]; ok && i < len(record) {
				row[ix] = record[i]
			}
		}

		rows = append(rows, row)
	}

	return rows
}
