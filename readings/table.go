package readings

import (
	"fmt"
	"time"
)

// MakeTable builds a readings table from worksheet values. The first row is the header and must include
// a 'Timestamp' column. The known reading columns are moved into the default order, followed by any
// other columns. Rows without a valid timestamp are skipped.
func MakeTable(rows [][]any) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("Empty sheet")
	}

	// .. build index
	index := map[string]int{}
	for i, v := range rows[0] {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("Invalid column name '%v'", v)
		}

		k := normalise(s)
		if k == "" {
			continue
		}

		if _, ok := index[k]; ok {
			return nil, fmt.Errorf("Duplicate column name '%s'", s)
		}

		index[k] = i
	}

	// ... header
	header := []string{}
	columns := []int{}

	for _, c := range Columns {
		if ix, ok := index[normalise(c)]; ok {
			header = append(header, clean(rows[0][ix].(string)))
			columns = append(columns, ix)
		}
	}

	for i, v := range rows[0] {
		if k := normalise(v.(string)); k != "" && !known(k) {
			header = append(header, clean(v.(string)))
			columns = append(columns, i)
		}
	}

	if len(header) == 0 {
		return nil, fmt.Errorf("Missing/invalid header row")
	}

	if normalise(header[0]) != "timestamp" {
		return nil, fmt.Errorf("Missing 'timestamp' column")
	}

	// ... records
	records := [][]string{}
	for _, row := range rows[1:] {
		if ix := index["timestamp"]; ix >= len(row) {
			continue
		} else if _, err := parseTimestamp(row[ix]); err != nil {
			continue
		}

		record := []string{}
		for _, ix := range columns {
			v := ""
			if ix < len(row) {
				v = fmt.Sprintf("%v", row[ix])
			}

			record = append(record, clean(v))
		}

		records = append(records, record)
	}

	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

// Before returns the indices of the rows with a timestamp earlier than the cutoff. Row 0 is the first
// row of values.
func Before(rows [][]any, column int, cutoff time.Time) []int {
	list := []int{}

	for i, row := range rows {
		if column < len(row) {
			if timestamp, err := parseTimestamp(row[column]); err == nil && timestamp.Before(cutoff) {
				list = append(list, i)
			}
		}
	}

	return list
}
