package readings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// TIMESTAMP is the layout of the timestamp column.
const TIMESTAMP = "2006-01-02 15:04:05"

// Columns is the default worksheet header, in the order the readings are written when the worksheet
// has no header row.
var Columns = []string{
	"Timestamp",
	"IR Temp",
	"Humidity Temp",
	"Baro Temp",
	"IR",
	"Humidity",
	"Pressure",
	"Light",
}

type Table struct {
	Header  []string
	Records [][]string
}

// Index maps the normalised worksheet column names to column numbers. Unknown columns are ignored and
// an empty header yields the default column layout.
func Index(header []any) map[string]int {
	index := map[string]int{}

	for i, v := range header {
		if s, ok := v.(string); ok {
			k := normalise(s)
			if known(k) {
				if _, ok := index[k]; !ok {
					index[k] = i
				}
			}
		}
	}

	if len(index) == 0 {
		for i, v := range Columns {
			index[normalise(v)] = i
		}
	}

	return index
}

// Row lays out a reading as a worksheet row. Discarded values are left blank.
func Row(r sensortag.Reading, index map[string]int) []any {
	columns := 0
	for _, v := range index {
		if v >= columns {
			columns = v + 1
		}
	}

	row := make([]any, columns)
	for i := range row {
		row[i] = ""
	}

	values := fields(r)
	for k, ix := range index {
		if v, ok := values[k]; ok && v != nil {
			row[ix] = v
		}
	}

	return row
}

// Record formats a reading as a TSV record in the default column order.
func Record(r sensortag.Reading) []string {
	values := fields(r)
	record := make([]string, len(Columns))

	for i, c := range Columns {
		switch v := values[normalise(c)].(type) {
		case string:
			record[i] = v
		case float64:
			record[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return record
}

func fields(r sensortag.Reading) map[string]any {
	values := map[string]any{
		"timestamp":    r.Timestamp.Format(TIMESTAMP),
		"irtemp":       r.AmbientTemp,
		"humiditytemp": nil,
		"barotemp":     r.BaroTemp,
		"ir":           r.ObjectTemp,
		"humidity":     nil,
		"pressure":     r.Pressure,
		"light":        r.Light,
	}

	if r.HumidityTemp != nil {
		values["humiditytemp"] = *r.HumidityTemp
	}

	if r.Humidity != nil {
		values["humidity"] = *r.Humidity
	}

	return values
}

func known(k string) bool {
	for _, c := range Columns {
		if normalise(c) == k {
			return true
		}
	}

	return false
}

func parseTimestamp(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid timestamp %v", v)
	}

	return time.ParseInLocation(TIMESTAMP, strings.TrimSpace(s), time.Local)
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
