package commands

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sensortag-sheets/sensortag-sheets/readings"
	"github.com/sensortag-sheets/sensortag-sheets/sensortag"
)

// spool is a TSV file of the readings that could not be appended to the worksheet.
type spool struct {
	file string
}

func (s *spool) Add(r sensortag.Reading) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0770); err != nil {
		return err
	}

	_, err := os.Stat(s.file)
	exists := err == nil

	f, err := os.OpenFile(s.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return err
	}

	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if !exists {
		if err := w.Write(readings.Columns); err != nil {
			return err
		}
	}

	if err := w.Write(readings.Record(r)); err != nil {
		return err
	}

	w.Flush()

	return w.Error()
}

// Load returns the spooled readings, or nil if there are none.
func (s *spool) Load() (*readings.Table, error) {
	f, err := os.Open(s.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	defer f.Close()

	table, err := readings.ParseTSV(f)
	if err != nil {
		return nil, err
	} else if len(table.Records) == 0 {
		return nil, nil
	}

	return table, nil
}

func (s *spool) Clear() error {
	if err := os.Remove(s.file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Discard moves an unreadable spool file aside so that subsequent readings are spooled to a new file.
func (s *spool) Discard() (string, error) {
	bad := s.file + ".bad"
	if err := os.Rename(s.file, bad); err != nil {
		return "", err
	}

	return bad, nil
}
