package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sensortag-sheets/sensortag-sheets/readings"
)

var GetCmd = Get{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		worksheet:   "data",
	},

	area: "",
	file: time.Now().Format("sensortag-2006-01-02T150405.tsv"),
}

type Get struct {
	command
	area string
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the readings from a Google Sheets worksheet and stores them to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--credentials <file> --url <url> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --url <URL> [--range <range>] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the readings in a Google Sheets worksheet to a TSV file. The range must include the")
	fmt.Println("  header row and the rows without a valid timestamp are skipped.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sensortag-sheets --debug get --credentials "credentials.json" \`)
	fmt.Println(`                                 --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                                 --range "A1:H" \`)
	fmt.Println(`                                 --file "readings.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.area, "range", cmd.area, "Worksheet range e.g. 'A1:H'. Defaults to the whole worksheet")
	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to 'sensortag-<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if err := cmd.validate(); err != nil {
		return err
	}

	sheet, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	values, err := sheet.Values(ctx, cmd.area)
	if err != nil {
		return err
	} else if len(values) == 0 {
		return fmt.Errorf("no data in worksheet/range")
	}

	table, err := readings.MakeTable(values)
	if err != nil {
		return fmt.Errorf("invalid worksheet data (%w)", err)
	}

	debugf("retrieved %d readings from worksheet '%v'", len(table.Records), sheet.Title())

	tmp, err := os.CreateTemp(os.TempDir(), "sensortag")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := readings.MakeTSV(tmp, table); err != nil {
		return fmt.Errorf("error creating TSV file (%w)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	infof("retrieved %d readings to file %s", len(table.Records), cmd.file)

	return nil
}
