package commands

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sensortag-sheets/sensortag-sheets/readings"
)

var PutCmd = Put{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		worksheet:   "data",
	},
}

type Put struct {
	command
	file  string
	clear bool
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file. Defaults to the spool file in the working directory")
	flagset.BoolVar(&cmd.clear, "clear", cmd.clear, "Deletes the TSV file once it has been uploaded")

	return flagset
}

func (cmd *Put) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if err := cmd.validate(); err != nil {
		return err
	}

	file := cmd.file
	if strings.TrimSpace(file) == "" {
		file = filepath.Join(cmd.workdir, "spool.tsv")
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}

	defer f.Close()

	table, err := readings.ParseTSV(f)
	if err != nil {
		return fmt.Errorf("invalid TSV file %v (%w)", file, err)
	}

	if len(table.Records) == 0 {
		infof("no readings in %v", file)
		return nil
	}

	sheet, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	rows := readings.Rows(table, sheet.Index())
	if err := sheet.Append(ctx, rows); err != nil {
		return err
	}

	infof("uploaded %d readings from %v to worksheet '%v'", len(rows), file, sheet.Title())

	if cmd.clear {
		f.Close()
		if err := os.Remove(file); err != nil {
			return err
		}

		infof("deleted %v", file)
	}

	return nil
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Appends the readings in a TSV file to a Google Sheets worksheet"
}

func (cmd *Put) Usage() string {
	return "--credentials <file> --url <url> --file <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --url <URL> [--file <file>] [--clear]\n", APP)
	fmt.Println()
	fmt.Println("  Appends the readings in a TSV file to a Google Sheets worksheet. The TSV file columns are matched")
	fmt.Println("  to the worksheet header row by name. The default file is the spool of readings that the 'run'")
	fmt.Println("  command could not upload.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sensortag-sheets --debug put --credentials "credentials.json" \`)
	fmt.Println(`                                 --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                                 --file "readings.tsv"`)
	fmt.Println()
}
