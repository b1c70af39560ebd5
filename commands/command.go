package commands

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/sheets/v4"

	"github.com/sensortag-sheets/sensortag-sheets/config"
)

const APP = "sensortag-sheets"

type Options struct {
	Debug bool
	Env   string
}

// command holds the options shared by the commands that access the worksheet.
type command struct {
	workdir     string
	credentials string
	url         string
	spreadsheet string
	worksheet   string
	debug       bool
}

func (cmd *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, spool, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the service account or OAuth2 client 'credentials.json' file")
	flagset.StringVar(&cmd.url, "url", cmd.url, "Spreadsheet URL")
	flagset.StringVar(&cmd.spreadsheet, "spreadsheet", cmd.spreadsheet, "Spreadsheet name (alternative to --url)")
	flagset.StringVar(&cmd.worksheet, "worksheet", cmd.worksheet, "Worksheet name")

	return flagset
}

func (cmd *command) configure(c *config.Config) {
	if c.Workdir != "" {
		cmd.workdir = c.Workdir
	}

	if c.Credentials != "" {
		cmd.credentials = c.Credentials
	}

	cmd.url = c.URL
	cmd.spreadsheet = c.Spreadsheet
	cmd.worksheet = c.Worksheet
}

func (cmd *command) validate() error {
	if strings.TrimSpace(cmd.credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	if strings.TrimSpace(cmd.url) == "" && strings.TrimSpace(cmd.spreadsheet) == "" {
		return fmt.Errorf("one of --url or --spreadsheet is required")
	}

	if strings.TrimSpace(cmd.url) != "" {
		if _, err := spreadsheetID(cmd.url); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cmd.worksheet) == "" {
		return fmt.Errorf("--worksheet is a required option")
	}

	return nil
}

// Configure sets the command defaults from the environment configuration. It must be invoked before
// the command line is parsed.
func Configure(c *config.Config) {
	for _, cmd := range []interface{ configure(*config.Config) }{
		&ScanCmd,
		&ReadCmd,
		&AuthoriseCmd,
		&RunCmd,
		&GetCmd,
		&PutCmd,
	} {
		cmd.configure(c)
	}
}

func spreadsheetID(url string) (string, error) {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

func getSpreadsheet(ctx context.Context, google *sheets.Service, id string) (*sheets.Spreadsheet, error) {
	spreadsheet, err := google.Spreadsheets.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%v)", err)
	}

	return spreadsheet, nil
}

func getSheet(spreadsheet *sheets.Spreadsheet, name string) (*sheets.Sheet, error) {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && normalise(sheet.Properties.Title) == normalise(name) {
			return sheet, nil
		}
	}

	return nil, fmt.Errorf("unable to identify worksheet '%s'", name)
}

// arguments extracts the context and global options passed to Execute by main().
func arguments(args ...any) (context.Context, *Options) {
	ctx := context.Background()
	options := &Options{}

	for _, arg := range args {
		switch v := arg.(type) {
		case context.Context:
			ctx = v
		case *Options:
			options = v
		}
	}

	setDebug(options.Debug)

	return ctx, options
}

func helpOptions(flagset *flag.FlagSet) {
	fmt.Println("  Options:")
	fmt.Println()

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-14s %s\n", f.Name, f.Usage)
	})

	fmt.Println()
	fmt.Println("    --debug Displays internal information for diagnosing errors")
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
}
