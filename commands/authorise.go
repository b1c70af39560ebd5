package commands

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

var AuthoriseCmd = Authorise{
	command: command{
		workdir:     DEFAULT_WORKDIR,
		credentials: DEFAULT_CREDENTIALS,
		worksheet:   "data",
	},
}

type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises sensortag-sheets to access a Google Sheets worksheet"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file> --url <url>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options] --url <URL>\n", APP)
	fmt.Println()
	fmt.Println("  Authorises sensortag-sheets to access a Google Sheets worksheet and writes the header row if")
	fmt.Println("  the worksheet is empty.")
	fmt.Println()
	fmt.Println("  Service account credentials need no further authorisation but the spreadsheet must be shared with")
	fmt.Println("  the service account. OAuth2 client credentials require the user to authorise access in a browser,")
	fmt.Println("  after which the token is kept in the working directory.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    sensortag-sheets authorise --credentials "credentials.json" --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"`)
	fmt.Println(`    sensortag-sheets authorise --credentials "credentials.json" --spreadsheet raspberry-pi-sensortag --worksheet data`)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	return cmd.flagset("authorise")
}

func (cmd *Authorise) Execute(args ...any) error {
	ctx, _ := arguments(args...)

	if err := cmd.validate(); err != nil {
		return err
	}

	b, err := os.ReadFile(cmd.credentials)
	if err != nil {
		return err
	}

	var c credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("invalid credentials file %v (%w)", cmd.credentials, err)
	}

	if c.Type == "service_account" {
		infof("using service account %v", c.ClientEmail)
		fmt.Printf("\n  Please check that the spreadsheet is shared with %v\n\n", c.ClientEmail)
	} else {
		config, err := google.ConfigFromJSON(b, scopes(&cmd.command)...)
		if err != nil {
			return fmt.Errorf("invalid OAuth2 client credentials (%w)", err)
		}

		token, err := getTokenFromWeb(ctx, config)
		if err != nil {
			return fmt.Errorf("authorisation error (%w)", err)
		}

		if err := saveToken(tokensFile(cmd.credentials, cmd.workdir), token); err != nil {
			return err
		}
	}

	sheet, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	infof("authorised access to worksheet '%v' (%d columns)", sheet.Title(), len(sheet.Index()))

	return nil
}
