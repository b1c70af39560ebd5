package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets"
	DRIVE  = "https://www.googleapis.com/auth/drive.metadata.readonly"
)

type credentials struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
}

// authorize returns an HTTP client for the Google APIs. Service account credentials are used directly,
// OAuth2 client credentials need a token previously saved by the 'authorise' command.
func authorize(ctx context.Context, file string, workdir string, scopes ...string) (*http.Client, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var c credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("invalid credentials file %v (%w)", file, err)
	}

	if c.Type == "service_account" {
		config, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, err
		}

		debugf("using service account %v", c.ClientEmail)

		return config.Client(ctx), nil
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, err
	}

	tokens := tokensFile(file, workdir)
	token, err := tokenFromFile(tokens)
	if err != nil {
		return nil, fmt.Errorf("no OAuth2 token in %v - run '%v authorise' first (%w)", tokens, APP, err)
	}

	return config.Client(ctx, token), nil
}

func tokensFile(credentials, workdir string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	return filepath.Join(workdir, ".google", fmt.Sprintf("%s.tokens", name))
}

func scopes(cmd *command) []string {
	if strings.TrimSpace(cmd.url) == "" {
		return []string{SHEETS, DRIVE}
	}

	return []string{SHEETS}
}

// open authorises access to the spreadsheet and opens the configured worksheet.
func (cmd *command) open(ctx context.Context) (*worksheet, error) {
	client, err := authorize(ctx, cmd.credentials, cmd.workdir, scopes(cmd)...)
	if err != nil {
		return nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	google, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	id, err := cmd.lookup(ctx, client)
	if err != nil {
		return nil, err
	}

	debugf("spreadsheet - ID:%s  worksheet:%s", id, cmd.worksheet)

	return openWorksheet(ctx, google, id, cmd.worksheet)
}

// lookup returns the spreadsheet ID from the --url, or searches Drive for a spreadsheet with the
// --spreadsheet name.
func (cmd *command) lookup(ctx context.Context, client *http.Client) (string, error) {
	if strings.TrimSpace(cmd.url) != "" {
		return spreadsheetID(cmd.url)
	}

	gdrive, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("unable to create new Drive client (%w)", err)
	}

	name := strings.TrimSpace(cmd.spreadsheet)
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escape(name))

	files, err := gdrive.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for spreadsheet '%s' (%w)", name, err)
	}

	switch len(files.Files) {
	case 0:
		return "", fmt.Errorf("no spreadsheet named '%s' - check the spreadsheet is shared with the credentials account", name)

	case 1:
		return files.Files[0].Id, nil

	default:
		warnf("%d spreadsheets named '%s', using %s", len(files.Files), name, files.Files[0].Id)
		return files.Files[0].Id, nil
	}
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
