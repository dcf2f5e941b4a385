// Package sheets publishes hour totals and the logged-in list to a Google
// spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config describes where data lives in the spreadsheet.
type Config struct {
	SheetID string
	// NameRange is an A1 range holding one name per row, e.g. "Hours!A2:A".
	NameRange string
	// HoursColumn is the A1 column prefix for hour totals, e.g. "Hours!B".
	HoursColumn string
	// HoursRowOffset converts an index into NameRange into a sheet row.
	HoursRowOffset int
	// LoggedInSheet names the tab that lists clocked-in users.
	LoggedInSheet string
}

// valuesAPI is the subset of the Sheets API used here.
type valuesAPI interface {
	columns(ctx context.Context, sheetID, rng string) ([][]any, error)
	update(ctx context.Context, sheetID, rng string, rows [][]any) error
	spreadsheetID(ctx context.Context, sheetID string) (string, error)
}

// NewService builds a Sheets client authenticated with a service account
// key file.
func NewService(ctx context.Context, serviceFile, appName string) (*sheets.Service, error) {
	key, err := os.ReadFile(serviceFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	srv, err := sheets.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(ctx, creds.TokenSource)),
		option.WithUserAgent(appName))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return srv, nil
}

type apiValues struct {
	srv *sheets.Service
}

func (a apiValues) columns(ctx context.Context, sheetID, rng string) ([][]any, error) {
	resp, err := a.srv.Spreadsheets.Values.Get(sheetID, rng).MajorDimension("COLUMNS").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a apiValues) update(ctx context.Context, sheetID, rng string, rows [][]any) error {
	_, err := a.srv.Spreadsheets.Values.Update(sheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (a apiValues) spreadsheetID(ctx context.Context, sheetID string) (string, error) {
	resp, err := a.srv.Spreadsheets.Get(sheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return resp.SpreadsheetId, nil
}
