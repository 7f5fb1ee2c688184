package sink

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/lysyi3m/profile-comb/app/cfg"
)

const sheetRange = "A:O"

// SheetStore implements RowStore on a Google Sheets spreadsheet using a
// service account.
type SheetStore struct {
	service       *sheets.Service
	spreadsheetID string
}

var _ RowStore = (*SheetStore)(nil)

func NewSheetStore(ctx context.Context) (*SheetStore, error) {
	appCfg := cfg.Get()

	credentials, err := os.ReadFile(appCfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetStore{
		service:       service,
		spreadsheetID: appCfg.SpreadsheetID,
	}, nil
}

func (s *SheetStore) Load(ctx context.Context) ([][]string, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, sheetRange).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to load sheet values: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		values := make([]string, 0, len(row))
		for _, cell := range row {
			values = append(values, fmt.Sprint(cell))
		}
		rows = append(rows, values)
	}

	return rows, nil
}

func (s *SheetStore) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: toInterfaceRows(rows)}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, sheetRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append sheet rows: %w", err)
	}

	return nil
}

func (s *SheetStore) Update(ctx context.Context, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, update := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("A%d:O%d", update.Row, update.Row),
			Values: toInterfaceRows([][]string{update.Values}),
		})
	}

	request := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}

	_, err := s.service.Spreadsheets.Values.
		BatchUpdate(s.spreadsheetID, request).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet rows: %w", err)
	}

	return nil
}

func toInterfaceRows(rows [][]string) [][]interface{} {
	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	return values
}
