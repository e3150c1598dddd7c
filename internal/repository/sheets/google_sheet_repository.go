package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/lotprice/internal/config"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// Repository appends training rows to a spreadsheet tab.
type Repository interface {
	ports.DatasetSink
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	tab           string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return newRepository(service, cfg, logger), nil
}

func newRepository(service *sheetsapi.Service, cfg config.SheetsConfig, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}

	tab := cfg.DatasetTab
	if tab == "" {
		tab = "Features"
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		tab:           tab,
		logger:        logger,
	}
}

func (r *GoogleSheetRepository) columns() string {
	return r.tab + "!A:AZ"
}

// EnsureHeader writes header on the first row when the tab is empty.
func (r *GoogleSheetRepository) EnsureHeader(ctx context.Context, header []string) error {
	rows, err := r.ReadRange(ctx, r.tab+"!A1:AZ1")
	if err != nil {
		return err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		return nil
	}

	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	r.logger.Info("writing dataset header", zap.String("tab", r.tab), zap.Int("columns", len(header)))
	return r.AppendRow(ctx, values)
}

// AppendRow appends the provided values after the last row of the tab.
func (r *GoogleSheetRepository) AppendRow(ctx context.Context, values []interface{}) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.columns(), payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into %s: %w", r.tab, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("tab", r.tab))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}
