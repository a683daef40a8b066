// Package sheets writes tabular exports into a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

var errEmptyRange = errors.New("sheet range must not be empty")

// Writer is the subset of the Sheets API the exports need.
type Writer interface {
	ClearRange(ctx context.Context, sheetRange string) error
	WriteRange(ctx context.Context, sheetRange string, rows [][]any) error
}

// Repository is a Writer backed by the official Google Sheets client.
type Repository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewRepository authenticates with the service account file of cfg.
func NewRepository(ctx context.Context, cfg config.SheetsConfig, log *zap.Logger) (*Repository, error) {
	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	return &Repository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.OrNop(log),
	}, nil
}

// ClearRange empties the cells of sheetRange.
func (r *Repository) ClearRange(ctx context.Context, sheetRange string) error {
	if sheetRange == "" {
		return errEmptyRange
	}
	_, err := r.service.Spreadsheets.Values.
		Clear(r.spreadsheetID, sheetRange, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clear range %s: %w", sheetRange, err)
	}
	return nil
}

// WriteRange overwrites the cells starting at sheetRange with rows.
func (r *Repository) WriteRange(ctx context.Context, sheetRange string, rows [][]any) error {
	if sheetRange == "" {
		return errEmptyRange
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	_, err := r.service.Spreadsheets.Values.Update(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write range %s: %w", sheetRange, err)
	}

	r.logger.Debug("range written", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}
