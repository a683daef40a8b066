// Package reporting exports budget listings to Google Sheets.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/repository/sheets"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

const dateLayout = "2006-01-02 15:04"

var budgetHeader = []any{"id", "cliente", "status", "valor_total", "created_at", "expira_em"}

// Service writes a snapshot of the budgets into a sheet range.
type Service struct {
	sheets     sheets.Writer
	state      *state.State
	sheetRange string
	location   *time.Location
	logger     *zap.Logger
}

// NewService wires a new reporting service instance. loc may be nil for UTC.
func NewService(writer sheets.Writer, st *state.State, sheetRange string, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		sheets:     writer,
		state:      st,
		sheetRange: sheetRange,
		location:   loc,
		logger:     logger.OrNop(log),
	}
}

// ExportBudgets replaces the sheet content with one row per budget and
// returns the number of budget rows written.
func (s *Service) ExportBudgets(ctx context.Context) (int, error) {
	rows := s.budgetRows()

	if err := s.sheets.ClearRange(ctx, sheetName(s.sheetRange)); err != nil {
		return 0, fmt.Errorf("clear budget export: %w", err)
	}
	if err := s.sheets.WriteRange(ctx, s.sheetRange, rows); err != nil {
		return 0, fmt.Errorf("write budget export: %w", err)
	}

	s.logger.Info("budgets exported", zap.Int("rows", len(rows)-1), zap.String("range", s.sheetRange))
	return len(rows) - 1, nil
}

func (s *Service) budgetRows() [][]any {
	budgets := s.state.Budgets()
	days := s.state.QuoteValidityDays()

	rows := make([][]any, 0, len(budgets)+1)
	rows = append(rows, budgetHeader)
	for _, b := range budgets {
		customer := b.CustomerID
		if c, ok := s.state.Customer(b.CustomerID); ok {
			customer = c.Name
		}
		expires := ""
		if days > 0 {
			expires = b.ExpiresAt(days).In(s.location).Format(dateLayout)
		}
		rows = append(rows, []any{
			b.ID,
			customer,
			string(b.Status),
			b.TotalValue.StringFixed(2),
			b.CreatedAt.In(s.location).Format(dateLayout),
			expires,
		})
	}
	return rows
}

// sheetName reduces "Sheet!A1" to "Sheet" so the whole tab is cleared.
func sheetName(sheetRange string) string {
	name, _, _ := strings.Cut(sheetRange, "!")
	return name
}
