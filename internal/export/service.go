// Package export renders stored action items as an Excel workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/psxom3/genai-regwatch/internal/domain"
	"github.com/psxom3/genai-regwatch/internal/logging"
	"github.com/psxom3/genai-regwatch/internal/ports"
)

// SheetName is the worksheet holding the action rows.
const SheetName = "Actions"

var headers = []string{
	"Regulator",
	"Title",
	"URL",
	"Function",
	"Task",
	"Due By",
	"References",
	"Processed At",
}

// Service exports action items from the read repository.
type Service struct {
	repo   ports.ReadRepository
	logger *slog.Logger
}

// NewService builds an export service.
func NewService(repo ports.ReadRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logging.OrDiscard(logger)}
}

// ExportActionsXLSX returns every stored action item as xlsx bytes.
func (s *Service) ExportActionsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	rows, err := s.repo.ListActionRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("query actions: %w", err)
	}

	data, err := ActionsWorkbook(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// ActionsWorkbook renders rows under a header line on the Actions sheet.
func ActionsWorkbook(rows []domain.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for r, row := range rows {
		line := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		write(1, row.Regulator)
		write(2, row.Title)
		write(3, row.URL)
		write(4, row.Item.Function)
		write(5, row.Item.Task)
		write(6, row.Item.DueBy)
		write(7, row.Item.References)
		if !row.ProcessedAt.IsZero() {
			write(8, row.ProcessedAt.UTC().Format(time.RFC3339))
		} else {
			write(8, "")
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 12)
	_ = f.SetColWidth(SheetName, "B", "B", 48)
	_ = f.SetColWidth(SheetName, "C", "C", 40)
	_ = f.SetColWidth(SheetName, "D", "D", 20)
	_ = f.SetColWidth(SheetName, "E", "E", 60)
	_ = f.SetColWidth(SheetName, "F", "F", 16)
	_ = f.SetColWidth(SheetName, "G", "G", 30)
	_ = f.SetColWidth(SheetName, "H", "H", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
