package report

import (
	"fmt"

	"github.com/songkhoe/backend/internal/store"
	"github.com/songkhoe/backend/pkg/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// HistorySheet is the worksheet holding one row per record
const HistorySheet = "History"

var historyHeader = []any{
	"Time", "Systolic", "Diastolic", "Heart rate", "Steps", "Active minutes",
	"Sedentary minutes", "Weight", "Height", "BMI", "Sleep hours", "Sleep quality",
	"Wake-ups", "Expense", "Expense note",
}

// XLSXGenerator exports the health history as a spreadsheet
type XLSXGenerator struct {
	logger *zap.Logger
}

// NewXLSXGenerator creates a new XLSXGenerator
func NewXLSXGenerator(logger *zap.Logger) *XLSXGenerator {
	return &XLSXGenerator{logger: logger}
}

// Generate writes records, newest first, to a workbook
func (g *XLSXGenerator) Generate(records []model.HealthRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			g.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(HistorySheet, "A1", &historyHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(HistorySheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range store.NewestFirst(records) {
		row := []any{
			r.Time().Format("2006-01-02 15:04"),
			r.Systolic, r.Diastolic, r.HeartRate,
			r.Steps, r.ActiveMinutes, r.SedentaryMinutes,
			r.Weight, r.Height, roundTo(r.BMI, 1),
			r.SleepDuration, r.SleepQuality, r.WakeUps,
			r.ExpenseAmount, r.ExpenseNote,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(HistorySheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(HistorySheet, "O", "O", 30); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		g.logger.Error("failed to generate XLSX", zap.Error(err))
		return nil, fmt.Errorf("failed to generate XLSX: %w", err)
	}

	g.logger.Info("XLSX export generated",
		zap.Int("record_count", len(records)),
		zap.Int("size_bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}
