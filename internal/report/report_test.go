package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func sampleRecords() []model.HealthRecord {
	base := time.Date(2026, 4, 1, 7, 30, 0, 0, time.Local)

	first := vitals.Defaults()
	first.ExpenseAmount = 150000
	first.ExpenseNote = "Thuốc huyết áp"

	second := vitals.Defaults()
	second.Systolic = 150
	second.Weight = 72

	return []model.HealthRecord{
		vitals.NewRecord(first, "r1", base),
		vitals.NewRecord(second, "r2", base.AddDate(0, 0, 2)),
		vitals.NewRecord(vitals.Defaults(), "r3", base.AddDate(0, 0, 1)),
	}
}

func TestPDFGenerator_Generate_Success(t *testing.T) {
	generator := NewPDFGenerator(zap.NewNop())

	pdfBytes, err := generator.Generate(sampleRecords(), time.Now())

	require.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")), "output should be a PDF document")
}

func TestPDFGenerator_Generate_Empty(t *testing.T) {
	generator := NewPDFGenerator(zap.NewNop())

	pdfBytes, err := generator.Generate(nil, time.Now())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

func TestPDFGenerator_Generate_ManyRecords(t *testing.T) {
	generator := NewPDFGenerator(zap.NewNop())

	var records []model.HealthRecord
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		records = append(records, vitals.NewRecord(vitals.Defaults(), "r", base.AddDate(0, 0, i)))
	}

	pdfBytes, err := generator.Generate(records, time.Now())
	require.NoError(t, err)
	assert.Greater(t, len(pdfBytes), 1000)
}

func TestXLSXGenerator_Generate(t *testing.T) {
	generator := NewXLSXGenerator(zap.NewNop())

	data, err := generator.Generate(sampleRecords())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "Expense note", rows[0][14])

	// newest first: r2 (day 3), r3 (day 2), r1 (day 1)
	assert.Equal(t, "2026-04-03 07:30", rows[1][0])
	assert.Equal(t, "150", rows[1][1])
	assert.Equal(t, "2026-04-01 07:30", rows[3][0])
	assert.Equal(t, "Thuốc huyết áp", rows[3][14])
	assert.Equal(t, "22", rows[3][9])
}

func TestXLSXGenerator_Generate_Empty(t *testing.T) {
	data, err := NewXLSXGenerator(zap.NewNop()).Generate(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(HistorySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPDFGenerator_Generate_VietnameseNote(t *testing.T) {
	in := vitals.Defaults()
	in.ExpenseAmount = 250000
	in.ExpenseNote = "Mua thuốc huyết áp, khám bệnh định kỳ"
	records := []model.HealthRecord{vitals.NewRecord(in, "vn", time.Now())}

	pdfBytes, err := NewPDFGenerator(zap.NewNop()).Generate(records, time.Now())
	require.NoError(t, err)

	// the embedded TrueType font is used instead of the cp1252 core fonts
	assert.True(t, bytes.Contains(pdfBytes, []byte("/Encoding /Identity-H")))
	assert.True(t, bytes.Contains(pdfBytes, []byte("/Subtype /CIDFontType2")))
	assert.False(t, bytes.Contains(pdfBytes, []byte("/BaseFont /Helvetica")))
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, "no records", Period(nil))
	assert.Equal(t, "2026-04-01 to 2026-04-03", Period(sampleRecords()))
}
