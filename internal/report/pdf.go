package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/songkhoe/backend/internal/store"
	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// FontFamily is the UTF-8 font family registered on every report
const FontFamily = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

// PDFGenerator renders the health history as a printable report
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// Generate creates a PDF report of records, newest first
func (g *PDFGenerator) Generate(records []model.HealthRecord, generatedAt time.Time) ([]byte, error) {
	sorted := store.NewestFirst(records)

	g.logger.Info("generating PDF report",
		zap.Int("record_count", len(sorted)),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	// Vietnamese notes need glyphs beyond the cp1252 core fonts
	pdf.AddUTF8FontFromBytes(FontFamily, "", regularFont)
	pdf.AddUTF8FontFromBytes(FontFamily, "B", boldFont)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load report font: %w", err)
	}

	pdf.AddPage()

	g.addTitle(pdf, sorted, generatedAt)
	g.addOverview(pdf, sorted)
	g.addBloodPressureTrends(pdf, sorted)
	g.addRecords(pdf, sorted)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, records []model.HealthRecord, generatedAt time.Time) {
	pdf.SetFont(FontFamily, "B", 20)
	pdf.CellFormat(0, 10, "Health History Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont(FontFamily, "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", Period(records)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(FontFamily, "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont(FontFamily, "", 10)
}

func (g *PDFGenerator) addOverview(pdf *gofpdf.Fpdf, records []model.HealthRecord) {
	g.addSectionHeader(pdf, "Overview")

	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No records during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	var steps int
	var heartRate, expense float64
	for _, r := range records {
		steps += r.Steps
		heartRate += r.HeartRate
		expense += r.ExpenseAmount
	}
	count := float64(len(records))
	latest := records[0]

	pdf.CellFormat(0, 6, fmt.Sprintf("Records: %d", len(records)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average heart rate: %.0f bpm", heartRate/count), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average steps: %.0f", float64(steps)/count), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Latest weight: %.1f kg, BMI %.1f (%s)",
		latest.Weight, latest.BMI, vitals.BMIStatus(latest.BMI)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total expenses: %.0f", expense), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func (g *PDFGenerator) addBloodPressureTrends(pdf *gofpdf.Fpdf, records []model.HealthRecord) {
	g.addSectionHeader(pdf, "Blood Pressure Trends")

	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No blood pressure readings recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	var totalSystolic, totalDiastolic float64
	warnings := 0
	for _, r := range records {
		totalSystolic += r.Systolic
		totalDiastolic += r.Diastolic
		if vitals.BloodPressureStatus(r.Systolic) == vitals.StatusWarning {
			warnings++
		}
	}
	count := float64(len(records))

	pdf.CellFormat(0, 6, fmt.Sprintf("Average: %.0f/%.0f mmHg", totalSystolic/count, totalDiastolic/count), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Readings above %.0f mmHg systolic: %d", vitals.SystolicWarning, warnings), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func (g *PDFGenerator) addRecords(pdf *gofpdf.Fpdf, records []model.HealthRecord) {
	g.addSectionHeader(pdf, "Records")

	if len(records) == 0 {
		pdf.CellFormat(0, 8, "No records.", "", 1, "L", false, 0, "")
		return
	}

	for _, r := range records {
		pdf.SetFont(FontFamily, "B", 10)
		pdf.CellFormat(0, 6, r.Time().Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
		pdf.SetFont(FontFamily, "", 10)

		pdf.CellFormat(0, 5, fmt.Sprintf("  Blood pressure: %.0f/%.0f mmHg, Heart rate: %.0f bpm",
			r.Systolic, r.Diastolic, r.HeartRate), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Steps: %d, Active: %d min, Sedentary: %d min",
			r.Steps, r.ActiveMinutes, r.SedentaryMinutes), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Weight: %.1f kg, Height: %.0f cm, BMI: %.1f",
			r.Weight, r.Height, r.BMI), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Sleep: %.1f h, Quality: %d/10, Wake-ups: %d",
			r.SleepDuration, r.SleepQuality, r.WakeUps), "", 1, "L", false, 0, "")
		if r.ExpenseAmount > 0 || r.ExpenseNote != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Expense: %.0f %s", r.ExpenseAmount, r.ExpenseNote), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
}

// Period describes the date range covered by records
func Period(records []model.HealthRecord) string {
	if len(records) == 0 {
		return "no records"
	}

	first, last := records[0].Time(), records[0].Time()
	for _, r := range records[1:] {
		t := r.Time()
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}
	return fmt.Sprintf("%s to %s", first.Format("2006-01-02"), last.Format("2006-01-02"))
}
