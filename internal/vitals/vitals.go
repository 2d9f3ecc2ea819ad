package vitals

import (
	"fmt"
	"strings"
	"time"

	"github.com/songkhoe/backend/pkg/model"
)

// Dashboard thresholds
const (
	SystolicWarning = 140.0
	BMIOverweight   = 25.0
)

// DeriveBMI computes weight / (height in meters)^2. Height must be positive;
// the caller is responsible for validating input.
func DeriveBMI(weightKg, heightCm float64) float64 {
	meters := heightCm / 100
	return weightKg / (meters * meters)
}

// Defaults returns the values the data-entry form starts from
func Defaults() model.RecordInput {
	return model.RecordInput{
		Systolic:         120,
		Diastolic:        80,
		HeartRate:        70,
		Steps:            5000,
		ActiveMinutes:    30,
		SedentaryMinutes: 480,
		Weight:           60,
		Height:           165,
		SleepDuration:    7,
		SleepQuality:     7,
		WakeUps:          1,
		ExpenseAmount:    0,
		ExpenseNote:      "",
	}
}

// NewRecord builds an immutable record from submitted measurements. BMI is
// derived here once and stored with the record.
func NewRecord(in model.RecordInput, id string, now time.Time) model.HealthRecord {
	return model.HealthRecord{
		ID:               id,
		Timestamp:        now.UnixMilli(),
		Systolic:         in.Systolic,
		Diastolic:        in.Diastolic,
		HeartRate:        in.HeartRate,
		Steps:            in.Steps,
		ActiveMinutes:    in.ActiveMinutes,
		SedentaryMinutes: in.SedentaryMinutes,
		Weight:           in.Weight,
		Height:           in.Height,
		BMI:              DeriveBMI(in.Weight, in.Height),
		SleepDuration:    in.SleepDuration,
		SleepQuality:     in.SleepQuality,
		WakeUps:          in.WakeUps,
		ExpenseAmount:    in.ExpenseAmount,
		ExpenseNote:      strings.TrimSpace(in.ExpenseNote),
	}
}

// FieldError describes one rejected measurement
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every measurement that failed validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid measurements: " + strings.Join(parts, "; ")
}

// Validate checks submitted measurements against the ranges accepted by the
// data-entry form.
func Validate(in model.RecordInput) error {
	var fields []FieldError

	between := func(field string, v, lo, hi float64) {
		if v < lo || v > hi {
			fields = append(fields, FieldError{Field: field, Message: fmt.Sprintf("must be between %g and %g", lo, hi)})
		}
	}
	atLeast := func(field string, v, lo float64) {
		if v < lo {
			fields = append(fields, FieldError{Field: field, Message: fmt.Sprintf("must be at least %g", lo)})
		}
	}

	between("systolic", in.Systolic, 50, 250)
	between("diastolic", in.Diastolic, 30, 150)
	between("heartRate", in.HeartRate, 40, 200)
	atLeast("steps", float64(in.Steps), 0)
	atLeast("activeMinutes", float64(in.ActiveMinutes), 0)
	atLeast("sedentaryMinutes", float64(in.SedentaryMinutes), 0)
	atLeast("weight", in.Weight, 20)
	atLeast("height", in.Height, 50)
	between("sleepDuration", in.SleepDuration, 0, 24)
	between("sleepQuality", float64(in.SleepQuality), 1, 10)
	atLeast("wakeUps", float64(in.WakeUps), 0)
	atLeast("expenseAmount", in.ExpenseAmount, 0)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Status labels shown on the dashboard cards
const (
	StatusNormal     = "normal"
	StatusWarning    = "warning"
	StatusBalanced   = "balanced"
	StatusOverweight = "overweight"
)

// BloodPressureStatus labels the latest reading the way the dashboard card does
func BloodPressureStatus(systolic float64) string {
	if systolic > SystolicWarning {
		return StatusWarning
	}
	return StatusNormal
}

// BMIStatus labels a BMI value the way the dashboard card does
func BMIStatus(bmi float64) string {
	if bmi > BMIOverweight {
		return StatusOverweight
	}
	return StatusBalanced
}
