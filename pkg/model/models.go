package model

import (
	"encoding/json"
	"strings"
	"time"
)

// HealthRecord is one daily measurement snapshot. Records are immutable once
// created; a mistake is corrected by deleting the record and adding a new one.
type HealthRecord struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch

	// Cardio
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
	HeartRate float64 `json:"heartRate"`

	// Activity
	Steps            int `json:"steps"`
	ActiveMinutes    int `json:"activeMinutes"`
	SedentaryMinutes int `json:"sedentaryMinutes"`

	// Body
	Weight float64 `json:"weight"` // kg
	Height float64 `json:"height"` // cm
	BMI    float64 `json:"bmi"`    // derived at creation, never recomputed

	// Sleep
	SleepDuration float64 `json:"sleepDuration"` // hours
	SleepQuality  int     `json:"sleepQuality"`  // 1-10
	WakeUps       int     `json:"wakeUps"`

	// Expense
	ExpenseAmount float64 `json:"expenseAmount"`
	ExpenseNote   string  `json:"expenseNote"`
}

// Time returns the record timestamp as a time.Time
func (r HealthRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// RecordInput holds the primary measurements submitted through the data-entry form
type RecordInput struct {
	Systolic         float64 `json:"systolic"`
	Diastolic        float64 `json:"diastolic"`
	HeartRate        float64 `json:"heartRate"`
	Steps            int     `json:"steps"`
	ActiveMinutes    int     `json:"activeMinutes"`
	SedentaryMinutes int     `json:"sedentaryMinutes"`
	Weight           float64 `json:"weight"`
	Height           float64 `json:"height"`
	SleepDuration    float64 `json:"sleepDuration"`
	SleepQuality     int     `json:"sleepQuality"`
	WakeUps          int     `json:"wakeUps"`
	ExpenseAmount    float64 `json:"expenseAmount"`
	ExpenseNote      string  `json:"expenseNote"`
}

// Category classifies an advisory entry
type Category string

const (
	CategoryCardio   Category = "cardio"
	CategoryActivity Category = "activity"
	CategoryBody     Category = "body"
	CategorySleep    Category = "sleep"
	CategoryGeneral  Category = "general"
	CategoryUnknown  Category = "unknown"
)

// ParseCategory maps a raw category to the closed enumeration. Anything outside
// the enumeration becomes CategoryUnknown.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryCardio, CategoryActivity, CategoryBody, CategorySleep, CategoryGeneral:
		return c
	default:
		return CategoryUnknown
	}
}

// Severity drives visual styling of an advisory entry only
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityUnknown Severity = "unknown"
)

// ParseSeverity maps a raw severity to the closed enumeration. Anything outside
// the enumeration becomes SeverityUnknown.
func ParseSeverity(s string) Severity {
	switch v := Severity(strings.ToLower(strings.TrimSpace(s))); v {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return v
	default:
		return SeverityUnknown
	}
}

// AdvisoryEntry is one piece of AI-generated guidance. Entries are derived from
// the most recent records on every request and never persisted.
type AdvisoryEntry struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Severity Severity `json:"severity"`
}

// UnmarshalJSON decodes an entry coming from the model and normalizes the enums
func (e *AdvisoryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category string `json:"category"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		Severity string `json:"severity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Category = ParseCategory(raw.Category)
	e.Title = raw.Title
	e.Content = raw.Content
	e.Severity = ParseSeverity(raw.Severity)
	return nil
}
