package service

import (
	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/model"
	"go.uber.org/zap"
)

// ChartWindow is how many recent records the dashboard charts show
const ChartWindow = 10

// DashboardService builds the dashboard view of the health log
type DashboardService struct {
	store  RecordStoreInterface
	logger *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(store RecordStoreInterface, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		logger: logger,
	}
}

// SeriesPoint is one chart sample
type SeriesPoint struct {
	Label     string  `json:"label"`
	Timestamp int64   `json:"timestamp"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
	HeartRate float64 `json:"heartRate"`
	Steps     int     `json:"steps"`
	Weight    float64 `json:"weight"`
	Expense   float64 `json:"expense"`
}

// ActivityRatio splits the latest day into active and sedentary minutes
type ActivityRatio struct {
	ActiveMinutes    int     `json:"activeMinutes"`
	SedentaryMinutes int     `json:"sedentaryMinutes"`
	ActiveShare      float64 `json:"activeShare"`
}

// DashboardSummary represents the dashboard cards and charts
type DashboardSummary struct {
	Empty               bool                `json:"empty"`
	RecordCount         int                 `json:"recordCount"`
	Latest              *model.HealthRecord `json:"latest,omitempty"`
	BloodPressureStatus string              `json:"bloodPressureStatus,omitempty"`
	BMIStatus           string              `json:"bmiStatus,omitempty"`
	Series              []SeriesPoint       `json:"series"`
	Activity            *ActivityRatio      `json:"activity,omitempty"`
	TotalExpense        float64             `json:"totalExpense"`
}

// Summary builds the dashboard from the latest record and the last ChartWindow records
func (s *DashboardService) Summary() *DashboardSummary {
	count := s.store.Len()
	recent := s.store.Recent(ChartWindow)

	summary := &DashboardSummary{
		Empty:       len(recent) == 0,
		RecordCount: count,
		Series:      make([]SeriesPoint, 0, len(recent)),
	}
	if summary.Empty {
		return summary
	}

	// latest by insertion order, the same record the entry form last produced
	latest := recent[len(recent)-1]
	summary.Latest = &latest
	summary.BloodPressureStatus = vitals.BloodPressureStatus(latest.Systolic)
	summary.BMIStatus = vitals.BMIStatus(latest.BMI)

	for _, r := range recent {
		summary.Series = append(summary.Series, SeriesPoint{
			Label:     r.Time().Format("02/01"),
			Timestamp: r.Timestamp,
			Systolic:  r.Systolic,
			Diastolic: r.Diastolic,
			HeartRate: r.HeartRate,
			Steps:     r.Steps,
			Weight:    r.Weight,
			Expense:   r.ExpenseAmount,
		})
		summary.TotalExpense += r.ExpenseAmount
	}

	activity := &ActivityRatio{
		ActiveMinutes:    latest.ActiveMinutes,
		SedentaryMinutes: latest.SedentaryMinutes,
	}
	if total := latest.ActiveMinutes + latest.SedentaryMinutes; total > 0 {
		activity.ActiveShare = float64(latest.ActiveMinutes) / float64(total)
	}
	summary.Activity = activity

	s.logger.Debug("dashboard summary built",
		zap.Int("record_count", count),
		zap.Int("series_length", len(summary.Series)),
	)
	return summary
}
