package store

import (
	"sort"

	"github.com/songkhoe/backend/pkg/model"
)

// NewestFirst returns a copy of records sorted by timestamp, newest first.
// Records sharing a timestamp keep their insertion order.
func NewestFirst(records []model.HealthRecord) []model.HealthRecord {
	sorted := cloneRecords(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp > sorted[j].Timestamp
	})
	return sorted
}
