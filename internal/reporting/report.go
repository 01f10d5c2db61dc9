package reporting

import (
	"time"

	"retail-anomaly-lab/internal/domain"
)

// Report is the rendered result of one scoring run.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	Contamination float64
	Trees         int
	Seed          int64

	// Scored table KPIs
	Summary domain.SummaryStats

	// Rollups
	States  []domain.StateRollup
	Monthly []domain.MonthlyRollup

	// Highest-scoring orders, descending by anomaly score
	TopAnomalies []domain.OrderRecord
}
