package reporting

import (
	"sort"
	"time"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/metrics"
)

// TopAnomalyCount is the number of highest-scoring orders listed in the
// report.
const TopAnomalyCount = 10

// Generator assembles a Report from a scored order table.
type Generator struct {
	contamination float64
	trees         int
	seed          int64
	clock         func() time.Time
}

// NewGenerator creates a Generator carrying the run configuration for
// the report header.
func NewGenerator(contamination float64, trees int, seed int64) *Generator {
	return &Generator{
		contamination: contamination,
		trees:         trees,
		seed:          seed,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// Generate builds the report from the scored table.
func (g *Generator) Generate(orders []domain.OrderRecord) *Report {
	return &Report{
		GeneratedAt:   g.clock(),
		Contamination: g.contamination,
		Trees:         g.trees,
		Seed:          g.seed,
		Summary:       *metrics.Summary(orders),
		States:        metrics.ByState(orders),
		Monthly:       metrics.Monthly(orders),
		TopAnomalies:  topAnomalies(orders, TopAnomalyCount),
	}
}

// topAnomalies returns the n highest-scoring orders, descending by
// score, ties broken by order id for deterministic output.
func topAnomalies(orders []domain.OrderRecord, n int) []domain.OrderRecord {
	sorted := make([]domain.OrderRecord, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AnomalyScore != sorted[j].AnomalyScore {
			return sorted[i].AnomalyScore > sorted[j].AnomalyScore
		}
		return sorted[i].OrderID < sorted[j].OrderID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
