// Package pipeline orchestrates the anomaly scoring run:
// join -> feature scaling -> isolation forest -> statistical flags -> merge.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/features"
	"retail-anomaly-lab/internal/isoforest"
	"retail-anomaly-lab/internal/join"
	"retail-anomaly-lab/internal/metrics"
	"retail-anomaly-lab/internal/scoring"
	"retail-anomaly-lab/internal/storage"
)

// Precondition errors. A stage invoked before its predecessor fails
// immediately and is never retried.
var (
	ErrNotLoaded = errors.New("data not loaded: call Load first")
	ErrNotScored = errors.New("model not fitted: call FitModel first")
	ErrNotReady  = errors.New("statistical flags not applied: call AddStatisticalFlags first")
)

// Config holds the pipeline's scoring parameters.
type Config struct {
	Contamination float64
	Trees         int
	SampleSize    int
	Seed          int64
	Verbose       bool
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		Contamination: isoforest.DefaultContamination,
		Trees:         isoforest.DefaultTrees,
		SampleSize:    isoforest.DefaultSampleSize,
		Seed:          isoforest.DefaultSeed,
	}
}

// Detector runs the pipeline stages in order and holds the scored
// table. The table is built once per run and treated as immutable by
// every view; a new run requires a new Detector.
type Detector struct {
	cfg Config

	dataset *domain.Dataset
	records []domain.OrderRecord

	mlFlags  []bool
	mlScores []float64

	loaded  bool
	scored  bool
	flagged bool
}

// NewDetector creates a Detector with the given config.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Load reads the raw dataset from the store and builds the joined order
// table. A missing-input error from the store propagates unchanged.
// The store handle stays owned by the caller and is not closed here.
func (d *Detector) Load(ctx context.Context, store storage.DatasetStore) error {
	ds, err := store.Load(ctx)
	if err != nil {
		return err
	}

	d.dataset = ds
	d.records = join.Build(ds)
	d.loaded = true
	d.log("joined %d delivered orders (of %d raw orders)", len(d.records), len(ds.Orders))
	return nil
}

// FitModel standardizes the feature matrix and fits the isolation
// forest, producing the per-order decision and anomaly score. An empty
// joined table is a defined degenerate case: no flags, no error.
func (d *Detector) FitModel() error {
	if !d.loaded {
		return ErrNotLoaded
	}

	n := len(d.records)
	if n < 2 {
		// Too few rows to isolate anything; the scored table stays empty
		// of model flags rather than failing the run.
		d.mlFlags = make([]bool, n)
		d.mlScores = make([]float64, n)
		d.scored = true
		d.log("skipping model fit: %d rows", n)
		return nil
	}

	matrix := features.Matrix(d.records)
	scaled, err := features.NewScaler().FitTransform(matrix)
	if err != nil {
		return fmt.Errorf("standardize features: %w", err)
	}

	forest, err := isoforest.New(isoforest.Config{
		Contamination: d.cfg.Contamination,
		Trees:         d.cfg.Trees,
		SampleSize:    d.cfg.SampleSize,
		Seed:          d.cfg.Seed,
	})
	if err != nil {
		return err
	}
	if err := forest.Fit(scaled); err != nil {
		return fmt.Errorf("fit isolation forest: %w", err)
	}

	if d.mlFlags, err = forest.Flags(); err != nil {
		return err
	}
	if d.mlScores, err = forest.Scores(); err != nil {
		return err
	}
	d.scored = true

	flagged := 0
	for _, f := range d.mlFlags {
		if f {
			flagged++
		}
	}
	d.log("isolation forest flagged %d of %d orders", flagged, n)
	return nil
}

// AddStatisticalFlags computes the amount z-scores and IQR flags and
// merges them with the model decision into the combined classification.
func (d *Detector) AddStatisticalFlags() error {
	if !d.loaded {
		return ErrNotLoaded
	}
	if !d.scored {
		return ErrNotScored
	}

	records, err := scoring.Apply(d.records, d.mlFlags, d.mlScores)
	if err != nil {
		return err
	}
	d.records = records
	d.flagged = true
	return nil
}

// Run executes all stages linearly. The caller still owns (and closes)
// the dataset store.
func (d *Detector) Run(ctx context.Context, store storage.DatasetStore) error {
	if err := d.Load(ctx, store); err != nil {
		return err
	}
	if err := d.FitModel(); err != nil {
		return err
	}
	return d.AddStatisticalFlags()
}

// Records returns the fully scored order table. Callers must treat it
// as read-only.
func (d *Detector) Records() ([]domain.OrderRecord, error) {
	if !d.flagged {
		return nil, ErrNotReady
	}
	return d.records, nil
}

// Export writes the scored table to a ScoredOrderStore for downstream
// consumers.
func (d *Detector) Export(ctx context.Context, store storage.ScoredOrderStore) error {
	if !d.flagged {
		return ErrNotReady
	}

	out := make([]*domain.OrderRecord, len(d.records))
	for i := range d.records {
		out[i] = &d.records[i]
	}
	return store.InsertBulk(ctx, out)
}

// Summary computes the dataset-level KPIs over the scored table.
func (d *Detector) Summary() (*domain.SummaryStats, error) {
	if !d.flagged {
		return nil, ErrNotReady
	}
	return metrics.Summary(d.records), nil
}

// ByState computes the per-state rollup over the scored table.
func (d *Detector) ByState() ([]domain.StateRollup, error) {
	if !d.flagged {
		return nil, ErrNotReady
	}
	return metrics.ByState(d.records), nil
}

// Monthly computes the per-month rollup over the scored table.
func (d *Detector) Monthly() ([]domain.MonthlyRollup, error) {
	if !d.flagged {
		return nil, ErrNotReady
	}
	return metrics.Monthly(d.records), nil
}

// Categories aggregates the raw line items by product category.
// Available after Load; empty when the source had no products table.
func (d *Detector) Categories() ([]domain.CategorySummary, error) {
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	return metrics.Categories(d.dataset.Items, d.dataset.Products), nil
}

// Sellers aggregates the raw line items by seller. Available after
// Load; seller city/state stay empty without a sellers table.
func (d *Detector) Sellers() ([]domain.SellerPerformance, error) {
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	return metrics.Sellers(d.dataset.Items, d.dataset.Sellers), nil
}

func (d *Detector) log(format string, args ...any) {
	if d.cfg.Verbose {
		log.Printf(format, args...)
	}
}
