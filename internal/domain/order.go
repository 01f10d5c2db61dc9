package domain

import "time"

// OrderRecord represents one delivered order with joined metrics and
// the scoring fields added by the pipeline. One record per order_id.
type OrderRecord struct {
	OrderID    string // PRIMARY KEY, opaque
	CustomerID string

	// Temporal
	PurchasedAt time.Time
	HourOfDay   int // 0-23
	DayOfWeek   int // 0-6, Sunday = 0

	// Commerce
	ItemCount    int     // line item rows for this order
	TotalAmount  float64 // sum of item price + freight
	Installments int     // max across payment rows, 1 if none

	// Geography
	CustomerState *string // nil when the customer lookup did not resolve

	// Scoring fields, set only by the pipeline (never by upstream data)
	MLAnomaly    bool    // isolation forest decision
	AnomalyScore float64 // higher = more anomalous
	AmountZScore float64
	IQRAnomaly   bool
	AnomalyType  AnomalyType
}

// AnomalyType is the combined classification of the ML and IQR flags.
type AnomalyType string

const (
	AnomalyNormal         AnomalyType = "Normal"
	AnomalyML             AnomalyType = "ML Detected"
	AnomalyStatistical    AnomalyType = "Statistical Outlier"
	AnomalyHighConfidence AnomalyType = "High Confidence Anomaly"
)

// String returns the string representation of AnomalyType.
func (t AnomalyType) String() string {
	return string(t)
}

// IsValid checks if the anomaly type is a valid value.
func (t AnomalyType) IsValid() bool {
	switch t {
	case AnomalyNormal, AnomalyML, AnomalyStatistical, AnomalyHighConfidence:
		return true
	}
	return false
}

// ClassifyAnomaly maps the two boolean flags to the combined type.
// Precedence: both flags beat either single flag, the IQR flag beats
// the ML flag when only one of them is set.
func ClassifyAnomaly(ml, iqr bool) AnomalyType {
	switch {
	case ml && iqr:
		return AnomalyHighConfidence
	case iqr:
		return AnomalyStatistical
	case ml:
		return AnomalyML
	default:
		return AnomalyNormal
	}
}
