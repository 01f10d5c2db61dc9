package domain

// Feature column indices for the model input matrix. The order is part
// of the scoring contract and is not user-configurable.
const (
	FeatureTotalAmount = iota
	FeatureItemCount
	FeatureInstallments
	FeatureHourOfDay
	FeatureDayOfWeek

	FeatureCount
)

// FeatureNames lists the model features in matrix column order.
var FeatureNames = [FeatureCount]string{
	"total_amount",
	"total_items",
	"payment_installments",
	"hour_of_day",
	"day_of_week",
}

// FeatureVector extracts the fixed feature vector from an order record.
func (o *OrderRecord) FeatureVector() [FeatureCount]float64 {
	return [FeatureCount]float64{
		FeatureTotalAmount:  o.TotalAmount,
		FeatureItemCount:    float64(o.ItemCount),
		FeatureInstallments: float64(o.Installments),
		FeatureHourOfDay:    float64(o.HourOfDay),
		FeatureDayOfWeek:    float64(o.DayOfWeek),
	}
}
