package reporting

import (
	"fmt"
	"strings"

	"retail-anomaly-lab/internal/domain"
)

// RenderScoredOrdersCSV renders the scored order table as a CSV string,
// one row per order in input order.
func RenderScoredOrdersCSV(orders []domain.OrderRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("order_id,customer_id,purchase_timestamp,hour_of_day,day_of_week,")
	sb.WriteString("total_items,total_amount,payment_installments,customer_state,")
	sb.WriteString("is_anomaly_ml,anomaly_probability,amount_zscore,is_anomaly_iqr,anomaly_type\n")

	// Rows
	for _, o := range orders {
		state := ""
		if o.CustomerState != nil {
			state = *o.CustomerState
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%d,%.2f,%d,%s,%t,%.6f,%.6f,%t,%s\n",
			o.OrderID,
			o.CustomerID,
			o.PurchasedAt.Format("2006-01-02 15:04:05"),
			o.HourOfDay,
			o.DayOfWeek,
			o.ItemCount,
			o.TotalAmount,
			o.Installments,
			state,
			o.MLAnomaly,
			o.AnomalyScore,
			o.AmountZScore,
			o.IQRAnomaly,
			o.AnomalyType,
		))
	}

	return sb.String()
}

// RenderStateRollupCSV renders the per-state rollup as a CSV string.
func RenderStateRollupCSV(states []domain.StateRollup) string {
	var sb strings.Builder

	sb.WriteString("customer_state,total_orders,anomaly_count,total_revenue,anomaly_rate\n")
	for _, s := range states {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.2f,%.4f\n",
			s.State, s.TotalOrders, s.AnomalyCount, s.TotalRevenue, s.AnomalyRate))
	}

	return sb.String()
}

// RenderMonthlyRollupCSV renders the per-month rollup as a CSV string.
func RenderMonthlyRollupCSV(months []domain.MonthlyRollup) string {
	var sb strings.Builder

	sb.WriteString("month,total_orders,anomaly_count,total_revenue,anomaly_rate\n")
	for _, m := range months {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.2f,%.4f\n",
			m.Month, m.TotalOrders, m.AnomalyCount, m.TotalRevenue, m.AnomalyRate))
	}

	return sb.String()
}
