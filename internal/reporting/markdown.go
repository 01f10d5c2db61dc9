package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Order Anomaly Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Contamination: %.3f | Trees: %d | Seed: %d\n\n",
		r.Contamination, r.Trees, r.Seed))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Orders | %d |\n", r.Summary.TotalOrders))
	sb.WriteString(fmt.Sprintf("| Total Revenue | %.2f |\n", r.Summary.TotalRevenue))
	sb.WriteString(fmt.Sprintf("| ML Anomalies | %d |\n", r.Summary.MLAnomalyCount))
	sb.WriteString(fmt.Sprintf("| ML Anomaly Rate | %.2f%% |\n", r.Summary.MLAnomalyRate))
	sb.WriteString(fmt.Sprintf("| IQR Anomalies | %d |\n", r.Summary.IQRAnomalyCount))
	sb.WriteString(fmt.Sprintf("| Anomaly Revenue | %.2f |\n", r.Summary.AnomalyRevenue))
	sb.WriteString(fmt.Sprintf("| Avg Normal Order | %.2f |\n", r.Summary.AvgNormalOrder))
	sb.WriteString(fmt.Sprintf("| Avg Anomaly Order | %.2f |\n", r.Summary.AvgAnomalyOrder))
	sb.WriteString("\n")

	// Regional rollup
	sb.WriteString("## Anomalies by State\n\n")
	if len(r.States) == 0 {
		sb.WriteString("No orders.\n\n")
	} else {
		sb.WriteString("| State | Orders | Anomalies | Revenue | Rate |\n")
		sb.WriteString("|-------|--------|-----------|---------|------|\n")
		for _, s := range r.States {
			state := s.State
			if state == "" {
				state = "(unknown)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f%% |\n",
				state, s.TotalOrders, s.AnomalyCount, s.TotalRevenue, s.AnomalyRate))
		}
		sb.WriteString("\n")
	}

	// Monthly trend
	sb.WriteString("## Monthly Trend\n\n")
	if len(r.Monthly) == 0 {
		sb.WriteString("No orders.\n\n")
	} else {
		sb.WriteString("| Month | Orders | Anomalies | Revenue | Rate |\n")
		sb.WriteString("|-------|--------|-----------|---------|------|\n")
		for _, m := range r.Monthly {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f%% |\n",
				m.Month, m.TotalOrders, m.AnomalyCount, m.TotalRevenue, m.AnomalyRate))
		}
		sb.WriteString("\n")
	}

	// Top anomalies
	sb.WriteString("## Top Anomalies\n\n")
	if len(r.TopAnomalies) == 0 {
		sb.WriteString("No orders.\n")
	} else {
		sb.WriteString("| Order | Amount | Items | Score | Z-Score | Type |\n")
		sb.WriteString("|-------|--------|-------|-------|---------|------|\n")
		for _, o := range r.TopAnomalies {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %d | %.4f | %.2f | %s |\n",
				o.OrderID, o.TotalAmount, o.ItemCount, o.AnomalyScore, o.AmountZScore, o.AnomalyType))
		}
	}

	return sb.String()
}
