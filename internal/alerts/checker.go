package alerts

import (
	"fmt"
	"strconv"

	"github.com/dennisdiepolder/dropboard/internal/types"
)

// Rule names
const (
	RuleNegativeSingle = "negative_single_drops"
	RuleBelowTarget    = "below_target"
)

// CheckEmployeeAlerts evaluates alert rules for each aggregate. threshold is
// the minimum average drops per record; zero disables that rule.
func CheckEmployeeAlerts(aggs []types.EmployeeAggregate, threshold float64) []types.Alert {
	alerts := make([]types.Alert, 0)
	for _, a := range aggs {
		if single := a.Breakdown(types.CategorySingle); single < 0 {
			alerts = append(alerts, types.Alert{
				Rule:        RuleNegativeSingle,
				Severity:    types.SeverityCritical,
				EmployeeKey: a.Key,
				Employee:    a.Name,
				Message:     fmt.Sprintf("Single drops at %s, drop categories exceed total", formatCount(single)),
			})
		}

		if threshold <= 0 || len(a.Records) == 0 {
			continue
		}
		avg := a.TotalDrops / float64(len(a.Records))
		if avg < threshold {
			alerts = append(alerts, types.Alert{
				Rule:        RuleBelowTarget,
				Severity:    types.SeverityWarning,
				EmployeeKey: a.Key,
				Employee:    a.Name,
				Message:     fmt.Sprintf("Averaging %s drops per entry, target %s", formatCount(avg), formatCount(threshold)),
			})
		}
	}
	return alerts
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
