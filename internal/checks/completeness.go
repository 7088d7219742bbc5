package checks

import (
	"fmt"
	"sort"

	"datapact/internal/threshold"
)

// CompletenessChecker verifies the percentage of non-null values in
// required fields against an SLA percentage threshold such as "99.5%".
type CompletenessChecker struct{}

// Check reads overall_completeness (0-100) from /metrics completeness data.
// On failure every field in field_completeness strictly below the threshold
// is listed under fields_below_threshold. The boundary is inclusive:
// actual == threshold passes.
func (CompletenessChecker) Check(thresholdStr string, data map[string]any) Result {
	raw, ok := data["overall_completeness"]
	if !ok || raw == nil {
		return Result{
			Status:  StatusWarning,
			Message: "No completeness data available",
		}
	}
	overall, ok := asFloat(raw)
	if !ok {
		return Result{
			Status:  StatusWarning,
			Message: "No completeness data available",
		}
	}

	limit, err := threshold.ParsePercentage(thresholdStr)
	if err != nil {
		return Result{
			Status:      StatusError,
			Message:     fmt.Sprintf("Invalid threshold format: %v", err),
			ActualValue: overall,
		}
	}

	extra := map[string]any{"threshold_percentage": limit}
	if totalRows, ok := data["total_rows"]; ok {
		extra["total_rows"] = totalRows
	}

	fieldCompleteness, _ := data["field_completeness"].(map[string]any)
	if fieldCompleteness != nil {
		extra["field_completeness"] = fieldCompleteness
	}

	message := fmt.Sprintf("Completeness is %.1f%% (threshold: %g%%)", overall, limit)

	if overall >= limit {
		return Result{
			Status:      StatusPass,
			Message:     message,
			ActualValue: overall,
			Extra:       extra,
		}
	}

	fields := make([]string, 0, len(fieldCompleteness))
	for name := range fieldCompleteness {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var below []map[string]any
	for _, name := range fields {
		if fv, ok := asFloat(fieldCompleteness[name]); ok && fv < limit {
			below = append(below, map[string]any{
				"field":        name,
				"completeness": fv,
			})
		}
	}
	extra["fields_below_threshold"] = below

	return Result{
		Status:      StatusFail,
		Message:     message,
		ActualValue: overall,
		Extra:       extra,
	}
}
