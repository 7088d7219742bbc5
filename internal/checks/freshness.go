package checks

import (
	"fmt"

	"datapact/internal/threshold"
)

// FreshnessChecker verifies time since last data update against an SLA
// duration threshold such as "15 minutes".
type FreshnessChecker struct{}

// Check reads seconds_since_update from /metrics freshness data. A missing
// value is a warning, a malformed threshold an error. The boundary is
// inclusive: actual == threshold passes.
func (FreshnessChecker) Check(thresholdStr string, data map[string]any) Result {
	raw, ok := data["seconds_since_update"]
	if !ok || raw == nil {
		return Result{
			Status:  StatusWarning,
			Message: "No freshness data available",
		}
	}
	seconds, ok := asFloat(raw)
	if !ok {
		return Result{
			Status:  StatusWarning,
			Message: "No freshness data available",
		}
	}

	limit, err := threshold.ParseDuration(thresholdStr)
	if err != nil {
		return Result{
			Status:      StatusError,
			Message:     fmt.Sprintf("Invalid threshold format: %v", err),
			ActualValue: seconds,
		}
	}

	extra := map[string]any{"threshold_seconds": limit}
	if lastUpdate, ok := data["last_update"]; ok {
		extra["last_update"] = lastUpdate
	}

	if seconds <= float64(limit) {
		return Result{
			Status:      StatusPass,
			Message:     fmt.Sprintf("Data is fresh (updated %.0fs ago, threshold: %ds)", seconds, limit),
			ActualValue: seconds,
			Extra:       extra,
		}
	}
	return Result{
		Status:      StatusFail,
		Message:     fmt.Sprintf("Data is stale (updated %.0fs ago, threshold: %ds)", seconds, limit),
		ActualValue: seconds,
		Extra:       extra,
	}
}
