// Package checks turns raw probe responses into pass/fail/warning verdicts
// against declarative contract thresholds. Checkers are pure: no I/O.
package checks

// Verdict statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Result is a single checker verdict. Extra carries checker-specific
// values (threshold_seconds, fields_below_threshold, ...).
type Result struct {
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	ActualValue any            `json:"actual_value"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Checker evaluates probe data against a threshold string.
type Checker interface {
	Check(threshold string, data map[string]any) Result
}

// ForMetric returns the checker for a quality metric type, or nil when the
// metric type has no checker.
func ForMetric(metricType string) Checker {
	switch metricType {
	case "freshness":
		return FreshnessChecker{}
	case "completeness":
		return CompletenessChecker{}
	default:
		return nil
	}
}

// asFloat extracts a numeric value from decoded JSON, which may arrive as
// float64 or an integer type depending on the producer.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
