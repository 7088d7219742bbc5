package models

import "time"

// Check types recorded against a contract.
const (
	CheckTypeSchema       = "schema"
	CheckTypeFreshness    = "freshness"
	CheckTypeCompleteness = "completeness"
	CheckTypeQuality      = "quality"
	CheckTypeAvailability = "availability"
)

// Check result statuses.
const (
	CheckStatusPass    = "pass"
	CheckStatusFail    = "fail"
	CheckStatusWarning = "warning"
	CheckStatusError   = "error"
	CheckStatusSkipped = "skipped"
)

// ComplianceResult is one append-only audit record of a compliance check.
type ComplianceResult struct {
	ContractID   string         `json:"contract_id"`
	CheckType    string         `json:"check_type"`
	Status       string         `json:"status"`
	Details      map[string]any `json:"details,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CheckedAt    time.Time      `json:"checked_at,omitempty"`
}
