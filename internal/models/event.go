package models

import "time"

// EventType identifies what kind of compliance event occurred.
type EventType string

const (
	EventSchemaDrift         EventType = "schema_drift"
	EventQualityBreach       EventType = "quality_breach"
	EventPRBlocked           EventType = "pr_blocked"
	EventContractUpdated     EventType = "contract_updated"
	EventDeprecationWarning  EventType = "deprecation_warning"
	EventAvailabilityFailure EventType = "availability_failure"
)

// Event is the envelope shared by alert producers and the notification
// router. It is transient: constructed once, routed once, never persisted
// as-is. Payload fields beyond the common header are populated per type.
type Event struct {
	EventType EventType `json:"event_type"`
	EventID   string    `json:"event_id,omitempty"` // dedup key; derived when empty
	Timestamp time.Time `json:"timestamp"`

	// Contract identity
	ContractID      string `json:"contract_id,omitempty"`
	ContractName    string `json:"contract_name"`
	ContractVersion string `json:"contract_version,omitempty"`

	// Publisher information
	PublisherTeam  string `json:"publisher_team,omitempty"`
	PublisherOwner string `json:"publisher_owner,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`

	// schema_drift
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	EndpointURL string   `json:"endpoint_url,omitempty"`

	// quality_breach
	MetricType   string           `json:"metric_type,omitempty"`
	Threshold    string           `json:"threshold,omitempty"`
	ActualValue  string           `json:"actual_value,omitempty"`
	FailedChecks []map[string]any `json:"failed_checks,omitempty"`

	// pr_blocked
	Repository string `json:"repository,omitempty"`
	PRNumber   int    `json:"pr_number,omitempty"`
	PRTitle    string `json:"pr_title,omitempty"`
	PRURL      string `json:"pr_url,omitempty"`
	PRAuthor   string `json:"pr_author,omitempty"`
	Reason     string `json:"reason,omitempty"`

	// contract_updated
	PreviousVersion string   `json:"previous_version,omitempty"`
	NewVersion      string   `json:"new_version,omitempty"`
	ChangeType      string   `json:"change_type,omitempty"`
	ChangeSummary   string   `json:"change_summary,omitempty"`
	AddedFields     []string `json:"added_fields,omitempty"`
	RemovedFields   []string `json:"removed_fields,omitempty"`
	ChangedBy       string   `json:"changed_by,omitempty"`

	// deprecation_warning
	DeprecationDate     *time.Time `json:"deprecation_date,omitempty"`
	RemovalDate         *time.Time `json:"removal_date,omitempty"`
	ReplacementContract string     `json:"replacement_contract,omitempty"`

	// availability_failure
	ErrorMessage        string `json:"error_message,omitempty"`
	StatusCode          int    `json:"status_code,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}
