package models

import "time"

// Watcher is a subscription to compliance events for contracts the watcher
// does not own or formally subscribe to. A watcher with all four target
// fields empty watches everything.
type Watcher struct {
	ID string `json:"id"`

	// What to watch (any may be empty)
	ContractID    string `json:"contract_id,omitempty"`
	ContractName  string `json:"contract_name,omitempty"`
	PublisherTeam string `json:"publisher_team,omitempty"`
	Tag           string `json:"tag,omitempty"`

	// Who is watching
	WatcherEmail string `json:"watcher_email"`
	WatcherTeam  string `json:"watcher_team,omitempty"`

	// What events to watch
	WatchSchemaDrift     bool `json:"watch_schema_drift"`
	WatchQualityBreach   bool `json:"watch_quality_breach"`
	WatchContractUpdated bool `json:"watch_contract_updated"`
	WatchDeprecation     bool `json:"watch_deprecation"`
	WatchPRBlocked       bool `json:"watch_pr_blocked"`

	IsActive        bool   `json:"is_active"`
	NotifyOnWarning bool   `json:"notify_on_warning"`
	Reason          string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WatchesEverything reports whether this watcher has no target filter.
func (w Watcher) WatchesEverything() bool {
	return w.ContractID == "" && w.ContractName == "" && w.PublisherTeam == "" && w.Tag == ""
}

// WatchesEvent reports whether this watcher opted into the event type.
// availability_failure has no dedicated flag and never matches.
func (w Watcher) WatchesEvent(et EventType) bool {
	switch et {
	case EventSchemaDrift:
		return w.WatchSchemaDrift
	case EventQualityBreach:
		return w.WatchQualityBreach
	case EventContractUpdated:
		return w.WatchContractUpdated
	case EventDeprecationWarning:
		return w.WatchDeprecation
	case EventPRBlocked:
		return w.WatchPRBlocked
	default:
		return false
	}
}
