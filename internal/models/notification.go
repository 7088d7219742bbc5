package models

import "time"

// Notification delivery statuses.
const (
	NotificationPending = "pending"
	NotificationSending = "sending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// Notification is one persisted, eventually-delivered message. Created by
// the router; mutated only by the dispatcher (status transitions) and by
// mark-read calls (ReadAt). Never deleted.
type Notification struct {
	ID              string     `json:"id"`
	EventType       string     `json:"event_type"`
	EventID         string     `json:"event_id,omitempty"`
	ContractID      string     `json:"contract_id,omitempty"`
	ContractName    string     `json:"contract_name,omitempty"`
	RecipientEmail  string     `json:"recipient_email"`
	RecipientTeam   string     `json:"recipient_team,omitempty"`
	RecipientSource string     `json:"recipient_source,omitempty"`
	Subject         string     `json:"subject"`
	BodyHTML        string     `json:"body_html,omitempty"`
	BodyText        string     `json:"body_text,omitempty"`
	Status          string     `json:"status"`
	Channel         string     `json:"channel"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NotificationPreference holds per-email opt-in flags. An absent row means
// everything enabled.
type NotificationPreference struct {
	Email                     string    `json:"email"`
	Team                      string    `json:"team,omitempty"`
	EmailEnabled              bool      `json:"email_enabled"`
	SlackEnabled              bool      `json:"slack_enabled"`
	SchemaDriftEnabled        bool      `json:"schema_drift_enabled"`
	QualityBreachEnabled      bool      `json:"quality_breach_enabled"`
	PRBlockedEnabled          bool      `json:"pr_blocked_enabled"`
	ContractUpdatedEnabled    bool      `json:"contract_updated_enabled"`
	DeprecationWarningEnabled bool      `json:"deprecation_warning_enabled"`
	DigestEnabled             bool      `json:"digest_enabled"`
	DigestFrequency           string    `json:"digest_frequency,omitempty"`  // daily, weekly
	PreferredChannel          string    `json:"preferred_channel,omitempty"` // email (default), telegram
	MaxNotificationsPerHour   int       `json:"max_notifications_per_hour,omitempty"`
	CreatedAt                 time.Time `json:"created_at,omitempty"`
	UpdatedAt                 time.Time `json:"updated_at,omitempty"`
}

// DefaultPreference returns the implicit preference used when no row exists.
func DefaultPreference(email string) NotificationPreference {
	return NotificationPreference{
		Email:                     email,
		EmailEnabled:              true,
		SchemaDriftEnabled:        true,
		QualityBreachEnabled:      true,
		PRBlockedEnabled:          true,
		ContractUpdatedEnabled:    true,
		DeprecationWarningEnabled: true,
		DigestFrequency:           "daily",
	}
}

// AllowsEvent reports whether this preference admits the given event type.
// Event types without a dedicated flag (availability_failure, digest) are
// always admitted once EmailEnabled holds.
func (p NotificationPreference) AllowsEvent(et EventType) bool {
	if !p.EmailEnabled {
		return false
	}
	switch et {
	case EventSchemaDrift:
		return p.SchemaDriftEnabled
	case EventQualityBreach:
		return p.QualityBreachEnabled
	case EventPRBlocked:
		return p.PRBlockedEnabled
	case EventContractUpdated:
		return p.ContractUpdatedEnabled
	case EventDeprecationWarning:
		return p.DeprecationWarningEnabled
	default:
		return true
	}
}
