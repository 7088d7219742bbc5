package models

import "time"

// Contract statuses.
const (
	ContractStatusActive     = "active"
	ContractStatusDeprecated = "deprecated"
	ContractStatusDraft      = "draft"
)

// ContractField describes one field of a published dataset schema.
type ContractField struct {
	Name                string         `json:"name"`
	DataType            string         `json:"data_type"`
	Nullable            bool           `json:"nullable"`
	IsPII               bool           `json:"is_pii,omitempty"`
	IsPrimaryKey        bool           `json:"is_primary_key,omitempty"`
	IsForeignKey        bool           `json:"is_foreign_key,omitempty"`
	ForeignKeyReference string         `json:"foreign_key_reference,omitempty"` // "dataset.field"
	Description         string         `json:"description,omitempty"`
	Constraints         map[string]any `json:"constraints,omitempty"`
}

// QualityMetric is one SLA declaration on a contract.
type QualityMetric struct {
	MetricType    string `json:"metric_type"` // freshness, completeness, accuracy, availability, uniqueness
	Threshold     string `json:"threshold"`   // e.g. "15 minutes", "99.5%"
	AlertOnBreach bool   `json:"alert_on_breach"`
	Description   string `json:"description,omitempty"`
}

// AccessConfig describes how to reach the dataset's live service.
type AccessConfig struct {
	EndpointURL string   `json:"endpoint_url"`
	Methods     []string `json:"methods,omitempty"`
	AuthType    string   `json:"auth_type,omitempty"`
	RateLimit   int      `json:"rate_limit,omitempty"`
}

// Subscriber is a consuming team registered on a contract.
type Subscriber struct {
	Team         string   `json:"team"`
	ContactEmail string   `json:"contact_email"`
	FieldsUsed   []string `json:"fields_used,omitempty"`
}

// Contract is a versioned data contract as served by the Contract Service.
type Contract struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	Status         string          `json:"status"`
	PublisherTeam  string          `json:"publisher_team"`
	PublisherOwner string          `json:"publisher_owner,omitempty"`
	ContactEmail   string          `json:"contact_email,omitempty"`
	Fields         []ContractField `json:"fields"`
	QualityMetrics []QualityMetric `json:"quality_metrics,omitempty"`
	AccessConfig   *AccessConfig   `json:"access_config,omitempty"`
	Subscribers    []Subscriber    `json:"subscribers,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at,omitempty"`
}

// Endpoint returns the probe base URL, or "" when the contract has no
// reachable access configuration.
func (c *Contract) Endpoint() string {
	if c.AccessConfig == nil {
		return ""
	}
	return c.AccessConfig.EndpointURL
}
