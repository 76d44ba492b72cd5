package audit

import (
	"encoding/json"
	"time"
)

// Severity classifies the security weight of an audit entry.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Action identifies the kind of event being recorded.
type Action string

const (
	// Access decisions
	ActionAccessGranted Action = "access.granted"
	ActionAccessDenied  Action = "access.denied"

	// Delegation lifecycle
	ActionDelegationCreate Action = "delegation.create"
	ActionDelegationRevoke Action = "delegation.revoke"

	// Principal administration
	ActionRoleChange Action = "principal.role_change"
	ActionFreeze     Action = "principal.freeze"
	ActionUnfreeze   Action = "principal.unfreeze"

	// Organization membership
	ActionMemberAdd        Action = "org.member_add"
	ActionMemberRoleChange Action = "org.member_role_change"
	ActionMemberRemove     Action = "org.member_remove"
	ActionInviteCreate     Action = "org.invite_create"
	ActionInviteAccept     Action = "org.invite_accept"
	ActionInviteRevoke     Action = "org.invite_revoke"
)

// ResourceType names the kind of resource an entry refers to.
type ResourceType string

const (
	ResourcePrincipal    ResourceType = "principal"
	ResourceOrganization ResourceType = "organization"
	ResourceMembership   ResourceType = "membership"
	ResourceDelegation   ResourceType = "delegation"
	ResourceCapability   ResourceType = "capability"
)

// Entry is a single append-only audit record.
type Entry struct {
	ID      int64  `json:"id"`
	EntryID string `json:"entry_id"`

	Timestamp time.Time `json:"timestamp"`

	// Actor is nil for system-initiated actions.
	ActorID        *int64 `json:"actor_id,omitempty"`
	OrganizationID *int64 `json:"organization_id,omitempty"`

	Action       Action       `json:"action"`
	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`

	// Client metadata
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ToJSON serializes the entry.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SearchFilter narrows an audit log query.
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time

	ActorID        *int64
	OrganizationID *int64

	Actions  []Action
	Severity *Severity

	ResourceType ResourceType
	ResourceID   string
	IPAddress    string

	Limit  int
	Offset int
}

// Stats aggregates audit log counts for the reporting API.
type Stats struct {
	TotalEntries      int64              `json:"total_entries"`
	EntriesByAction   map[Action]int64   `json:"entries_by_action"`
	EntriesBySeverity map[Severity]int64 `json:"entries_by_severity"`
	UniqueActors      int64              `json:"unique_actors"`
	AccessDenials     int64              `json:"access_denials"`
}

// RetentionPolicy controls how long audit entries are kept.
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep entries; zero disables
	// the sweep entirely.
	RetentionDays int

	// Schedule is a cron expression for the sweep.
	Schedule string
}

// DefaultRetentionPolicy keeps two years of entries, swept nightly.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		RetentionDays: 730,
		Schedule:      "0 3 * * *",
	}
}
