package domain

import "time"

type AuditAction string

const (
	AuditLogin         AuditAction = "login"
	AuditLogout        AuditAction = "logout"
	AuditRoleResolved  AuditAction = "role_resolved"
	AuditRoleSwitched  AuditAction = "role_switched"
	AuditRoleUpdated   AuditAction = "role_updated"
	AuditStatusChanged AuditAction = "user_status_changed"
	AuditAppDecided    AuditAction = "application_decided"
	AuditAppWithdrawn  AuditAction = "application_withdrawn"
	AuditProgramChange AuditAction = "program_changed"
)

// AuditEntry is an append-only trail record. Entries are never updated or
// deleted by the portal.
type AuditEntry struct {
	ID           string      `json:"id"`
	ActorID      UserID      `json:"actor_id"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type,omitempty"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"`
	IPAddress    string      `json:"ip_address,omitempty"`
	At           time.Time   `json:"at"`
}
