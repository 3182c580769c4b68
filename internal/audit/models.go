package audit

import "time"

// Action names an auditable occurrence.
type Action string

const (
	ActionRegistrationCreated   Action = "registration_created"
	ActionRegistrationsListed   Action = "registrations_listed"
	ActionRegistrationsExported Action = "registrations_exported"

	ActionLoginSucceeded Action = "admin_login_succeeded"
	ActionLoginFailed    Action = "admin_login_failed"
	ActionLoginLocked    Action = "admin_login_locked"
	ActionLogout         Action = "admin_logout"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out. Enrichment fields (request ID,
// client metadata) are filled by the Publisher from the context.
type Event struct {
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`

	// Actor is the admin username, or the attempted username for failed logins.
	Actor string `json:"actor,omitempty"`

	ClientIP string `json:"client_ip,omitempty"`
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`

	RegistrationID int64  `json:"registration_id,omitempty"`
	Count          int    `json:"count,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
