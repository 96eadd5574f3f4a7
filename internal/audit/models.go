// Package audit keeps the append-only trail of privileged financial views.
// Recording is advisory: it runs after the primary action succeeds and its
// failure never changes the primary outcome.
package audit

import "time"

// Action tags identify what was viewed. Keep them stable; reports group on
// them.
const (
	ActionExpensesView     = "expenses:view"
	ActionWaiversView      = "waivers:view"
	ActionCollectionsView  = "collections:view"
	ActionFinanceAnalytics = "finance:analytics"
)

// Entry is one audited access. Filters capture exactly the query parameters
// that scoped the view so review can reconstruct what the auditor saw.
type Entry struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	UserRole  string            `json:"user_role"`
	UserName  string            `json:"user_name"`
	Action    string            `json:"action"`
	Filters   map[string]string `json:"filters,omitempty"`
	Client    string            `json:"client,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
