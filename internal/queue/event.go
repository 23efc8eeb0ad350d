// Package queue defines message payloads exchanged over the message broker.
package queue

// Security event kinds published to the auth.security queue.
const (
	EventForceLogout = "force_logout"
	EventDeactivated = "account_deactivated"
	EventReactivated = "account_reactivated"
)

// SecurityEvent is published whenever an administrator terminates or
// deactivates another user's sessions.  It carries enough information for
// downstream consumers to build an audit trail without querying the
// primary database.
type SecurityEvent struct {
	Kind       string `json:"kind"`
	UserID     string `json:"user_id"`
	ActorID    string `json:"actor_id"`
	OccurredAt string `json:"occurred_at"`
}
