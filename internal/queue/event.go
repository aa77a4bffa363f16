// Package queue defines the security events exchanged over the message
// broker and the consumer that appends them to the audit log.
package queue

import "time"

// AuthEventsQueue is the durable queue security events are published to.
const AuthEventsQueue = "auth.events"

// Event types.
const (
	EventLoggedOut          = "user.logged_out"
	EventCredentialsChanged = "user.credentials_changed"
	EventSessionsRevoked    = "user.sessions_revoked"
)

// AuthEvent is published whenever a revocation entry is written. Username
// is the account whose tokens were cut off; Actor is who caused it.
type AuthEvent struct {
	Type         string    `json:"type"`
	Username     string    `json:"username"`
	Actor        string    `json:"actor"`
	Fields       []string  `json:"fields,omitempty"` // changed fields for credentials_changed
	NewUsername  string    `json:"new_username,omitempty"`
	RevokedAfter time.Time `json:"revoked_after"`
	At           time.Time `json:"at"`
}
