package domain

import (
	"time"
)

// Session is the client-held conversation identity.
// ID is never empty once created and only changes when the server
// supplies a different canonical id.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the session carries a usable identifier.
func (s *Session) Valid() bool {
	return s != nil && s.ID != ""
}
