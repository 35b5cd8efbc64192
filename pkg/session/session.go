package session

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Message roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one conversational turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is an attached-document summary with its own expiry,
// independent of the session's inactivity TTL.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is one unit of conversational memory. All sessions are owned
// exclusively by the Manager; callers receive copies, never the live
// struct. The embedded mutex serializes mutations per session so two
// requests never interleave on the same conversation.
type Session struct {
	mu           sync.Mutex
	ID           string
	Messages     []Message
	Documents    []Document
	CreatedAt    time.Time
	LastActivity time.Time
}

// Context is the snapshot handed to the prompt-assembly layer: the most
// recent messages plus any unexpired document summaries.
type Context struct {
	SessionID string     `json:"session_id"`
	Messages  []Message  `json:"messages"`
	Documents []Document `json:"documents"`
}

// DocumentCapacityError is returned when a session already holds the
// maximum number of attached documents. The existing documents are left
// untouched.
type DocumentCapacityError struct {
	Limit int
}

func (e *DocumentCapacityError) Error() string {
	return fmt.Sprintf("session already holds %d documents", e.Limit)
}

// SessionCapacityError is returned when the session cap is reached and no
// existing session is idle enough to evict.
type SessionCapacityError struct {
	Limit int
}

func (e *SessionCapacityError) Error() string {
	return fmt.Sprintf("session capacity of %d reached", e.Limit)
}

// ErrSessionNotFound is returned by operations on unknown or expired
// session identifiers.
var ErrSessionNotFound = errors.New("session not found")
