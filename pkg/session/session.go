// Package session keeps tutoring workspaces alive between requests.
//
// A [Session] binds an opaque id to one [workspace.Workspace] and an expiry.
// Stores implement [Store]; [MemoryStore] is the only backend because
// workspace state lives in process memory by design.
//
// # Usage
//
//	store := session.NewMemoryStore()
//
//	ws, err := workspace.New(workspace.Problem{Text: "Solve 2x = 8"})
//	if err != nil {
//	    return err
//	}
//	sess := session.New(ws, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, id)
//	if err != nil || sess == nil {
//	    // Session not found or expired
//	}
//
// Expiry slides: every successful Get extends the session by its TTL.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/socraticboard/pkg/workspace"
)

// Sentinel errors for session operations.
var (
	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// Default durations.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 2 * time.Hour

	// DefaultCleanupInterval is how often servers sweep expired sessions.
	DefaultCleanupInterval = 5 * time.Minute
)

// Session binds an id to a workspace.
type Session struct {
	ID        string               `json:"id"`
	Workspace *workspace.Workspace `json:"-"`
	TTL       time.Duration        `json:"ttl"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// New creates a session for ws with a random UUID id.
func New(ws *workspace.Workspace, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Workspace: ws,
		TTL:       ttl,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session expired before now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Touch extends the session to now plus its TTL.
func (s *Session) Touch(now time.Time) {
	s.ExpiresAt = now.Add(s.TTL)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist.
	// Returns nil, ErrExpired if the session exists but has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
