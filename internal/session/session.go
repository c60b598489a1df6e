// Package session holds the per-process identity and auth credential.
// It replaces ambient globals: every component that needs the token is
// handed the same *Session explicitly.
package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session carries the client identity and the bearer token for
// privileged remote calls. Safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	clientID string
	token    string
	onRotate []func()
}

// New returns a session with a fresh random client identity and no
// credential.
func New() *Session {
	return &Session{clientID: uuid.NewString()}
}

// ClientID returns the stable per-process identity.
func (s *Session) ClientID() string { return s.clientID }

// Token returns the current credential, trimmed and with any transport
// prefix stripped, ready for an Authorization header. Empty when the
// user is logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := strings.TrimSpace(s.token)
	t = strings.TrimPrefix(t, "Bearer ")
	return strings.TrimSpace(t)
}

// SetToken stores a new credential and notifies rotation listeners so
// the sync connection can be rebuilt with the fresh token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	listeners := make([]func(), len(s.onRotate))
	copy(listeners, s.onRotate)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Clear drops the credential (logout). Listeners fire as on SetToken.
func (s *Session) Clear() { s.SetToken("") }

// OnRotate registers a callback invoked after every credential change.
func (s *Session) OnRotate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRotate = append(s.onRotate, fn)
}
