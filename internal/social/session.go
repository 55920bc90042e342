package social

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/agora-social/agora-sync/internal/adapter"
)

// Session carries the caller's signing identity explicitly. Sessions are
// immutable: attaching a different signer yields a new session, and a write
// already in flight keeps the signer it captured at call time.
type Session struct {
	signer adapter.Signer
}

// NewSession creates a session around a signer. A nil signer yields a
// read-only session.
func NewSession(signer adapter.Signer) *Session {
	return &Session{signer: signer}
}

// ReadOnlySession creates a session with no signing identity
func ReadOnlySession() *Session {
	return &Session{}
}

// WithSigner returns a new session bound to the given signer
func (s *Session) WithSigner(signer adapter.Signer) *Session {
	return &Session{signer: signer}
}

// Signer returns the attached signer, nil for read-only sessions
func (s *Session) Signer() adapter.Signer {
	if s == nil {
		return nil
	}
	return s.signer
}

// SignedIn reports whether the session can submit writes
func (s *Session) SignedIn() bool {
	return s != nil && s.signer != nil
}

// Address returns the session's signing address, when one is attached
func (s *Session) Address() (common.Address, bool) {
	if !s.SignedIn() {
		return common.Address{}, false
	}
	return s.signer.Address(), true
}
