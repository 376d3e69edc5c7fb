// Package session holds the signed-in identity of one running client. A
// Session is created once and handed to every screen controller.
package session

import (
	"errors"
	"sync"

	"github.com/klipach/justchat/auth"
)

type State int

const (
	SignedOut State = iota
	Authenticating
	SignedIn
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed_out"
	case Authenticating:
		return "authenticating"
	case SignedIn:
		return "signed_in"
	}
	return "unknown"
}

var (
	ErrNotSignedIn       = errors.New("not signed in")
	ErrAuthInProgress    = errors.New("authentication already in progress")
	ErrAlreadySignedIn   = errors.New("already signed in")
	ErrNotAuthenticating = errors.New("no authentication in progress")
)

type Session struct {
	mu           sync.RWMutex
	state        State
	user         auth.Identity
	idToken      string
	refreshToken string
}

func New() *Session {
	return &Session{}
}

// Restore builds a signed-in session from an already verified ID token.
func Restore(identity auth.Identity, idToken string) *Session {
	return &Session{state: SignedIn, user: identity, idToken: idToken}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// CurrentUser returns the signed-in identity, or false when there is none.
func (s *Session) CurrentUser() (auth.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != SignedIn {
		return auth.Identity{}, false
	}
	return s.user, true
}

func (s *Session) UserID() string {
	user, _ := s.CurrentUser()
	return user.ID
}

func (s *Session) IDToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Begin moves SignedOut to Authenticating.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Authenticating:
		return ErrAuthInProgress
	case SignedIn:
		return ErrAlreadySignedIn
	}
	s.state = Authenticating
	return nil
}

// Complete moves Authenticating to SignedIn.
func (s *Session) Complete(creds *auth.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticating {
		return ErrNotAuthenticating
	}
	s.state = SignedIn
	s.user = creds.Identity
	s.idToken = creds.IDToken
	s.refreshToken = creds.RefreshToken
	return nil
}

// Fail moves Authenticating back to SignedOut.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Authenticating {
		s.state = SignedOut
	}
}

// End signs the session out from any state.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SignedOut
	s.user = auth.Identity{}
	s.idToken = ""
	s.refreshToken = ""
}
