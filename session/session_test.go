package session

import (
	"testing"

	"github.com/klipach/justchat/auth"
	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	req := require.New(t)
	s := New()
	req.Equal(SignedOut, s.State())
	_, ok := s.CurrentUser()
	req.False(ok)

	req.ErrorIs(s.Complete(&auth.Credentials{}), ErrNotAuthenticating)

	req.NoError(s.Begin())
	req.Equal(Authenticating, s.State())
	req.ErrorIs(s.Begin(), ErrAuthInProgress)

	s.Fail()
	req.Equal(SignedOut, s.State())

	req.NoError(s.Begin())
	req.NoError(s.Complete(&auth.Credentials{
		Identity:     auth.Identity{ID: "u1", Email: "ann@x.com"},
		IDToken:      "token",
		RefreshToken: "refresh",
	}))
	req.Equal(SignedIn, s.State())
	req.Equal("u1", s.UserID())
	req.Equal("token", s.IDToken())
	req.Equal("refresh", s.RefreshToken())
	req.ErrorIs(s.Begin(), ErrAlreadySignedIn)

	s.End()
	req.Equal(SignedOut, s.State())
	req.Empty(s.UserID())
	req.Empty(s.IDToken())
}

func TestRestore(t *testing.T) {
	s := Restore(auth.Identity{ID: "u2"}, "token")
	user, ok := s.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "u2", user.ID)
	require.Equal(t, SignedIn.String(), s.State().String())
}
