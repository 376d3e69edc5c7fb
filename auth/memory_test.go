package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("sign up then sign in", func(t *testing.T) {
		req := require.New(t)
		created, err := m.SignUp(ctx, "Ann@x.com", "secret1")
		req.NoError(err)

		creds, err := m.SignIn(ctx, "ann@x.com", "secret1")
		req.NoError(err)
		req.Equal(created.Identity.ID, creds.Identity.ID)

		_, err = m.SignIn(ctx, "ann@x.com", "secret2")
		req.Error(err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := m.SignUp(ctx, "ann@x.com", "another")
		require.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("profile and lookup", func(t *testing.T) {
		req := require.New(t)
		found, err := m.LookupByEmail(ctx, "ann@x.com")
		req.NoError(err)

		updated, err := m.UpdateProfile(ctx, found.ID, Profile{DisplayName: "Ann", PhoneNumber: "+15551234567"})
		req.NoError(err)
		req.Equal("Ann", updated.DisplayName)

		user, err := m.User(ctx, found.ID)
		req.NoError(err)
		req.Equal("+15551234567", user.PhoneNumber)

		_, err = m.LookupByEmail(ctx, "nobody@x.com")
		req.ErrorIs(err, ErrUserNotFound)
	})

	t.Run("phone number belongs to one account", func(t *testing.T) {
		req := require.New(t)
		creds, err := m.SignUp(ctx, "bob@x.com", "secret1")
		req.NoError(err)

		_, err = m.UpdateProfile(ctx, creds.Identity.ID, Profile{PhoneNumber: "+15551234567"})
		req.ErrorIs(err, ErrPhoneExists)

		updated, err := m.UpdateProfile(ctx, creds.Identity.ID, Profile{DisplayName: "Bob"})
		req.NoError(err)
		req.Equal("Bob", updated.DisplayName)
		req.Empty(updated.PhoneNumber)
	})

	t.Run("sign out invalidates tokens", func(t *testing.T) {
		req := require.New(t)
		creds, err := m.SignIn(ctx, "ann@x.com", "secret1")
		req.NoError(err)

		_, err = m.Verify(ctx, creds.IDToken)
		req.NoError(err)

		req.NoError(m.SignOut(ctx, creds.Identity.ID))
		_, err = m.Verify(ctx, creds.IDToken)
		req.Error(err)
	})
}
