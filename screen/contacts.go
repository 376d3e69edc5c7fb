package screen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/contact"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/session"
	"github.com/klipach/justchat/store"
)

const fallbackUserName = "User"

// ContactList backs the chats, add-contact and profile tabs.
type ContactList struct {
	session  *session.Session
	provider auth.Provider
	store    store.ContactStore
	live     live[contract.Contact]
}

func NewContactList(sess *session.Session, provider auth.Provider, contacts store.ContactStore) *ContactList {
	return &ContactList{session: sess, provider: provider, store: contacts}
}

// Mount subscribes to the signed-in user's contacts.
func (c *ContactList) Mount(ctx context.Context) error {
	userID := c.session.UserID()
	if userID == "" {
		return session.ErrNotSignedIn
	}
	sub, err := c.store.SubscribeContacts(ctx, userID)
	if err != nil {
		return err
	}
	return c.live.start(ctx, sub, contact.Shape)
}

func (c *ContactList) Unmount() {
	c.live.stop()
}

func (c *ContactList) Contacts() []contract.Contact {
	return c.live.snapshot()
}

// Updates is closed on unmount or when the subscription fails.
func (c *ContactList) Updates() <-chan []contract.Contact {
	return c.live.stream()
}

// Err reports why the subscription stopped, if it failed.
func (c *ContactList) Err() error {
	return c.live.failure()
}

func (c *ContactList) Add(ctx context.Context, name, email string) Outcome {
	userID := c.session.UserID()
	if userID == "" {
		return failure(session.ErrNotSignedIn, "Failed: "+session.ErrNotSignedIn.Error())
	}
	err := contact.Add(ctx, c.store, userID, name, email)
	switch {
	case errors.Is(err, form.ErrFieldsRequired):
		return failure(err, "All fields are required")
	case err != nil:
		log.LoggerFromContext(ctx).Error("contact append failed",
			slog.String(log.UserIDLogField, userID),
			slog.String(log.ErrorMsgLogField, err.Error()),
		)
		return failure(err, "Failed: "+err.Error())
	}
	return success("Contact added!", "")
}

// Profile prefers the provider's current record, falling back to the session.
func (c *ContactList) Profile(ctx context.Context) (contract.ProfileResponse, error) {
	user, ok := c.session.CurrentUser()
	if !ok {
		return contract.ProfileResponse{}, session.ErrNotSignedIn
	}
	if fresh, err := c.provider.User(ctx, user.ID); err == nil {
		user = *fresh
	} else {
		log.LoggerFromContext(ctx).Warn("profile lookup failed", slog.String(log.ErrorMsgLogField, err.Error()))
	}
	return contract.ProfileResponse{Name: DisplayName(user), Email: user.Email}, nil
}

func (c *ContactList) SignOut(ctx context.Context) Outcome {
	userID := c.session.UserID()
	c.Unmount()
	if userID != "" {
		if err := c.provider.SignOut(ctx, userID); err != nil {
			log.LoggerFromContext(ctx).Warn("token revocation failed",
				slog.String(log.UserIDLogField, userID),
				slog.String(log.ErrorMsgLogField, err.Error()),
			)
		}
	}
	c.session.End()
	return success("Logged out", RouteLogin)
}

// DisplayName falls back from display name to email to "User".
func DisplayName(user auth.Identity) string {
	switch {
	case user.DisplayName != "":
		return user.DisplayName
	case user.Email != "":
		return user.Email
	}
	return fallbackUserName
}
