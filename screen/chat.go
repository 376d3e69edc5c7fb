package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/chat"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/record"
	"github.com/klipach/justchat/render"
	"github.com/klipach/justchat/session"
	"github.com/klipach/justchat/store"
)

var ErrUnknownContact = errors.New("contact has no account")

// Chat is the conversation with one contact. Both participants are
// identified by their user id; the contact's email is resolved on open.
type Chat struct {
	session *session.Session
	store   store.MessageStore
	contact contract.Contact
	key     conversation.Key
	loc     *time.Location
	live    live[contract.Message]
}

func OpenChat(
	ctx context.Context,
	sess *session.Session,
	provider auth.Provider,
	messages store.MessageStore,
	with contract.Contact,
	loc *time.Location,
) (*Chat, error) {
	userID := sess.UserID()
	if userID == "" {
		return nil, session.ErrNotSignedIn
	}
	peer, err := provider.LookupByEmail(ctx, strings.TrimSpace(with.Email))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownContact, with.Email)
		}
		return nil, err
	}
	if strings.TrimSpace(with.Name) == "" {
		with.Name = record.UnknownName
	}
	return &Chat{
		session: sess,
		store:   messages,
		contact: with,
		key:     conversation.DeriveKey(userID, peer.ID),
		loc:     loc,
	}, nil
}

func (c *Chat) Key() conversation.Key {
	return c.key
}

func (c *Chat) Title() string {
	return c.contact.Name
}

// Header is what the top bar of the chat shows.
func (c *Chat) Header() contract.ChatHeader {
	return contract.ChatHeader{Title: c.contact.Name, Email: c.contact.Email}
}

func (c *Chat) Mount(ctx context.Context) error {
	sub, err := c.store.SubscribeMessages(ctx, c.key)
	if err != nil {
		return err
	}
	return c.live.start(ctx, sub, chat.Shape)
}

func (c *Chat) Unmount() {
	c.live.stop()
}

func (c *Chat) Messages() []contract.Message {
	return c.live.snapshot()
}

func (c *Chat) Updates() <-chan []contract.Message {
	return c.live.stream()
}

func (c *Chat) Err() error {
	return c.live.failure()
}

// Bubbles lays messages out for display, aligned by sender.
func (c *Chat) Bubbles(messages []contract.Message) []contract.Bubble {
	userID := c.session.UserID()
	bubbles := make([]contract.Bubble, 0, len(messages))
	for _, m := range messages {
		bubbles = append(bubbles, render.Bubble(m, chat.IsMine(m, userID), c.loc))
	}
	return bubbles
}

// Send ignores blank text. Failures are reported once and not retried.
func (c *Chat) Send(ctx context.Context, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{}
	}
	userID := c.session.UserID()
	if userID == "" {
		return failure(session.ErrNotSignedIn, "Failed to send: "+session.ErrNotSignedIn.Error())
	}
	if err := chat.Send(ctx, c.store, c.key, userID, text); err != nil {
		log.LoggerFromContext(ctx).Error("message append failed",
			slog.String(log.ConversationKeyLogField, c.key.String()),
			slog.String(log.ErrorMsgLogField, err.Error()),
		)
		return failure(err, "Failed to send: "+err.Error())
	}
	return Outcome{}
}
