package store

import (
	"context"
	"testing"
	"time"

	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	return Snapshot{}
}

func TestMemoryContacts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.SubscribeContacts(ctx, "u1")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Empty(t, next(t, sub).Records)

	require.NoError(t, m.AppendContact(ctx, "u1", contract.Contact{Name: "Ann", Email: "ann@x.com", AddedAt: 1}))
	snap := next(t, sub)
	require.Len(t, snap.Records, 1)
	require.Equal(t, "ann@x.com", snap.Records[0]["email"])

	require.NoError(t, m.AppendContact(ctx, "u1", contract.Contact{Name: "Bob", Email: "bob@x.com", AddedAt: 2}))
	snap = next(t, sub)
	require.Len(t, snap.Records, 2)
	require.Equal(t, "Bob", snap.Records[1]["name"])

	// other users' contacts do not wake this subscription
	require.NoError(t, m.AppendContact(ctx, "u2", contract.Contact{Name: "Cy", Email: "cy@x.com"}))
	select {
	case <-sub.C:
		t.Fatal("unexpected snapshot for another user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryMessagesOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := conversation.DeriveKey("u1", "u2")

	require.NoError(t, m.AppendMessage(ctx, key, contract.Message{SenderID: "u1", Message: "late", Timestamp: 30}))
	require.NoError(t, m.AppendMessage(ctx, key, contract.Message{SenderID: "u2", Message: "early", Timestamp: 10}))
	m.Insert(MessagesPath(key), map[string]any{"senderId": "u2", "message": "no time"})

	sub, err := m.SubscribeMessages(ctx, key)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := next(t, sub)
	require.Len(t, snap.Records, 2)
	require.Equal(t, "early", snap.Records[0]["message"])
	require.Equal(t, "late", snap.Records[1]["message"])
}

func TestMemoryMessagesMixedNumberTypes(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	key := conversation.DeriveKey("u1", "u2")

	m.Insert(MessagesPath(key), map[string]any{"senderId": "u1", "message": "from js", "timestamp": float64(20)})
	require.NoError(t, m.AppendMessage(ctx, key, contract.Message{SenderID: "u2", Message: "first", Timestamp: 10}))
	m.Insert(MessagesPath(key), map[string]any{"senderId": "u2", "message": "small int", "timestamp": 15})
	m.Insert(MessagesPath(key), map[string]any{"senderId": "u2", "message": "text", "timestamp": "later"})

	sub, err := m.SubscribeMessages(ctx, key)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	snap := next(t, sub)
	require.Len(t, snap.Records, 4)
	messages := make([]any, 0, len(snap.Records))
	for _, r := range snap.Records {
		messages = append(messages, r["message"])
	}
	require.Equal(t, []any{"first", "small int", "from js", "text"}, messages)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m := NewMemory()
	sub, err := m.SubscribeContacts(context.Background(), "u1")
	require.NoError(t, err)
	next(t, sub)

	sub.Unsubscribe()
	_, ok := <-sub.C
	require.False(t, ok)
	require.NoError(t, sub.Err())

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Empty(t, m.watchers[ContactsPath("u1")])
}

func TestSubscriptionError(t *testing.T) {
	boom := context.DeadlineExceeded
	sub := newSubscription(context.Background(), func(ctx context.Context, out chan<- Snapshot) error {
		return boom
	})
	_, ok := <-sub.C
	require.False(t, ok)
	sub.Unsubscribe()
	require.ErrorIs(t, sub.Err(), boom)
}
