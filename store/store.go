// Package store is the boundary to the document database. Reads are live
// subscriptions delivering raw documents; writes append immutable documents.
package store

import (
	"context"
	"sync"

	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/record"
)

// Snapshot is the full, current content of a subscribed collection.
type Snapshot struct {
	Records []map[string]any
}

type ContactStore interface {
	SubscribeContacts(ctx context.Context, userID string) (*Subscription, error)
	AppendContact(ctx context.Context, userID string, contact contract.Contact) error
}

// MessageStore delivers messages ordered by timestamp ascending.
type MessageStore interface {
	SubscribeMessages(ctx context.Context, key conversation.Key) (*Subscription, error)
	AppendMessage(ctx context.Context, key conversation.Key, msg contract.Message) error
}

type Store interface {
	ContactStore
	MessageStore
	Close() error
}

// Subscription streams snapshots until Unsubscribe is called or the watch
// fails. C is closed in both cases; Err tells them apart.
type Subscription struct {
	C <-chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

type watchFunc func(ctx context.Context, out chan<- Snapshot) error

func newSubscription(ctx context.Context, watch watchFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot)
	s := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer close(out)
		if err := watch(ctx, out); err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

// Unsubscribe stops the watch and waits for it to exit.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func send(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func contactFields(c contract.Contact) map[string]any {
	return map[string]any{
		record.FieldName:    c.Name,
		record.FieldEmail:   c.Email,
		record.FieldAddedAt: c.AddedAt,
	}
}

func messageFields(m contract.Message) map[string]any {
	return map[string]any{
		record.FieldSenderID:  m.SenderID,
		record.FieldMessage:   m.Message,
		record.FieldTimestamp: m.Timestamp,
	}
}
