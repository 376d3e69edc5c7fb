package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/record"
)

const (
	firestoreUserCollection    = "users"
	firestoreContactCollection = "contacts"
	firestoreChatCollection    = "chats"
	firestoreMessageCollection = "messages"
)

type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) contacts(userID string) *firestore.CollectionRef {
	return s.client.Collection(firestoreUserCollection).Doc(userID).Collection(firestoreContactCollection)
}

func (s *Firestore) messages(key conversation.Key) *firestore.CollectionRef {
	return s.client.Collection(firestoreChatCollection).Doc(key.String()).Collection(firestoreMessageCollection)
}

func (s *Firestore) AppendContact(ctx context.Context, userID string, contact contract.Contact) error {
	_, _, err := s.contacts(userID).Add(ctx, contact)
	return err
}

func (s *Firestore) SubscribeContacts(ctx context.Context, userID string) (*Subscription, error) {
	q := s.contacts(userID).Query
	return newSubscription(ctx, func(ctx context.Context, out chan<- Snapshot) error {
		return watchQuery(ctx, q, out)
	}), nil
}

func (s *Firestore) AppendMessage(ctx context.Context, key conversation.Key, msg contract.Message) error {
	_, _, err := s.messages(key).Add(ctx, msg)
	return err
}

func (s *Firestore) SubscribeMessages(ctx context.Context, key conversation.Key) (*Subscription, error) {
	q := s.messages(key).OrderBy(record.FieldTimestamp, firestore.Asc)
	return newSubscription(ctx, func(ctx context.Context, out chan<- Snapshot) error {
		return watchQuery(ctx, q, out)
	}), nil
}

func (s *Firestore) Close() error {
	return s.client.Close()
}

func watchQuery(ctx context.Context, q firestore.Query, out chan<- Snapshot) error {
	it := q.Snapshots(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return err
		}
		records := make([]map[string]any, 0, len(docs))
		for _, doc := range docs {
			records = append(records, doc.Data())
		}
		if !send(ctx, out, Snapshot{Records: records}) {
			return nil
		}
	}
}
