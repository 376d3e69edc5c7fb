package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/lib/pq"
)

const (
	dbDriver = "postgres"

	contactsChannel = "justchat_contacts"
	messagesChannel = "justchat_messages"

	listenerMinReconnect = 10 * time.Second
	listenerMaxReconnect = time.Minute
)

var schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id UUID PRIMARY KEY,
	seq BIGSERIAL,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	added_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS contacts_user_seq_idx ON contacts (user_id, seq);

CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	conversation_key TEXT NOT NULL,
	sender_id TEXT NOT NULL,
	message TEXT NOT NULL,
	sent_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_key_sent_idx ON messages (conversation_key, sent_at);`

// column aliases keep the stored field names, so rows go through the same
// record parsing as Firestore documents
const (
	selectContacts = `SELECT name, email, added_at AS "addedAt" FROM contacts WHERE user_id = $1 ORDER BY seq`
	selectMessages = `SELECT sender_id AS "senderId", message, sent_at AS "timestamp" FROM messages WHERE conversation_key = $1 ORDER BY sent_at, id`
	insertContact  = `INSERT INTO contacts (id, user_id, name, email, added_at) VALUES ($1, $2, $3, $4, $5)`
	insertMessage  = `INSERT INTO messages (id, conversation_key, sender_id, message, sent_at) VALUES ($1, $2, $3, $4, $5)`
	notify         = `SELECT pg_notify($1, $2)`
)

// Postgres is a self-hosted store. Subscriptions use LISTEN/NOTIFY, one
// listener connection per subscription.
type Postgres struct {
	db  *sqlx.DB
	dsn string
}

func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, dbDriver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db, dsn: dsn}, nil
}

func (s *Postgres) AppendContact(ctx context.Context, userID string, contact contract.Contact) error {
	return s.insert(ctx, contactsChannel, userID, insertContact,
		uuid.New(), userID, contact.Name, contact.Email, contact.AddedAt)
}

func (s *Postgres) AppendMessage(ctx context.Context, key conversation.Key, msg contract.Message) error {
	return s.insert(ctx, messagesChannel, key.String(), insertMessage,
		uuid.New(), key.String(), msg.SenderID, msg.Message, msg.Timestamp)
}

// insert writes the row and notifies listeners in one transaction, so the
// notification is only delivered once the row is visible.
func (s *Postgres) insert(ctx context.Context, channel, payload, query string, args ...any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, notify, channel, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Postgres) SubscribeContacts(ctx context.Context, userID string) (*Subscription, error) {
	return s.subscribe(ctx, contactsChannel, userID, selectContacts)
}

func (s *Postgres) SubscribeMessages(ctx context.Context, key conversation.Key) (*Subscription, error) {
	return s.subscribe(ctx, messagesChannel, key.String(), selectMessages)
}

func (s *Postgres) subscribe(ctx context.Context, channel, payload, query string) (*Subscription, error) {
	ready := newListenerReady()
	listener := pq.NewListener(s.dsn, listenerMinReconnect, listenerMaxReconnect, ready.event)
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, err
	}
	if err := ready.wait(ctx); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return newSubscription(ctx, func(ctx context.Context, out chan<- Snapshot) error {
		defer listener.Close()
		for {
			records, err := s.query(ctx, query, payload)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if !send(ctx, out, Snapshot{Records: records}) {
				return nil
			}
			if !waitFor(ctx, listener, payload) {
				return nil
			}
		}
	}), nil
}

// listenerReady reports the first connection outcome of a pq.Listener. The
// listener issues its LISTEN commands before it emits the connected event.
type listenerReady struct {
	once sync.Once
	done chan error
}

func newListenerReady() *listenerReady {
	return &listenerReady{done: make(chan error, 1)}
}

func (r *listenerReady) event(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		r.once.Do(func() { r.done <- nil })
	case pq.ListenerEventConnectionAttemptFailed:
		r.once.Do(func() { r.done <- err })
	}
}

func (r *listenerReady) wait(ctx context.Context) error {
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitFor blocks until a notification for payload arrives. A nil notification
// means the listener reconnected and may have missed events, so it also counts.
func waitFor(ctx context.Context, listener *pq.Listener, payload string) bool {
	for {
		select {
		case n := <-listener.Notify:
			if n == nil || n.Extra == payload {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

func (s *Postgres) query(ctx context.Context, query, arg string) ([]map[string]any, error) {
	rows, err := s.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		records = append(records, row)
	}
	return records, rows.Err()
}

func (s *Postgres) Close() error {
	return s.db.Close()
}
