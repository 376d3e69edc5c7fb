package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/record"
)

type document struct {
	id   string
	data map[string]any
}

// Memory keeps collections in process. Paths mirror the Firestore layout.
type Memory struct {
	mu          sync.Mutex
	collections map[string][]document
	watchers    map[string]map[chan struct{}]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string][]document),
		watchers:    make(map[string]map[chan struct{}]struct{}),
	}
}

func ContactsPath(userID string) string {
	return firestoreUserCollection + "/" + userID + "/" + firestoreContactCollection
}

func MessagesPath(key conversation.Key) string {
	return firestoreChatCollection + "/" + key.String() + "/" + firestoreMessageCollection
}

// Insert adds a raw document, bypassing the typed append operations.
func (m *Memory) Insert(path string, data map[string]any) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.collections[path] = append(m.collections[path], document{id: id, data: maps.Clone(data)})
	for w := range m.watchers[path] {
		select {
		case w <- struct{}{}:
		default:
		}
	}
	return id
}

func (m *Memory) AppendContact(_ context.Context, userID string, contact contract.Contact) error {
	m.Insert(ContactsPath(userID), contactFields(contact))
	return nil
}

func (m *Memory) AppendMessage(_ context.Context, key conversation.Key, msg contract.Message) error {
	m.Insert(MessagesPath(key), messageFields(msg))
	return nil
}

func (m *Memory) SubscribeContacts(ctx context.Context, userID string) (*Subscription, error) {
	return m.watch(ctx, ContactsPath(userID), nil), nil
}

func (m *Memory) SubscribeMessages(ctx context.Context, key conversation.Key) (*Subscription, error) {
	return m.watch(ctx, MessagesPath(key), orderByTimestamp), nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) watch(ctx context.Context, path string, order func([]map[string]any) []map[string]any) *Subscription {
	notify := make(chan struct{}, 1)
	m.mu.Lock()
	if m.watchers[path] == nil {
		m.watchers[path] = make(map[chan struct{}]struct{})
	}
	m.watchers[path][notify] = struct{}{}
	m.mu.Unlock()

	return newSubscription(ctx, func(ctx context.Context, out chan<- Snapshot) error {
		defer func() {
			m.mu.Lock()
			delete(m.watchers[path], notify)
			m.mu.Unlock()
		}()
		for {
			records := m.read(path)
			if order != nil {
				records = order(records)
			}
			if !send(ctx, out, Snapshot{Records: records}) {
				return nil
			}
			select {
			case <-notify:
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func (m *Memory) read(path string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.collections[path]
	records := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		records = append(records, maps.Clone(doc.data))
	}
	return records
}

// orderByTimestamp matches Firestore's orderBy: documents without a timestamp
// are left out, numbers of any width sort by value, and values of other types
// sort after all numbers.
func orderByTimestamp(records []map[string]any) []map[string]any {
	ordered := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if _, ok := r[record.FieldTimestamp]; ok {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, vi := timestampOrder(ordered[i][record.FieldTimestamp])
		rj, vj := timestampOrder(ordered[j][record.FieldTimestamp])
		if ri != rj {
			return ri < rj
		}
		return vi < vj
	})
	return ordered
}

func timestampOrder(v any) (rank int, value float64) {
	switch n := v.(type) {
	case int64:
		return 0, float64(n)
	case int:
		return 0, float64(n)
	case int32:
		return 0, float64(n)
	case float64:
		return 0, n
	case time.Time:
		return 1, float64(n.UnixMilli())
	}
	return 2, 0
}
