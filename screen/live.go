package screen

import (
	"context"
	"errors"
	"sync"

	"github.com/klipach/justchat/store"
)

var ErrMounted = errors.New("screen already mounted")

// live keeps the shaped content of one subscription. Updates carries only the
// latest list; a slow reader skips intermediate ones.
type live[T any] struct {
	mu      sync.RWMutex
	items   []T
	err     error
	sub     *store.Subscription
	updates chan []T
	done    chan struct{}
}

func (l *live[T]) start(ctx context.Context, sub *store.Subscription, shape func(context.Context, []map[string]any) []T) error {
	l.mu.Lock()
	if l.sub != nil {
		l.mu.Unlock()
		sub.Unsubscribe()
		return ErrMounted
	}
	l.sub = sub
	l.err = nil
	l.updates = make(chan []T, 1)
	l.done = make(chan struct{})
	updates, done := l.updates, l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer close(updates)
		for snap := range sub.C {
			items := shape(ctx, snap.Records)
			l.mu.Lock()
			l.items = items
			l.mu.Unlock()
			select {
			case <-updates:
			default:
			}
			updates <- items
		}
		if err := sub.Err(); err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
		}
	}()
	return nil
}

func (l *live[T]) stop() {
	l.mu.Lock()
	sub, done := l.sub, l.done
	l.sub = nil
	l.mu.Unlock()
	if sub == nil {
		return
	}
	sub.Unsubscribe()
	<-done
}

func (l *live[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.items
}

func (l *live[T]) stream() <-chan []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updates
}

func (l *live[T]) failure() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}
