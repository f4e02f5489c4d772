package chat

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chatdesk-dev/chat-desk/internal/domain"
	"github.com/chatdesk-dev/chat-desk/internal/events"
)

// Feed is the realtime connection as seen by the store.
type Feed interface {
	Connect(ctx context.Context, identity domain.Identity) error
	Close() error
}

// Live binds a store to a realtime feed for one authenticated session.
type Live struct {
	store  *Store
	feed   Feed
	detach func()
	once   sync.Once
}

// StartLive subscribes store to d, connects feed for identity and loads the
// initial requests and notifications concurrently.
func StartLive(ctx context.Context, store *Store, feed Feed, d events.Dispatcher, identity domain.Identity) (*Live, error) {
	store.SetIdentity(identity)
	live := &Live{store: store, feed: feed, detach: store.Attach(d)}

	if feed != nil {
		if err := feed.Connect(ctx, identity); err != nil {
			live.detach()
			return nil, err
		}
	}

	var g errgroup.Group
	g.Go(func() error { return store.FetchRequests(ctx) })
	g.Go(func() error { return store.FetchNotifications(ctx) })
	// Initial load failures are recorded in the store's fetch state.
	_ = g.Wait()
	return live, nil
}

// Stop removes the store's event handlers and closes the feed.
func (l *Live) Stop() {
	l.once.Do(func() {
		l.detach()
		if l.feed != nil {
			_ = l.feed.Close()
		}
	})
}
