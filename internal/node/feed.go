package node

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const feedReconnectDelay = 10 * time.Second

// FeedEvent is one update notification from the node: a squeak changed and
// any view holding it should re-fetch.
type FeedEvent struct {
	Type       string `json:"type"`
	SqueakHash string `json:"squeakHash"`
}

// Feed subscribes to the node's websocket event stream and hands each
// squeak update to the callback. Reconnects with a fixed delay until the
// context is done; the node decides what counts as an update, the feed only
// relays hashes.
type Feed struct {
	url      string
	dialer   *websocket.Dialer
	onUpdate func(ctx context.Context, hash string)
}

// NewFeed builds a feed against the node's subscribe endpoint.
func NewFeed(url string, onUpdate func(ctx context.Context, hash string)) *Feed {
	return &Feed{
		url:      url,
		dialer:   websocket.DefaultDialer,
		onUpdate: onUpdate,
	}
}

// Run connects and relays events until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	for {
		if err := f.listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[feed] connection lost: %v, reconnecting in %s", err, feedReconnectDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(feedReconnectDelay):
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	log.Printf("[feed] subscribed to node events at %s", f.url)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event FeedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[feed] skipping malformed event: %v", err)
			continue
		}
		if event.SqueakHash == "" {
			continue
		}
		f.onUpdate(ctx, event.SqueakHash)
	}
}
