package chat

import (
	"log"
	"sync"

	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
)

// Feed delivers an order's full transcript, sorted, each time it changes.
// A delivery never has fewer messages than an earlier one. If the reader
// falls behind, only the newest transcript is kept.
type Feed struct {
	orderID string
	sub     *store.Subscription
	ch      chan []Message
	done    chan struct{}
	once    sync.Once
}

func newFeed(sub *store.Subscription, orderID string) *Feed {
	return &Feed{
		orderID: orderID,
		sub:     sub,
		ch:      make(chan []Message, 1),
		done:    make(chan struct{}),
	}
}

// C returns the transcript channel. It is closed when the feed ends.
func (f *Feed) C() <-chan []Message {
	return f.ch
}

// Close stops deliveries and releases the store subscription
func (f *Feed) Close() {
	f.once.Do(func() {
		close(f.done)
		f.sub.Close()
	})
}

func (f *Feed) run() {
	defer close(f.ch)
	defer f.sub.Close()

	delivered := -1
	for {
		select {
		case <-f.done:
			return
		case docs, ok := <-f.sub.Snapshots():
			if !ok {
				return
			}
			messages := decodeMessages(docs)
			if len(messages) < delivered {
				log.Printf("[Chat] Skipping stale snapshot for order %s (%d < %d messages)", f.orderID, len(messages), delivered)
				continue
			}
			delivered = len(messages)

			// sole writer: after the drain the send cannot block
			select {
			case <-f.ch:
			default:
			}
			f.ch <- messages
		}
	}
}
