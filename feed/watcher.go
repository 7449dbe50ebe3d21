package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/store"
)

// Watcher holds the live subscription for a single rendered post and turns
// change events into local callbacks. Open is idempotent while the watcher is
// open, Close releases the subscription exactly once, and a closed watcher
// can be opened again when the post is rendered anew.
type Watcher struct {
	bus      store.ChangeBus
	postId   string
	onUpdate func(likedIDs []string, dislikedIDs []string)
	onDelete func()

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewWatcher(bus store.ChangeBus, postId string, onUpdate func(likedIDs []string, dislikedIDs []string), onDelete func()) *Watcher {
	return &Watcher{
		bus:      bus,
		postId:   postId,
		onUpdate: onUpdate,
		onDelete: onDelete,
	}
}

// Open starts the subscription. Calling Open on an already open watcher does
// nothing, so re-rendering a visible post never stacks subscriptions.
func (w *Watcher) Open(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	messages, err := w.bus.Subscribe(ctx, w.postId)
	if err != nil {
		cancel()
		return err
	}
	w.cancel = cancel

	go w.run(messages)
	return nil
}

// Close cancels the subscription. Safe to call multiple times.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
}

func (w *Watcher) run(messages <-chan *message.Message) {
	for msg := range messages {
		msg.Ack()

		var change model.PostChange
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			// Undecodable events are dropped, a stale schema must not crash a
			// rendered post.
			continue
		}
		if change.PostId != w.postId {
			continue
		}

		switch change.Type {
		case model.PostChangeTypeDeleted:
			w.onDelete()
		case model.PostChangeTypeUpdated:
			w.onUpdate(change.LikedIDs, change.DislikedIDs)
		}
	}
}
