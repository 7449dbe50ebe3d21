package store

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/hakobgh/socialmedia/model"
)

const postChangeTopicPrefix = "post_change_"

// ChangeBus fans out per-post change events to live watchers. Topics are
// keyed by post id so a watcher only receives events for the single post it
// is rendered for.
type ChangeBus interface {
	Publish(change *model.PostChange) error

	// Subscribe returns a stream of raw change payloads for one post. The
	// stream is closed when ctx is cancelled.
	Subscribe(ctx context.Context, postId string) (<-chan *message.Message, error)
}

// GoChannelChangeBus is the in-process ChangeBus used by a single server
// instance. Later when needed we could substitute it with a Kafka-based
// event bus behind the same interface.
type GoChannelChangeBus struct {
	bus *gochannel.GoChannel
}

func NewGoChannelChangeBus() *GoChannelChangeBus {
	return &GoChannelChangeBus{
		bus: gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
	}
}

func (b *GoChannelChangeBus) Publish(change *model.PostChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return b.bus.Publish(postChangeTopicPrefix+change.PostId, msg)
}

func (b *GoChannelChangeBus) Subscribe(ctx context.Context, postId string) (<-chan *message.Message, error) {
	return b.bus.Subscribe(ctx, postChangeTopicPrefix+postId)
}
