package bus

import (
	"context"
	"sync"

	"eventgraph/pkg/logger"

	"go.uber.org/zap"
)

// Topic names one of the domain-event streams.
type Topic string

const (
	TopicEventCreated        Topic = "EVENT_CREATED"
	TopicEventUpdated        Topic = "EVENT_UPDATED"
	TopicRegistrationCreated Topic = "REGISTRATION_CREATED"
	TopicRegistrationUpdated Topic = "REGISTRATION_UPDATED"
	TopicCommentAdded        Topic = "COMMENT_ADDED"
)

// Message is one published domain event. EventID identifies the parent event
// for filtered topics; Payload is the full domain record.
type Message struct {
	Topic   Topic
	EventID string
	Payload any
}

const subscriberBuffer = 16

type subscriber struct {
	ch chan Message
	// eventID filters delivery when non-empty; payloads with a different
	// embedded event id are skipped.
	eventID string
}

// Bus is the in-process publish/subscribe fan-out. It is explicitly
// constructed by main and injected into services and the subscription
// transport; there is no persistence or replay, and a message published with
// no subscribers connected is lost.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]*subscriber
	nextID uint64
	closed bool
	done   chan struct{}
}

func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[uint64]*subscriber),
		done: make(chan struct{}),
	}
}

// Subscribe registers a listener on topic, optionally filtered to one
// eventID (pass "" for unfiltered). The returned channel is closed when ctx
// is cancelled or the bus shuts down. Closing one subscription never affects
// the others.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, eventID string) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*subscriber)
	}
	b.subs[topic][id] = &subscriber{ch: ch, eventID: eventID}

	// The watcher must also end on Close, or a subscription made with a
	// non-cancellable context would pin its goroutine forever.
	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(topic, id)
		case <-b.done:
		}
	}()

	return ch
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[topic][id]
	if !ok {
		return
	}
	delete(b.subs[topic], id)
	close(sub.ch)
}

// Publish fans a message out to matching subscribers. It is fire-and-forget:
// a subscriber whose buffer is full has this message dropped so one slow
// consumer never blocks the publisher or its peers.
func (b *Bus) Publish(topic Topic, eventID string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	msg := Message{Topic: topic, EventID: eventID, Payload: payload}
	for _, sub := range b.subs[topic] {
		if sub.eventID != "" && sub.eventID != eventID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			logger.WithComponent("bus").Warn("dropping message for slow subscriber",
				zap.String("topic", string(topic)),
				zap.String("event_id", eventID))
		}
	}
}

// Close terminates every subscription. Further publishes are no-ops and
// further subscribes return closed channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for topic, subs := range b.subs {
		for id, sub := range subs {
			delete(subs, id)
			close(sub.ch)
		}
		delete(b.subs, topic)
	}
}
