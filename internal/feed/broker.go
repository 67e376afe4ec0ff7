package feed

import (
	"sync"
)

// Subscription is the handle returned by Subscribe. Unsubscribing twice is
// safe. A Publish that is already in flight may still invoke the handler
// after Unsubscribe returns; handlers must tolerate one late delivery.
type Subscription struct {
	topic Topic
	fn    Handler
}

// Broker is an in-process Feed implementation. Server-side consumers (open
// message channels, the listener directory) attach here; the same events go
// out to browsers through Centrifugo.
type Broker struct {
	mu   sync.RWMutex
	subs map[Topic]map[*Subscription]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[Topic]map[*Subscription]struct{}),
	}
}

func (b *Broker) Subscribe(topic Topic, fn Handler) *Subscription {
	sub := &Subscription{topic: topic, fn: fn}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}

	return sub
}

func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.topic)
		}
	}
}

// Publish delivers the event to every subscriber of the exact topic and to
// subscribers of the unfiltered form of the same topic.
func (b *Broker) Publish(topic Topic, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, 4)
	for sub := range b.subs[topic] {
		handlers = append(handlers, sub.fn)
	}
	if topic.Filter != "" {
		broad := Topic{Table: topic.Table, Event: topic.Event}
		for sub := range b.subs[broad] {
			handlers = append(handlers, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}
