// Package feed is the change-feed contract: a subscribe-by-topic event
// source delivering row-level insert/update notifications.
package feed

const (
	TableMessages = "messages"
	TableProfiles = "profiles"

	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
)

// Topic selects a slice of the feed: one table, one event kind, optionally
// narrowed to a single row-group key (e.g. a conversation id).
type Topic struct {
	Table  string
	Event  string
	Filter string
}

// Event is a single delivery. NewRow holds the row as written.
type Event struct {
	Type   string
	NewRow interface{}
}

// Handler receives deliveries. It is invoked synchronously on the
// publisher's goroutine and must not block.
type Handler func(Event)

type Feed interface {
	Subscribe(topic Topic, fn Handler) *Subscription
	Unsubscribe(sub *Subscription)
}
