package chat

import (
	"github.com/quietline/chat-service/internal/model"
)

// Entry is one position in a channel's ordered message list. While a send is
// in flight the entry is pending: TempID is set and Message carries the
// locally-synthesized row. Once the store confirms the write the entry is
// replaced in place by the durable row.
type Entry struct {
	TempID  string
	Message model.Message
}

func (e Entry) Pending() bool {
	return e.TempID != ""
}

// reconcile swaps the pending entry identified by tempID for the
// store-confirmed row without moving it: ordering was fixed at append time.
// Unknown tempIDs leave the list unchanged.
func reconcile(entries []Entry, tempID string, confirmed model.Message) []Entry {
	for i := range entries {
		if entries[i].TempID == tempID {
			entries[i] = Entry{Message: confirmed}
			break
		}
	}
	return entries
}

// removePending drops the pending entry identified by tempID, used to roll
// back an optimistic append after a failed insert.
func removePending(entries []Entry, tempID string) []Entry {
	for i := range entries {
		if entries[i].TempID == tempID {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

// containsMessage reports whether a confirmed entry with the given id is
// already present.
func containsMessage(entries []Entry, id string) bool {
	for i := range entries {
		if !entries[i].Pending() && entries[i].Message.ID.String() == id {
			return true
		}
	}
	return false
}
