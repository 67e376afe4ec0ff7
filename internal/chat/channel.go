// Package chat implements the per-conversation session object: it loads
// history, appends outgoing messages with optimistic-then-confirmed
// semantics, consumes the change feed for inbound messages and keeps read
// state current.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

type State int

const (
	StateLoading State = iota
	StateActive
	StateClosed

	// stateOpening is held by Open between the Loading check and the
	// Active transition, so a second Open cannot slip through while the
	// first one is still loading.
	stateOpening
)

var (
	ErrEmptyContent = errors.New("message content cannot be empty")
	ErrNotActive    = errors.New("channel is not active")
	ErrMissingUser  = errors.New("current user id is required")
	ErrInvalidID    = errors.New("conversation and user ids must be valid uuids")
)

const defaultReadMarkDelay = 100 * time.Millisecond

type Channel struct {
	repository DBRepo
	feed       Feed
	logger     logger_lib.LoggerInterface

	conversationID   string
	userID           string
	conversationUUID uuid.UUID
	userUUID         uuid.UUID
	readMarkDelay    time.Duration

	mu           sync.Mutex
	state        State
	conversation *model.Conversation
	participants []model.ConversationParticipant
	entries      []Entry
	subscription *feed.Subscription
	readTimer    *time.Timer
}

func NewChannel(repo DBRepo, fd Feed, logger logger_lib.LoggerInterface, conversationID, userID string, readMarkDelay time.Duration) *Channel {
	if readMarkDelay <= 0 {
		readMarkDelay = defaultReadMarkDelay
	}
	return &Channel{
		repository:     repo,
		feed:           fd,
		logger:         logger,
		conversationID: conversationID,
		userID:         userID,
		readMarkDelay:  readMarkDelay,
		state:          StateLoading,
	}
}

// Open loads the conversation, its participants and the full history, then
// attaches the live subscription and marks inbound messages read. After Open
// returns the channel is Active.
func (c *Channel) Open(ctx context.Context) error {
	if c.userID == "" {
		return ErrMissingUser
	}

	userUUID, err := uuid.Parse(c.userID)
	if err != nil {
		return ErrInvalidID
	}
	conversationUUID, err := uuid.Parse(c.conversationID)
	if err != nil {
		return ErrInvalidID
	}

	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return fmt.Errorf("channel already opened")
	}
	c.state = stateOpening
	c.mu.Unlock()

	conversation, err := c.repository.GetConversation(ctx, c.conversationID)
	if err != nil {
		return c.failOpen(fmt.Errorf("failed to fetch conversation: %v", err))
	}

	participants, err := c.repository.GetParticipants(ctx, c.conversationID)
	if err != nil {
		return c.failOpen(fmt.Errorf("failed to fetch participants: %v", err))
	}

	messages, err := c.repository.GetConversationMessages(ctx, c.conversationID)
	if err != nil {
		return c.failOpen(fmt.Errorf("failed to fetch messages: %v", err))
	}

	entries := make([]Entry, 0, len(*messages))
	for _, message := range *messages {
		entries = append(entries, Entry{Message: message})
	}

	sub := c.feed.Subscribe(feed.Topic{
		Table:  feed.TableMessages,
		Event:  feed.EventInsert,
		Filter: c.conversationID,
	}, c.handleFeedEvent)

	c.mu.Lock()
	if c.state == StateClosed {
		// Closed while loading: release the subscription we just took.
		c.mu.Unlock()
		c.feed.Unsubscribe(sub)
		return fmt.Errorf("channel closed during open")
	}
	c.conversation = conversation
	c.participants = participants
	c.entries = entries
	c.subscription = sub
	c.conversationUUID = conversationUUID
	c.userUUID = userUUID
	c.state = StateActive
	c.mu.Unlock()

	c.MarkRead(ctx)

	return nil
}

// failOpen hands the channel back to Loading so a failed Open can be
// retried, unless Close already won.
func (c *Channel) failOpen(err error) error {
	c.mu.Lock()
	if c.state == stateOpening {
		c.state = StateLoading
	}
	c.mu.Unlock()
	return err
}

// Send appends the message optimistically, then makes it durable. On insert
// failure the optimistic entry is rolled back and the error returned; the
// caller may simply resend.
func (c *Channel) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	tempID := fmt.Sprintf("temp-%s", uuid.New().String())

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	pending := model.Message{
		ConversationID: c.conversationUUID,
		SenderID:       c.userUUID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	c.entries = append(c.entries, Entry{TempID: tempID, Message: pending})
	c.mu.Unlock()

	message := model.Message{
		ID:             uuid.New(),
		ConversationID: pending.ConversationID,
		SenderID:       pending.SenderID,
		Content:        content,
		CreatedAt:      pending.CreatedAt,
	}

	if err := c.repository.SaveMessage(ctx, &message); err != nil {
		c.mu.Lock()
		c.entries = removePending(c.entries, tempID)
		c.mu.Unlock()
		return fmt.Errorf("failed to send message: %v", err)
	}

	if err := c.repository.TouchLastMessage(ctx, c.conversationID, message.CreatedAt); err != nil {
		c.logger.Warn(fmt.Sprintf("failed to advance last_message_at for %s: %v", c.conversationID, err))
	}

	c.mu.Lock()
	c.entries = reconcile(c.entries, tempID, message)
	if c.conversation != nil && message.CreatedAt.After(c.conversation.LastMessageAt) {
		c.conversation.LastMessageAt = message.CreatedAt
	}
	c.mu.Unlock()

	c.feed.Publish(feed.Topic{
		Table:  feed.TableMessages,
		Event:  feed.EventInsert,
		Filter: c.conversationID,
	}, feed.Event{
		Type:   feed.EventInsert,
		NewRow: message,
	})

	return nil
}

// handleFeedEvent receives live inserts for this conversation. The sender's
// own write arrives here too (once via reconciliation, once via the feed);
// dedup by message id keeps exactly one entry. Events after Close are
// dropped.
func (c *Channel) handleFeedEvent(event feed.Event) {
	message, ok := event.NewRow.(model.Message)
	if !ok {
		return
	}

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}

	if containsMessage(c.entries, message.ID.String()) {
		c.mu.Unlock()
		return
	}

	c.entries = append(c.entries, Entry{Message: message})
	if c.conversation != nil && message.CreatedAt.After(c.conversation.LastMessageAt) {
		c.conversation.LastMessageAt = message.CreatedAt
	}

	inbound := message.SenderID.String() != c.userID
	if inbound && c.readTimer == nil {
		// Let the UI settle before flipping read_at.
		c.readTimer = time.AfterFunc(c.readMarkDelay, c.deferredMarkRead)
	}
	c.mu.Unlock()
}

func (c *Channel) deferredMarkRead() {
	c.mu.Lock()
	c.readTimer = nil
	active := c.state == StateActive
	c.mu.Unlock()

	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.MarkRead(ctx)
}

// MarkRead stamps read_at on every unread message from the peer, in the
// store and on the local entries. Re-invoking when nothing is unread is a
// no-op; failures are logged and dropped.
func (c *Channel) MarkRead(ctx context.Context) {
	now := time.Now()

	if err := c.repository.MarkMessagesRead(ctx, c.conversationID, c.userID, now); err != nil {
		c.logger.Error(fmt.Sprintf("failed to mark messages read in %s: %v", c.conversationID, err))
		return
	}

	c.mu.Lock()
	for i := range c.entries {
		entry := &c.entries[i]
		if entry.Pending() || entry.Message.ReadAt != nil {
			continue
		}
		if entry.Message.SenderID.String() != c.userID {
			ts := now
			entry.Message.ReadAt = &ts
		}
	}
	c.mu.Unlock()
}

// Close detaches the live subscription and cancels any scheduled read-mark.
// Safe to call more than once; every other method becomes a no-op afterward.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	sub := c.subscription
	c.subscription = nil
	if c.readTimer != nil {
		c.readTimer.Stop()
		c.readTimer = nil
	}
	c.mu.Unlock()

	if sub != nil {
		c.feed.Unsubscribe(sub)
	}
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a snapshot of the ordered entry list.
func (c *Channel) Messages() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Entry, len(c.entries))
	copy(snapshot, c.entries)
	return snapshot
}

func (c *Channel) Conversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversation == nil {
		return nil
	}
	conversation := *c.conversation
	return &conversation
}

func (c *Channel) Participants() []model.ConversationParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	participants := make([]model.ConversationParticipant, len(c.participants))
	copy(participants, c.participants)
	return participants
}
