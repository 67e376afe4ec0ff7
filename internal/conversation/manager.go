// Package conversation owns conversation lifecycle: locating the existing
// conversation for a pair of users or creating a new one, and listing a
// user's inbox.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/model"
)

var (
	ErrMissingUser      = errors.New("both user ids are required")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
)

const defaultOpTimeout = 5 * time.Second

type Manager struct {
	repository DBRepo
	logger     logger_lib.LoggerInterface
	opTimeout  time.Duration
}

func New(repo DBRepo, logger logger_lib.LoggerInterface, opTimeout time.Duration) *Manager {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Manager{
		repository: repo,
		logger:     logger,
		opTimeout:  opTimeout,
	}
}

// FindOrCreate returns the conversation shared by the two users, creating it
// on first contact. The pair lookup is symmetric: FindOrCreate(a, b) and
// FindOrCreate(b, a) resolve to the same conversation.
//
// Uniqueness is enforced by read-before-write, not by a store constraint:
// two simultaneous calls for the same pair can each miss the other's
// in-flight insert and create two conversations. Known limitation, covered
// by tests rather than fixed here.
func (m *Manager) FindOrCreate(ctx context.Context, userA, userB string) (string, error) {
	if userA == "" || userB == "" {
		return "", ErrMissingUser
	}
	if userA == userB {
		return "", ErrSelfConversation
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	existing, err := m.findExisting(ctx, userA, userB)
	if err != nil {
		return "", fmt.Errorf("failed to look up conversations: %v", err)
	}
	if existing != "" {
		return existing, nil
	}

	conversationID, err := m.repository.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %v", err)
	}

	if err := m.repository.AddParticipants(ctx, conversationID, []string{userA, userB}); err != nil {
		// The conversation row is already durable with no members. It is
		// not rolled back or retried; the orphan stays in the store.
		m.logger.Error(fmt.Sprintf("conversation %s orphaned: failed to add participants: %v", conversationID, err))
		return "", fmt.Errorf("failed to add participants: %v", err)
	}

	return conversationID, nil
}

// findExisting intersects both users' membership sets. Transient read
// failures are retried once before giving up.
func (m *Manager) findExisting(ctx context.Context, userA, userB string) (string, error) {
	aIDs, err := m.userConversationIDs(ctx, userA)
	if err != nil {
		return "", err
	}
	if len(aIDs) == 0 {
		return "", nil
	}

	bIDs, err := m.userConversationIDs(ctx, userB)
	if err != nil {
		return "", err
	}

	aSet := make(map[string]struct{}, len(aIDs))
	for _, id := range aIDs {
		aSet[id] = struct{}{}
	}

	for _, id := range bIDs {
		if _, ok := aSet[id]; ok {
			return id, nil
		}
	}

	return "", nil
}

func (m *Manager) userConversationIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := m.repository.GetUserConversationIDs(ctx, userID)
	if err == nil {
		return ids, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	m.logger.Warn(fmt.Sprintf("retrying conversation lookup for %s: %v", userID, err))
	return m.repository.GetUserConversationIDs(ctx, userID)
}

// ListForUser returns the user's conversations, most recent activity first,
// with both participants and their profile views attached.
func (m *Manager) ListForUser(ctx context.Context, userID string) (model.ConversationList, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	conversations, err := m.repository.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %v", err)
	}

	return conversations, nil
}
