// Package presence maintains the online/available flags on profile rows.
// Everything here is best-effort: a failed write is logged and dropped, the
// caller is never blocked on presence.
package presence

import (
	"context"
	"fmt"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

// PresenceChannel is the realtime channel presence flips are pushed to.
const PresenceChannel = "presence"

type Tracker struct {
	repository DBRepo
	broker     FeedPublisher
	realtime   RealtimePublisher
	logger     logger_lib.LoggerInterface
}

func New(repo DBRepo, broker FeedPublisher, realtime RealtimePublisher, logger logger_lib.LoggerInterface) *Tracker {
	return &Tracker{
		repository: repo,
		broker:     broker,
		realtime:   realtime,
		logger:     logger,
	}
}

// MarkAvailable is the session-start signal: the user is online and open to
// new conversations.
func (t *Tracker) MarkAvailable(ctx context.Context, userID string) {
	available := true
	t.SetOnline(ctx, userID, true, &available)
}

// MarkUnavailable is the session-end signal (explicit teardown, page-close
// or visibility-hidden).
func (t *Tracker) MarkUnavailable(ctx context.Context, userID string) {
	available := false
	t.SetOnline(ctx, userID, false, &available)
}

// SetOnline writes the presence flags with last-write-wins semantics and
// fans the change out to feed subscribers. There is no expiry: if the
// unavailable signal never fires the row stays stale until the next write.
func (t *Tracker) SetOnline(ctx context.Context, userID string, online bool, available *bool) {
	if userID == "" {
		return
	}

	if err := t.repository.SetPresence(ctx, userID, online, available); err != nil {
		t.logger.Error(fmt.Sprintf("failed to update presence for %s: %v", userID, err))
		return
	}

	update := model.PresenceUpdate{
		UserID:      userID,
		IsOnline:    online,
		IsAvailable: available,
	}

	t.broker.Publish(feed.Topic{
		Table:  feed.TableProfiles,
		Event:  feed.EventUpdate,
		Filter: userID,
	}, feed.Event{
		Type:   feed.EventUpdate,
		NewRow: update,
	})

	if t.realtime != nil {
		if err := t.realtime.Publish(ctx, PresenceChannel, update); err != nil {
			t.logger.Warn(fmt.Sprintf("failed to publish presence update for %s: %v", userID, err))
		}
	}
}
