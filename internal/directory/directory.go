// Package directory tracks which users are currently available for ad-hoc
// pairing. Two producers feed one idempotent set replacement: a periodic
// store poll and the profile change feed. The poll is the backstop for feed
// events lost across reconnects.
package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/quietline/chat-service/internal/feed"
	"github.com/quietline/chat-service/internal/model"
)

const defaultPollInterval = 10 * time.Second

type Directory struct {
	repository   DBRepo
	feed         Feed
	logger       logger_lib.LoggerInterface
	pollInterval time.Duration

	mu        sync.RWMutex
	available []model.Profile

	refresh chan struct{}
}

func New(repo DBRepo, fd Feed, logger logger_lib.LoggerInterface, pollInterval time.Duration) *Directory {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Directory{
		repository:   repo,
		feed:         fd,
		logger:       logger,
		pollInterval: pollInterval,
		refresh:      make(chan struct{}, 1),
	}
}

// Snapshot serves the cached available set, minus the excluded user. The
// cache lags the store by at most one poll interval; a feed-driven refresh
// usually closes the gap sooner.
func (d *Directory) Snapshot(excludingUserID string) model.ProfileList {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make(model.ProfileList, 0, len(d.available))
	for _, profile := range d.available {
		if profile.ID == excludingUserID {
			continue
		}
		result = append(result, profile)
	}
	return result
}

// Run keeps the cached set current until ctx is cancelled. Presence flips
// arriving on the feed trigger an immediate refresh; the ticker refreshes
// regardless.
func (d *Directory) Run(ctx context.Context) error {
	sub := d.feed.Subscribe(feed.Topic{
		Table: feed.TableProfiles,
		Event: feed.EventUpdate,
	}, func(feed.Event) {
		select {
		case d.refresh <- struct{}{}:
		default:
		}
	})
	defer d.feed.Unsubscribe(sub)

	d.replaceFromStore(ctx)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.replaceFromStore(ctx)
		case <-d.refresh:
			d.replaceFromStore(ctx)
		}
	}
}

func (d *Directory) replaceFromStore(ctx context.Context) {
	profiles, err := d.repository.GetAvailableProfiles(ctx, "")
	if err != nil {
		// Keep the previous set; the next tick retries.
		d.logger.Warn(fmt.Sprintf("failed to refresh available users: %v", err))
		return
	}

	d.replaceAvailableSet(profiles)
}

// replaceAvailableSet is the single consumer both producers funnel into.
// Replacing the whole set makes poll/push duplication harmless.
func (d *Directory) replaceAvailableSet(profiles model.ProfileList) {
	d.mu.Lock()
	d.available = profiles
	d.mu.Unlock()
}
