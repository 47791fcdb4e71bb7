package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/parleyhq/parley/internal/chat/store"
)

// HousekeepingService periodically clears expired password-reset codes and
// prunes dangling conversation-index entries. The indexes are self-healing
// on read as well; this sweep just keeps them from carrying stale entries
// for tenants nobody is listing.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the sweep. The two passes are independent — a failure in
// one won't stop the other.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Info("starting housekeeping cleanup")

	cleared, err := s.clearExpiredResetCodes(ctx)
	if err != nil {
		s.Logger.Error("failed to clear expired reset codes", "error", err)
	}

	pruned, err := s.pruneDanglingIndexEntries(ctx)
	if err != nil {
		s.Logger.Error("failed to prune conversation indexes", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"reset_codes_cleared", cleared,
		"index_entries_pruned", pruned,
	)
}

func (s *HousekeepingService) clearExpiredResetCodes(ctx context.Context) (int, error) {
	emails, err := s.Store.Users().ListEmails(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	cleared := 0
	for _, email := range emails {
		u, err := s.Store.Users().GetUserByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return cleared, err
		}
		if u.ResetOTP == nil || !u.ResetOTP.Expired(now) {
			continue
		}
		if err := s.Store.Users().ClearResetOTP(ctx, email); err != nil {
			return cleared, err
		}
		cleared++
	}

	return cleared, nil
}

func (s *HousekeepingService) pruneDanglingIndexEntries(ctx context.Context) (int, error) {
	tenants, err := s.Store.Conversations().ListTenants(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, tenant := range tenants {
		ids, err := s.Store.Conversations().ListConversationIDs(ctx, tenant)
		if err != nil {
			return pruned, err
		}
		for _, id := range ids {
			_, err := s.Store.Conversations().GetConversation(ctx, tenant, id)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return pruned, err
			}
			if err := s.Store.Conversations().DeleteConversation(ctx, tenant, id); err != nil &&
				!errors.Is(err, store.ErrNotFound) {
				return pruned, err
			}
			pruned++
		}
	}

	return pruned, nil
}
