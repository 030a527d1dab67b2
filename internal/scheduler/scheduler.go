// ABOUTME: Store-backed scheduler for deferred outbound calls
// ABOUTME: A ticker loop claims due calls and dispatches them through the provider

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/2389/voicegate/internal/store"
)

// CallStore defines what the scheduler needs from storage
type CallStore interface {
	CreateScheduledCall(ctx context.Context, call *store.ScheduledCall) error
	ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]*store.ScheduledCall, error)
	MarkCallFailed(ctx context.Context, id string) error
}

// CallDispatcher places outbound calls at the provider
type CallDispatcher interface {
	StartOutboundCall(ctx context.Context, agentID string) error
}

const claimBatchSize = 50

// Scheduler persists deferred outbound calls and dispatches them when due.
// Claiming flips a call to dispatched before the provider is contacted, so a
// call is attempted at most once; dispatch failures are recorded, not retried.
type Scheduler struct {
	store      CallStore
	dispatcher CallDispatcher
	interval   time.Duration
	logger     *slog.Logger
}

// New creates a scheduler polling at the given interval.
func New(callStore CallStore, dispatcher CallDispatcher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		store:      callStore,
		dispatcher: dispatcher,
		interval:   interval,
		logger:     slog.Default().With("component", "scheduler"),
	}
}

// Schedule persists a pending outbound call for later dispatch.
func (s *Scheduler) Schedule(ctx context.Context, call *store.ScheduledCall) error {
	return s.store.CreateScheduledCall(ctx, call)
}

// Run polls for due calls until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "poll_interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

// dispatchDue claims and dispatches every call whose scheduled time has passed.
func (s *Scheduler) dispatchDue(ctx context.Context) {
	calls, err := s.store.ClaimDueCalls(ctx, time.Now().UTC(), claimBatchSize)
	if err != nil {
		s.logger.Error("failed to claim due calls", "error", err)
		return
	}

	for _, call := range calls {
		if err := s.dispatcher.StartOutboundCall(ctx, call.AgentID); err != nil {
			s.logger.Error("failed to dispatch outbound call",
				"call_id", call.ID, "agent_id", call.AgentID, "error", err)
			if markErr := s.store.MarkCallFailed(ctx, call.ID); markErr != nil {
				s.logger.Error("failed to mark call failed", "call_id", call.ID, "error", markErr)
			}
			continue
		}
		s.logger.Info("dispatched outbound call", "call_id", call.ID, "agent_id", call.AgentID)
	}
}
