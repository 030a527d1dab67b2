// ABOUTME: Tests for the outbound call scheduler
// ABOUTME: Covers dispatch of due calls and failure marking via stub store/dispatcher

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/voicegate/internal/store"
)

type stubCallStore struct {
	due    []*store.ScheduledCall
	failed []string
}

func (s *stubCallStore) CreateScheduledCall(ctx context.Context, call *store.ScheduledCall) error {
	s.due = append(s.due, call)
	return nil
}

func (s *stubCallStore) ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]*store.ScheduledCall, error) {
	claimed := s.due
	s.due = nil
	return claimed, nil
}

func (s *stubCallStore) MarkCallFailed(ctx context.Context, id string) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubDispatcher struct {
	calls []string
	errs  map[string]error
}

func (d *stubDispatcher) StartOutboundCall(ctx context.Context, agentID string) error {
	d.calls = append(d.calls, agentID)
	if err, ok := d.errs[agentID]; ok {
		return err
	}
	return nil
}

func TestDispatchDue(t *testing.T) {
	callStore := &stubCallStore{due: []*store.ScheduledCall{
		{ID: "call-1", AgentID: "ag_1"},
		{ID: "call-2", AgentID: "ag_2"},
	}}
	dispatcher := &stubDispatcher{}

	s := New(callStore, dispatcher, time.Second)
	s.dispatchDue(context.Background())

	assert.Equal(t, []string{"ag_1", "ag_2"}, dispatcher.calls)
	assert.Empty(t, callStore.failed)
}

func TestDispatchDue_FailureMarksCall(t *testing.T) {
	callStore := &stubCallStore{due: []*store.ScheduledCall{
		{ID: "call-1", AgentID: "ag_bad"},
		{ID: "call-2", AgentID: "ag_good"},
	}}
	dispatcher := &stubDispatcher{errs: map[string]error{
		"ag_bad": errors.New("provider down"),
	}}

	s := New(callStore, dispatcher, time.Second)
	s.dispatchDue(context.Background())

	// The failed call is marked, and the failure doesn't block later calls
	assert.Equal(t, []string{"call-1"}, callStore.failed)
	assert.Equal(t, []string{"ag_bad", "ag_good"}, dispatcher.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	callStore := &stubCallStore{}
	dispatcher := &stubDispatcher{}

	s := New(callStore, dispatcher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestSchedule(t *testing.T) {
	callStore := &stubCallStore{}
	s := New(callStore, &stubDispatcher{}, time.Second)

	call := &store.ScheduledCall{ID: "call-1", AgentID: "ag_1"}
	require.NoError(t, s.Schedule(context.Background(), call))
	require.Len(t, callStore.due, 1)
	assert.Equal(t, "call-1", callStore.due[0].ID)
}
