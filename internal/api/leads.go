// ABOUTME: Lead handling endpoint that schedules deferred outbound calls
// ABOUTME: Validates agent ownership before persisting a pending scheduled call

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/voicegate/internal/auth"
	"github.com/2389/voicegate/internal/store"
)

type scheduleLeadRequest struct {
	Conversation  string    `json:"conversation"`
	ScheduledTime time.Time `json:"scheduled_time"`
	AgentID       string    `json:"agent_id"`
}

type scheduleLeadData struct {
	CallID        string    `json:"call_id"`
	AgentID       string    `json:"agent_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// handleScheduleLead handles POST /leads/analyze-and-schedule
func (s *Server) handleScheduleLead(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req scheduleLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Conversation = strings.TrimSpace(req.Conversation)
	req.AgentID = strings.TrimSpace(req.AgentID)
	if req.Conversation == "" || req.AgentID == "" || req.ScheduledTime.IsZero() {
		s.sendJSONError(w, http.StatusBadRequest, "conversation, scheduled_time and agent_id are required")
		return
	}
	if !req.ScheduledTime.After(time.Now()) {
		s.sendJSONError(w, http.StatusBadRequest, "scheduled_time must be in the future")
		return
	}

	if _, err := s.agents.Get(r.Context(), user.ID, req.AgentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendJSONError(w, http.StatusBadRequest, "agent not found")
			return
		}
		s.logger.Error("failed to look up agent", "error", err, "agent_id", req.AgentID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	call := &store.ScheduledCall{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		AgentID:      req.AgentID,
		Conversation: req.Conversation,
		ScheduledAt:  req.ScheduledTime.UTC(),
		Status:       store.CallStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.scheduler.Schedule(r.Context(), call); err != nil {
		s.logger.Error("failed to schedule call", "error", err, "agent_id", req.AgentID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("call scheduled", "call_id", call.ID, "agent_id", call.AgentID, "scheduled_at", call.ScheduledAt)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data": scheduleLeadData{
			CallID:        call.ID,
			AgentID:       call.AgentID,
			ScheduledTime: call.ScheduledAt,
		},
	})
}
