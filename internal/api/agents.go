// ABOUTME: Voice agent handlers for listing, creating, and deleting agents
// ABOUTME: Maps service sentinel errors onto client-facing status codes

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2389/voicegate/internal/agents"
	"github.com/2389/voicegate/internal/auth"
	"github.com/2389/voicegate/internal/store"
)

type createAgentRequest struct {
	Name         string  `json:"name"`
	PhoneNumber  *string `json:"phone_number"`
	SystemPrompt string  `json:"system_prompt"`
}

type agentResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PhoneNumber  *string   `json:"phone_number"`
	SystemPrompt string    `json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// handleListAgents handles GET /agents
func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	summaries, err := s.agents.List(r.Context(), user.ID)
	if err != nil {
		s.logger.Error("failed to list agents", "error", err, "user_id", user.ID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]agentResponse, len(summaries))
	for i, a := range summaries {
		resp[i] = agentResponse{
			ID:           a.ID,
			Name:         a.Name,
			PhoneNumber:  a.PhoneNumber,
			SystemPrompt: a.SystemPrompt,
			CreatedAt:    a.CreatedAt,
			UpdatedAt:    a.UpdatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"agents": resp})
}

// handleCreateAgent handles POST /agents
func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		s.sendJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	result, err := s.agents.Create(r.Context(), user.ID, agents.CreateParams{
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			s.sendJSONError(w, http.StatusBadRequest, "an agent with this name already exists")
		case errors.Is(err, store.ErrDuplicatePhone):
			s.sendJSONError(w, http.StatusBadRequest, "phone number is already in use")
		default:
			s.logger.Error("failed to create agent", "error", err, "user_id", user.ID)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"agent_id": result.AgentID,
		"name":     result.Name,
	})
}

// handleDeleteAgent handles DELETE /agents/{agent_id}
func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())
	agentID := r.PathValue("agent_id")

	result, err := s.agents.Delete(r.Context(), user.ID, agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.sendJSONError(w, http.StatusBadRequest, "agent not found")
			return
		}
		s.logger.Error("failed to delete agent", "error", err, "user_id", user.ID, "agent_id", agentID)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": result.Message,
	})
}
