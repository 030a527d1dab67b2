// ABOUTME: Lifecycle service orchestrating voice agents across store and provider
// ABOUTME: All create/list/delete flows go through here - remote call first, local write second

package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/voicegate/internal/store"
)

// ErrInternal is returned when local persistence fails after the remote
// mutation already succeeded.
var ErrInternal = errors.New("internal error")

// AgentStore defines what the service needs from storage
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *store.VoiceAgent) error
	GetAgentForUser(ctx context.Context, id, userID string) (*store.VoiceAgent, error)
	ListAgentsByUser(ctx context.Context, userID string) ([]*store.VoiceAgent, error)
	CountAgentsByName(ctx context.Context, userID, name string) (int, error)
	DeleteAgentForUser(ctx context.Context, id, userID string) error
}

// Provider defines what the service needs from the remote conversational-AI provider
type Provider interface {
	CreateAgent(ctx context.Context, name, systemPrompt string) (string, error)
	DeleteAgent(ctx context.Context, agentID string) error
}

// Service is the single authority for agent lifecycle operations.
type Service struct {
	store    AgentStore
	provider Provider
	logger   *slog.Logger
}

// NewService creates an agent lifecycle service.
func NewService(agentStore AgentStore, provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    agentStore,
		provider: provider,
		logger:   logger.With("component", "agents"),
	}
}

// CreateParams holds the caller-supplied fields for Create.
type CreateParams struct {
	Name         string
	PhoneNumber  *string
	SystemPrompt string
}

// CreateResult is returned on a fully successful Create.
type CreateResult struct {
	AgentID string
	Name    string
}

// AgentSummary is the projection returned by List.
type AgentSummary struct {
	ID           string
	Name         string
	PhoneNumber  *string
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DeleteResult is returned on a fully successful Delete.
type DeleteResult struct {
	Message string
}

// List returns all agents owned by the user. Local read only, no remote call.
func (s *Service) List(ctx context.Context, userID string) ([]AgentSummary, error) {
	agents, err := s.store.ListAgentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}

	summaries := make([]AgentSummary, len(agents))
	for i, a := range agents {
		summaries[i] = AgentSummary{
			ID:           a.ID,
			Name:         a.Name,
			PhoneNumber:  a.PhoneNumber,
			SystemPrompt: a.SystemPrompt,
			CreatedAt:    a.CreatedAt,
			UpdatedAt:    a.UpdatedAt,
		}
	}
	return summaries, nil
}

// Get returns a single agent owned by the user, or store.ErrNotFound. An
// agent owned by someone else is reported the same as a missing one.
func (s *Service) Get(ctx context.Context, userID, agentID string) (*AgentSummary, error) {
	a, err := s.store.GetAgentForUser(ctx, agentID, userID)
	if err != nil {
		return nil, err
	}
	return &AgentSummary{
		ID:           a.ID,
		Name:         a.Name,
		PhoneNumber:  a.PhoneNumber,
		SystemPrompt: a.SystemPrompt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

// Create provisions a remote agent, then persists the local record under the
// provider-assigned ID. The provider call strictly precedes the local write.
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (*CreateResult, error) {
	// Fast-path uniqueness check. The UNIQUE(user_id, name) constraint below
	// remains authoritative under concurrent creates.
	if err := s.validateName(ctx, userID, params.Name); err != nil {
		return nil, err
	}

	providerID, err := s.provider.CreateAgent(ctx, params.Name, params.SystemPrompt)
	if err != nil {
		// No local state has been touched yet.
		return nil, fmt.Errorf("provisioning agent: %w", err)
	}

	now := time.Now().UTC()
	agent := &store.VoiceAgent{
		ID:           providerID,
		UserID:       userID,
		Name:         params.Name,
		PhoneNumber:  params.PhoneNumber,
		SystemPrompt: params.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAgent(ctx, agent); err != nil {
		if errors.Is(err, store.ErrDuplicateName) || errors.Is(err, store.ErrDuplicatePhone) {
			// Lost the race after the remote create succeeded: the remote
			// agent is now orphaned at the provider. Surfaced for manual
			// reconciliation.
			s.logger.Error("local persist conflict after remote create, provider agent orphaned",
				"provider_agent_id", providerID, "user_id", userID, "name", params.Name, "error", err)
			return nil, err
		}
		s.logger.Error("local persist failed after remote create, provider agent orphaned",
			"provider_agent_id", providerID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: persisting agent: %v", ErrInternal, err)
	}

	s.logger.Info("created voice agent", "agent_id", providerID, "user_id", userID, "name", params.Name)
	return &CreateResult{AgentID: providerID, Name: params.Name}, nil
}

// Delete de-provisions the remote agent, then removes the local record. The
// lookup is owner-scoped, so an agent owned by someone else reports
// store.ErrNotFound exactly like a missing one.
func (s *Service) Delete(ctx context.Context, userID, agentID string) (*DeleteResult, error) {
	if _, err := s.store.GetAgentForUser(ctx, agentID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("looking up agent: %w", err)
	}

	if err := s.provider.DeleteAgent(ctx, agentID); err != nil {
		// Local record retained: the remote agent may still exist.
		return nil, fmt.Errorf("de-provisioning agent: %w", err)
	}

	if err := s.store.DeleteAgentForUser(ctx, agentID, userID); err != nil {
		// Remote agent is gone but the local row persists stale.
		s.logger.Error("local delete failed after remote de-provision, row is stale",
			"agent_id", agentID, "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: deleting agent record: %v", ErrInternal, err)
	}

	s.logger.Info("deleted voice agent", "agent_id", agentID, "user_id", userID)
	return &DeleteResult{Message: fmt.Sprintf("Agent %s deleted", agentID)}, nil
}
