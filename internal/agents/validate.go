// ABOUTME: Name uniqueness pre-check for agent creation
// ABOUTME: Pure read against the store, isolated from provider interaction

package agents

import (
	"context"
	"fmt"

	"github.com/2389/voicegate/internal/store"
)

// validateName reports store.ErrDuplicateName if the user already owns an
// agent with exactly this name (case-sensitive). This is a user-experience
// fast path; the database constraint is the correctness guarantee.
func (s *Service) validateName(ctx context.Context, userID, name string) error {
	count, err := s.store.CountAgentsByName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("checking name uniqueness: %w", err)
	}
	if count > 0 {
		return store.ErrDuplicateName
	}
	return nil
}
