// ABOUTME: VoiceAgent persistence methods for the SQLite store
// ABOUTME: Maps uniqueness violations to ErrDuplicateName/ErrDuplicatePhone and scopes reads to the owner

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateAgent inserts a voice agent row keyed by the provider-assigned ID.
// Returns ErrDuplicateName if the owner already has an agent with this name,
// or ErrDuplicatePhone if the phone number is taken by any agent.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *VoiceAgent) error {
	query := `
		INSERT INTO voice_agents (id, user_id, name, phone_number, system_prompt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		agent.ID,
		agent.UserID,
		agent.Name,
		agent.PhoneNumber,
		agent.SystemPrompt,
		agent.CreatedAt.UTC().Format(time.RFC3339),
		agent.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			if constraintColumn(err, "phone_number") {
				return ErrDuplicatePhone
			}
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting voice agent: %w", err)
	}

	s.logger.Debug("created voice agent", "id", agent.ID, "user_id", agent.UserID, "name", agent.Name)
	return nil
}

// GetAgentForUser retrieves an agent by ID, constrained to the given owner.
// Returns ErrNotFound both when the agent doesn't exist and when it belongs
// to a different owner, so callers can't distinguish the two.
func (s *SQLiteStore) GetAgentForUser(ctx context.Context, id, userID string) (*VoiceAgent, error) {
	query := `
		SELECT id, user_id, name, phone_number, system_prompt, created_at, updated_at
		FROM voice_agents
		WHERE id = ? AND user_id = ?
	`
	return scanAgent(s.db.QueryRowContext(ctx, query, id, userID))
}

// ListAgentsByUser returns all agents owned by the given user.
func (s *SQLiteStore) ListAgentsByUser(ctx context.Context, userID string) ([]*VoiceAgent, error) {
	query := `
		SELECT id, user_id, name, phone_number, system_prompt, created_at, updated_at
		FROM voice_agents
		WHERE user_id = ?
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying voice agents: %w", err)
	}
	defer rows.Close()

	var agents []*VoiceAgent
	for rows.Next() {
		agent, err := scanAgentRow(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating agent rows: %w", err)
	}

	return agents, nil
}

// CountAgentsByName counts agents owned by the user with exactly this name.
// Used as the fast-path uniqueness pre-check; the UNIQUE(user_id, name)
// constraint remains the authoritative backstop.
func (s *SQLiteStore) CountAgentsByName(ctx context.Context, userID, name string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voice_agents WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting agents by name: %w", err)
	}
	return count, nil
}

// DeleteAgentForUser removes an agent row, constrained to the given owner.
// Returns ErrNotFound if no row matched.
func (s *SQLiteStore) DeleteAgentForUser(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM voice_agents WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting voice agent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted voice agent", "id", id, "user_id", userID)
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgentFields(sc rowScanner) (*VoiceAgent, error) {
	var agent VoiceAgent
	var phone sql.NullString
	var createdAtStr, updatedAtStr string

	err := sc.Scan(
		&agent.ID,
		&agent.UserID,
		&agent.Name,
		&phone,
		&agent.SystemPrompt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		agent.PhoneNumber = &phone.String
	}

	agent.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	agent.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &agent, nil
}

func scanAgent(row *sql.Row) (*VoiceAgent, error) {
	agent, err := scanAgentFields(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning voice agent: %w", err)
	}
	return agent, nil
}

func scanAgentRow(rows *sql.Rows) (*VoiceAgent, error) {
	agent, err := scanAgentFields(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning voice agent row: %w", err)
	}
	return agent, nil
}
