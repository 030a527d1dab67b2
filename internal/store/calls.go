// ABOUTME: ScheduledCall persistence methods for the SQLite store
// ABOUTME: Pending calls are claimed transactionally so each dispatches at most once

package store

import (
	"context"
	"fmt"
	"time"
)

// CreateScheduledCall inserts a pending outbound call.
func (s *SQLiteStore) CreateScheduledCall(ctx context.Context, call *ScheduledCall) error {
	status := call.Status
	if status == "" {
		status = CallStatusPending
	}

	query := `
		INSERT INTO scheduled_calls (id, user_id, agent_id, conversation, scheduled_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		call.ID,
		call.UserID,
		call.AgentID,
		call.Conversation,
		call.ScheduledAt.UTC().Format(time.RFC3339),
		status,
		call.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting scheduled call: %w", err)
	}

	s.logger.Debug("created scheduled call", "id", call.ID, "agent_id", call.AgentID, "scheduled_at", call.ScheduledAt)
	return nil
}

// ClaimDueCalls atomically marks due pending calls as dispatched and returns them.
// A call returned here will not be returned by a concurrent or subsequent claim.
func (s *SQLiteStore) ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]*ScheduledCall, error) {
	if limit <= 0 {
		limit = 100
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}
	defer tx.Rollback()

	nowStr := now.UTC().Format(time.RFC3339)

	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, agent_id, conversation, scheduled_at, status, created_at
		FROM scheduled_calls
		WHERE status = ? AND scheduled_at <= ?
		ORDER BY scheduled_at
		LIMIT ?
	`, CallStatusPending, nowStr, limit)
	if err != nil {
		return nil, fmt.Errorf("querying due calls: %w", err)
	}

	var calls []*ScheduledCall
	for rows.Next() {
		var call ScheduledCall
		var scheduledAtStr, createdAtStr string

		if err := rows.Scan(
			&call.ID,
			&call.UserID,
			&call.AgentID,
			&call.Conversation,
			&scheduledAtStr,
			&call.Status,
			&createdAtStr,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning scheduled call row: %w", err)
		}

		call.ScheduledAt, err = time.Parse(time.RFC3339, scheduledAtStr)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing scheduled_at: %w", err)
		}
		call.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		calls = append(calls, &call)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating due call rows: %w", err)
	}
	rows.Close()

	for _, call := range calls {
		if _, err := tx.ExecContext(ctx,
			`UPDATE scheduled_calls SET status = ? WHERE id = ?`,
			CallStatusDispatched, call.ID,
		); err != nil {
			return nil, fmt.Errorf("marking call %s dispatched: %w", call.ID, err)
		}
		call.Status = CallStatusDispatched
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim transaction: %w", err)
	}

	if len(calls) > 0 {
		s.logger.Debug("claimed due calls", "count", len(calls))
	}
	return calls, nil
}

// MarkCallFailed records a dispatch failure for a claimed call.
func (s *SQLiteStore) MarkCallFailed(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_calls SET status = ? WHERE id = ?`,
		CallStatusFailed, id,
	)
	if err != nil {
		return fmt.Errorf("marking call failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCallsByUser returns all scheduled calls created by the given user.
func (s *SQLiteStore) ListCallsByUser(ctx context.Context, userID string) ([]*ScheduledCall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, agent_id, conversation, scheduled_at, status, created_at
		FROM scheduled_calls
		WHERE user_id = ?
		ORDER BY scheduled_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled calls: %w", err)
	}
	defer rows.Close()

	var calls []*ScheduledCall
	for rows.Next() {
		var call ScheduledCall
		var scheduledAtStr, createdAtStr string

		if err := rows.Scan(
			&call.ID,
			&call.UserID,
			&call.AgentID,
			&call.Conversation,
			&scheduledAtStr,
			&call.Status,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning scheduled call row: %w", err)
		}

		call.ScheduledAt, err = time.Parse(time.RFC3339, scheduledAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing scheduled_at: %w", err)
		}
		call.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		calls = append(calls, &call)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating call rows: %w", err)
	}
	return calls, nil
}
