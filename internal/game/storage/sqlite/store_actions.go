package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
)

// Action methods

// UpsertAction atomically replaces any action sharing the ledger key
// (game, player, round, phase, type). This is the replace-by-key
// semantics of the action ledger: a new submission supersedes the old one
// without a delete/insert race window.
func (s *Store) UpsertAction(ctx context.Context, action storage.ActionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(action.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(action.PlayerID) == "" {
		return fmt.Errorf("player id is required")
	}
	if action.Round < 1 {
		return fmt.Errorf("round must be positive")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO actions (id, game_id, player_id, round, phase, action_type, target_player_id, submitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id, player_id, round, phase, action_type) DO UPDATE SET
    target_player_id = excluded.target_player_id,
    submitted_at = excluded.submitted_at`,
		action.ID,
		action.GameID,
		action.PlayerID,
		action.Round,
		string(action.Phase),
		string(action.Type),
		action.TargetPlayerID,
		toMillis(action.SubmittedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert action: %w", err)
	}
	return nil
}

// ListActionsForRound returns all actions for a round and phase window,
// optionally filtered by type, in submission order.
func (s *Store) ListActionsForRound(ctx context.Context, gameID string, round int, phase domain.ActionPhase, actionType domain.ActionType) ([]storage.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT id, game_id, player_id, round, phase, action_type, target_player_id, submitted_at
FROM actions WHERE game_id = ? AND round = ? AND phase = ?`
	args := []any{gameID, round, string(phase)}
	if actionType != "" {
		query += " AND action_type = ?"
		args = append(args, string(actionType))
	}
	query += " ORDER BY submitted_at, id"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []storage.ActionRecord
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}
	return actions, nil
}

func scanAction(row rowScanner) (storage.ActionRecord, error) {
	var (
		record            storage.ActionRecord
		phase, actionType string
		submittedAt       int64
	)
	err := row.Scan(
		&record.ID,
		&record.GameID,
		&record.PlayerID,
		&record.Round,
		&phase,
		&actionType,
		&record.TargetPlayerID,
		&submittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActionRecord{}, storage.ErrNotFound
		}
		return storage.ActionRecord{}, fmt.Errorf("scan action: %w", err)
	}

	parsedType, err := domain.ParseActionType(actionType)
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("stored action %s: %w", record.ID, err)
	}
	record.Phase = domain.ActionPhase(phase)
	record.Type = parsedType
	record.SubmittedAt = fromMillis(submittedAt)
	return record, nil
}
