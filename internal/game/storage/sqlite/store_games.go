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

// Game methods

// CreateGame inserts a new game row. A collision on the unique code index
// surfaces as storage.ErrCodeTaken so the caller can regenerate and retry.
func (s *Store) CreateGame(ctx context.Context, game storage.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(game.ID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(game.Code) == "" {
		return fmt.Errorf("game code is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO games (id, code, host_player_id, host_name, status, phase, round, winner, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.ID,
		game.Code,
		game.HostPlayerID,
		game.HostName,
		string(game.Status),
		game.Phase.String(),
		game.Round,
		string(game.Winner),
		toMillis(game.CreatedAt),
		toMillis(game.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrCodeTaken
		}
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// GetGame returns a game row by id.
func (s *Store) GetGame(ctx context.Context, id string) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, code, host_player_id, host_name, status, phase, round, winner, created_at, updated_at
FROM games WHERE id = ?`, id)
	return scanGame(row)
}

// GetGameByCode returns a game row by its normalized code.
func (s *Store) GetGameByCode(ctx context.Context, code string) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, code, host_player_id, host_name, status, phase, round, winner, created_at, updated_at
FROM games WHERE code = ?`, domain.NormalizeGameCode(code))
	return scanGame(row)
}

// TransitionPhase applies a compare-and-set phase change on the game row.
//
// The update is guarded by the expected current phase, so the first of two
// concurrent duplicate resolutions wins and the loser gets ErrStalePhase.
func (s *Store) TransitionPhase(ctx context.Context, gameID string, transition storage.PhaseTransition) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.GameRecord{}, fmt.Errorf("game id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	record, err := transitionPhaseTx(ctx, tx, gameID, transition)
	if err != nil {
		return storage.GameRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return storage.GameRecord{}, fmt.Errorf("commit transition: %w", err)
	}
	return record, nil
}

// ApplyResolution marks players dead and applies the phase transition in
// one transaction. Losing the compare-and-set rolls the deaths back, so
// only the first of two concurrent duplicate resolutions has any effect.
func (s *Store) ApplyResolution(ctx context.Context, gameID string, deaths []string, transition storage.PhaseTransition) (storage.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.GameRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.GameRecord{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(gameID) == "" {
		return storage.GameRecord{}, fmt.Errorf("game id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, playerID := range deaths {
		result, err := tx.ExecContext(ctx,
			"UPDATE players SET alive = 0 WHERE game_id = ? AND id = ?",
			gameID, playerID)
		if err != nil {
			return storage.GameRecord{}, fmt.Errorf("mark %s dead: %w", playerID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return storage.GameRecord{}, fmt.Errorf("mark dead rows affected: %w", err)
		}
		if affected == 0 {
			return storage.GameRecord{}, storage.ErrNotFound
		}
	}

	record, err := transitionPhaseTx(ctx, tx, gameID, transition)
	if err != nil {
		return storage.GameRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return storage.GameRecord{}, fmt.Errorf("commit resolution: %w", err)
	}
	return record, nil
}

// transitionPhaseTx runs the guarded phase update inside an open transaction.
func transitionPhaseTx(ctx context.Context, tx *sql.Tx, gameID string, transition storage.PhaseTransition) (storage.GameRecord, error) {
	now := nowMillis()
	result, err := tx.ExecContext(ctx, `
UPDATE games SET status = ?, phase = ?, round = ?, winner = ?, updated_at = ?
WHERE id = ? AND phase = ?`,
		string(transition.To.Status()),
		transition.To.String(),
		transition.Round,
		string(transition.Winner),
		now,
		gameID,
		transition.From.String(),
	)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("update game phase: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("phase update rows affected: %w", err)
	}
	if affected == 0 {
		// Either the game is gone or another resolution already committed.
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM games WHERE id = ?", gameID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.GameRecord{}, storage.ErrNotFound
			}
			return storage.GameRecord{}, fmt.Errorf("check game exists: %w", err)
		}
		return storage.GameRecord{}, storage.ErrStalePhase
	}

	row := tx.QueryRowContext(ctx, `
SELECT id, code, host_player_id, host_name, status, phase, round, winner, created_at, updated_at
FROM games WHERE id = ?`, gameID)
	return scanGame(row)
}

// DeleteGame removes a game row together with its players and actions in
// one transaction.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM actions WHERE game_id = ?", gameID); err != nil {
		return fmt.Errorf("delete game actions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM players WHERE game_id = ?", gameID); err != nil {
		return fmt.Errorf("delete game players: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM games WHERE id = ?", gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (storage.GameRecord, error) {
	var (
		record               storage.GameRecord
		status, phase        string
		winner               string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&record.ID,
		&record.Code,
		&record.HostPlayerID,
		&record.HostName,
		&status,
		&phase,
		&record.Round,
		&winner,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameRecord{}, storage.ErrNotFound
		}
		return storage.GameRecord{}, fmt.Errorf("scan game: %w", err)
	}

	record.Status = domain.Status(status)
	parsedPhase, err := domain.ParsePhase(phase)
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("stored game %s: %w", record.ID, err)
	}
	record.Phase = parsedPhase
	record.Winner = domain.Winner(winner)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}
