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

// Player methods

// PutPlayer inserts or replaces a player row.
func (s *Store) PutPlayer(ctx context.Context, player storage.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(player.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(player.ID) == "" {
		return fmt.Errorf("player id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (id, game_id, name, is_host, role, alive, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id, id) DO UPDATE SET
    name = excluded.name,
    is_host = excluded.is_host,
    role = excluded.role,
    alive = excluded.alive`,
		player.ID,
		player.GameID,
		player.Name,
		boolToInt(player.IsHost),
		string(player.Role),
		boolToInt(player.Alive),
		toMillis(player.JoinedAt),
	)
	if err != nil {
		return fmt.Errorf("put player: %w", err)
	}
	return nil
}

// GetPlayer returns one player row.
func (s *Store) GetPlayer(ctx context.Context, gameID, playerID string) (storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlayerRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PlayerRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, game_id, name, is_host, role, alive, joined_at
FROM players WHERE game_id = ? AND id = ?`, gameID, playerID)
	return scanPlayer(row)
}

// ListPlayersByGame returns the full roster ordered by join time. Join
// order is the deterministic ordering role assignment relies on.
func (s *Store) ListPlayersByGame(ctx context.Context, gameID string) ([]storage.PlayerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, game_id, name, is_host, role, alive, joined_at
FROM players WHERE game_id = ?
ORDER BY joined_at, id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []storage.PlayerRecord
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// DeletePlayer removes a player row.
func (s *Store) DeletePlayer(ctx context.Context, gameID, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"DELETE FROM players WHERE game_id = ? AND id = ?", gameID, playerID)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete player rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetPlayerAlive flips a player's alive flag.
func (s *Store) SetPlayerAlive(ctx context.Context, gameID, playerID string, alive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE players SET alive = ? WHERE game_id = ? AND id = ?",
		boolToInt(alive), gameID, playerID)
	if err != nil {
		return fmt.Errorf("set player alive: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set alive rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AssignRoles writes every dealt role and the lobby-to-night transition in
// one transaction. Players outside the assignment list (the host) are
// reset to no role. A failure anywhere rolls the whole deal back, so the
// store can never show "some players have roles, game still says lobby".
func (s *Store) AssignRoles(ctx context.Context, gameID string, assignments []storage.RoleAssignment, transition storage.PhaseTransition) (storage.GameRecord, error) {
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

	if _, err := tx.ExecContext(ctx,
		"UPDATE players SET role = ?, alive = 1 WHERE game_id = ?",
		string(domain.RoleUnassigned), gameID); err != nil {
		return storage.GameRecord{}, fmt.Errorf("reset roster: %w", err)
	}

	for _, assignment := range assignments {
		result, err := tx.ExecContext(ctx,
			"UPDATE players SET role = ?, alive = 1 WHERE game_id = ? AND id = ?",
			string(assignment.Role), gameID, assignment.PlayerID)
		if err != nil {
			return storage.GameRecord{}, fmt.Errorf("assign role to %s: %w", assignment.PlayerID, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return storage.GameRecord{}, fmt.Errorf("assign role rows affected: %w", err)
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
		return storage.GameRecord{}, fmt.Errorf("commit role assignment: %w", err)
	}
	return record, nil
}

func scanPlayer(row rowScanner) (storage.PlayerRecord, error) {
	var (
		record         storage.PlayerRecord
		isHost, alive  int
		role           string
		joinedAtMillis int64
	)
	err := row.Scan(
		&record.ID,
		&record.GameID,
		&record.Name,
		&isHost,
		&role,
		&alive,
		&joinedAtMillis,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PlayerRecord{}, storage.ErrNotFound
		}
		return storage.PlayerRecord{}, fmt.Errorf("scan player: %w", err)
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("stored player %s: %w", record.ID, err)
	}
	record.IsHost = isHost != 0
	record.Role = parsedRole
	record.Alive = alive != 0
	record.JoinedAt = fromMillis(joinedAtMillis)
	return record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
