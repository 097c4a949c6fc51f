// Package storage defines the persistence contracts for the game
// coordinator. Records mirror the three store tables (games, players,
// actions); the interfaces are implemented by the sqlite package.
package storage

import (
	"context"
	"time"

	"github.com/lupusgssi/lupus/internal/game/domain"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrCodeTaken indicates a generated game code collided with an existing
// game. The caller generates a fresh code and retries.
var ErrCodeTaken = apperrors.New(apperrors.CodeGameCodeTaken, "game code already in use")

// ErrStalePhase indicates a compare-and-set phase transition lost to a
// concurrent transition. Only the first of two duplicate resolutions
// commits; the loser surfaces this error and must re-fetch.
var ErrStalePhase = apperrors.New(apperrors.CodeGameStalePhase, "game phase changed since read")

// GameRecord is one row of the games table.
type GameRecord struct {
	ID           string
	Code         string
	HostPlayerID string
	HostName     string
	Status       domain.Status
	Phase        domain.Phase
	Round        int
	Winner       domain.Winner
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlayerRecord is one row of the players table.
type PlayerRecord struct {
	ID       string
	GameID   string
	Name     string
	IsHost   bool
	Role     domain.Role
	Alive    bool
	JoinedAt time.Time
}

// ActionRecord is one row of the actions table. TargetPlayerID may be
// empty. At most one live row exists per
// (game, player, round, phase, action type) key.
type ActionRecord struct {
	ID             string
	GameID         string
	PlayerID       string
	Round          int
	Phase          domain.ActionPhase
	Type           domain.ActionType
	TargetPlayerID string
	SubmittedAt    time.Time
}

// RoleAssignment pairs a player with the role dealt to them.
type RoleAssignment struct {
	PlayerID string
	Role     domain.Role
}

// PhaseTransition describes a compare-and-set move of the game record.
// The transition commits only while the stored phase still equals From.
type PhaseTransition struct {
	From   domain.Phase
	To     domain.Phase
	Round  int
	Winner domain.Winner
}

// GameStore owns the games table.
type GameStore interface {
	// CreateGame inserts a new game row, returning ErrCodeTaken when the
	// code's unique constraint fires.
	CreateGame(ctx context.Context, game GameRecord) error
	GetGame(ctx context.Context, id string) (GameRecord, error)
	// GetGameByCode looks a game up by its normalized (uppercase) code.
	GetGameByCode(ctx context.Context, code string) (GameRecord, error)
	// TransitionPhase applies a compare-and-set phase change, returning
	// ErrStalePhase when the stored phase no longer matches.
	TransitionPhase(ctx context.Context, gameID string, transition PhaseTransition) (GameRecord, error)
	// ApplyResolution marks the given players dead and applies the phase
	// transition in a single transaction. When the compare-and-set loses
	// to a concurrent resolution the deaths roll back too, so a duplicate
	// ResolveNight cannot double-apply a kill.
	ApplyResolution(ctx context.Context, gameID string, deaths []string, transition PhaseTransition) (GameRecord, error)
	// DeleteGame removes the game row along with its players and actions.
	DeleteGame(ctx context.Context, gameID string) error
}

// PlayerStore owns the players table.
type PlayerStore interface {
	PutPlayer(ctx context.Context, player PlayerRecord) error
	GetPlayer(ctx context.Context, gameID, playerID string) (PlayerRecord, error)
	// ListPlayersByGame returns the roster ordered by join time.
	ListPlayersByGame(ctx context.Context, gameID string) ([]PlayerRecord, error)
	DeletePlayer(ctx context.Context, gameID, playerID string) error
	// SetPlayerAlive flips a player's alive flag.
	SetPlayerAlive(ctx context.Context, gameID, playerID string, alive bool) error
	// AssignRoles writes every dealt role, resets all alive flags, and
	// applies the lobby-to-night game transition in a single transaction,
	// so a partial failure can never leave a half-assigned roster.
	AssignRoles(ctx context.Context, gameID string, assignments []RoleAssignment, transition PhaseTransition) (GameRecord, error)
}

// ActionStore owns the actions table.
type ActionStore interface {
	// UpsertAction atomically replaces any action with the same
	// (game, player, round, phase, type) key.
	UpsertAction(ctx context.Context, action ActionRecord) error
	// ListActionsForRound returns all actions for a round and phase
	// window, optionally filtered by type, ordered by submission time.
	ListActionsForRound(ctx context.Context, gameID string, round int, phase domain.ActionPhase, actionType domain.ActionType) ([]ActionRecord, error)
}

// Store groups the per-table interfaces the service depends on.
type Store interface {
	GameStore
	PlayerStore
	ActionStore
}
