package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// createCodeAttempts bounds how many codes CreateGame tries before
// giving up on the unique constraint.
const createCodeAttempts = 5

// CreateGame opens a new lobby with the caller as host. The host gets a
// player record but never receives a role.
func (s *GameService) CreateGame(ctx context.Context, hostName string) (storage.GameRecord, storage.PlayerRecord, error) {
	name := strings.TrimSpace(hostName)
	if !domain.ValidPlayerName(name) {
		return storage.GameRecord{}, storage.PlayerRecord{}, apperrors.New(apperrors.CodePlayerNameInvalid,
			fmt.Sprintf("host name must be 1 to %d characters", domain.MaxPlayerNameLength))
	}

	gameID, err := s.newGameID()
	if err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("generate game id: %w", err)
	}
	hostID, err := s.newPlayerID()
	if err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("generate host id: %w", err)
	}

	now := s.clock().UTC()
	game := storage.GameRecord{
		ID:           gameID,
		HostPlayerID: hostID,
		HostName:     name,
		Status:       domain.StatusLobby,
		Phase:        domain.LobbyPhase(),
		Round:        0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created := false
	for range createCodeAttempts {
		code, err := s.newGameCode()
		if err != nil {
			return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("generate game code: %w", err)
		}
		game.Code = code

		err = s.store.CreateGame(ctx, game)
		if err == nil {
			created = true
			break
		}
		if errors.Is(err, storage.ErrCodeTaken) {
			continue
		}
		return storage.GameRecord{}, storage.PlayerRecord{}, err
	}
	if !created {
		return storage.GameRecord{}, storage.PlayerRecord{}, apperrors.New(apperrors.CodeGameCodeTaken,
			"could not allocate a unique game code")
	}

	host := storage.PlayerRecord{
		ID:       hostID,
		GameID:   gameID,
		Name:     name,
		IsHost:   true,
		Alive:    true,
		JoinedAt: now,
	}
	if err := s.store.PutPlayer(ctx, host); err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("persist host: %w", err)
	}

	s.publish(gameID, watch.TableGames, watch.TablePlayers)
	return game, host, nil
}

// Game returns a game by id.
func (s *GameService) Game(ctx context.Context, gameID string) (storage.GameRecord, error) {
	return s.store.GetGame(ctx, gameID)
}

// GameByCode looks a game up by its join code, case-insensitively.
func (s *GameService) GameByCode(ctx context.Context, code string) (storage.GameRecord, error) {
	normalized := domain.NormalizeGameCode(code)
	if !domain.ValidGameCode(normalized) {
		return storage.GameRecord{}, storage.ErrNotFound
	}
	return s.store.GetGameByCode(ctx, normalized)
}

// Roster returns the game's players in join order.
func (s *GameService) Roster(ctx context.Context, gameID string) ([]storage.PlayerRecord, error) {
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.store.ListPlayersByGame(ctx, gameID)
}

// JoinGame adds a player to a lobby found by code.
func (s *GameService) JoinGame(ctx context.Context, code, playerName string) (storage.GameRecord, storage.PlayerRecord, error) {
	game, err := s.GameByCode(ctx, code)
	if err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, err
	}
	if game.Phase.Terminal() {
		return storage.GameRecord{}, storage.PlayerRecord{}, apperrors.New(apperrors.CodeGameEnded,
			"the game has already ended")
	}
	if game.Phase.Kind != domain.PhaseKindLobby {
		return storage.GameRecord{}, storage.PlayerRecord{}, apperrors.New(apperrors.CodeGameNotInLobby,
			"the game has already started")
	}

	name := strings.TrimSpace(playerName)
	if !domain.ValidPlayerName(name) {
		return storage.GameRecord{}, storage.PlayerRecord{}, apperrors.New(apperrors.CodePlayerNameInvalid,
			fmt.Sprintf("player name must be 1 to %d characters", domain.MaxPlayerNameLength))
	}

	playerID, err := s.newPlayerID()
	if err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("generate player id: %w", err)
	}
	player := storage.PlayerRecord{
		ID:       playerID,
		GameID:   game.ID,
		Name:     name,
		Alive:    true,
		JoinedAt: s.clock().UTC(),
	}
	if err := s.store.PutPlayer(ctx, player); err != nil {
		return storage.GameRecord{}, storage.PlayerRecord{}, fmt.Errorf("persist player: %w", err)
	}

	s.publish(game.ID, watch.TablePlayers)
	return game, player, nil
}

// LeaveGame removes a non-host player from a game still in its lobby.
func (s *GameService) LeaveGame(ctx context.Context, gameID, playerID string) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Phase.Kind != domain.PhaseKindLobby {
		return apperrors.New(apperrors.CodeGameNotInLobby,
			"players can only leave while the game is in its lobby")
	}

	player, err := s.store.GetPlayer(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	if player.IsHost {
		return apperrors.New(apperrors.CodeHostCannotLeave,
			"the host cannot leave; delete the game instead")
	}

	if err := s.store.DeletePlayer(ctx, gameID, playerID); err != nil {
		return err
	}
	s.publish(gameID, watch.TablePlayers)
	return nil
}

// DeleteGame removes a game and all of its players and actions. Only the
// host may delete a game.
func (s *GameService) DeleteGame(ctx context.Context, gameID, callerID string) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if err := hostOnly(game, callerID); err != nil {
		return err
	}
	if err := s.store.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	s.publish(gameID, watch.TableGames)
	return nil
}
