package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// StartGame deals roles to every non-host player and moves the game from
// its lobby into the first night. The deal and the phase transition
// commit together, so a concurrent duplicate start cannot re-deal roles.
func (s *GameService) StartGame(ctx context.Context, gameID, callerID string) (storage.GameRecord, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return storage.GameRecord{}, err
	}
	if err := hostOnly(game, callerID); err != nil {
		return storage.GameRecord{}, err
	}
	if game.Phase.Terminal() {
		return storage.GameRecord{}, apperrors.New(apperrors.CodeGameEnded, "the game has already ended")
	}
	if game.Phase.Kind != domain.PhaseKindLobby {
		return storage.GameRecord{}, apperrors.New(apperrors.CodeRolesAlreadyDealt,
			"roles have already been dealt")
	}

	players, err := s.store.ListPlayersByGame(ctx, gameID)
	if err != nil {
		return storage.GameRecord{}, err
	}
	eligible := make([]storage.PlayerRecord, 0, len(players))
	for _, p := range players {
		if !p.IsHost {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < domain.MinEligiblePlayers {
		return storage.GameRecord{}, apperrors.WithMetadata(apperrors.CodeRosterTooSmall,
			fmt.Sprintf("at least %d players besides the host are required", domain.MinEligiblePlayers),
			map[string]string{"eligible": strconv.Itoa(len(eligible))})
	}

	seed, err := s.newDealSeed()
	if err != nil {
		return storage.GameRecord{}, fmt.Errorf("seed role deal: %w", err)
	}
	roles, err := domain.DealRoles(len(eligible), rand.New(rand.NewSource(seed)))
	if err != nil {
		return storage.GameRecord{}, err
	}

	// The deal is positional over the join-ordered eligible roster.
	assignments := make([]storage.RoleAssignment, len(eligible))
	for i, p := range eligible {
		assignments[i] = storage.RoleAssignment{PlayerID: p.ID, Role: roles[i]}
	}

	transition := storage.PhaseTransition{
		From:  domain.LobbyPhase(),
		To:    domain.NightPhase(1),
		Round: 1,
	}
	updated, err := s.store.AssignRoles(ctx, gameID, assignments, transition)
	if err != nil {
		if errors.Is(err, storage.ErrStalePhase) {
			return storage.GameRecord{}, apperrors.Wrap(apperrors.CodeRolesAlreadyDealt,
				"roles have already been dealt", err)
		}
		return storage.GameRecord{}, err
	}

	s.publish(gameID, watch.TableGames, watch.TablePlayers)
	return updated, nil
}
