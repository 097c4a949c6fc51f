package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// SubmitAction records a player's intent for the current round. The
// ledger holds one row per (player, round, phase, type) key, so
// resubmitting replaces the earlier target rather than stacking votes.
func (s *GameService) SubmitAction(ctx context.Context, gameID, playerID, actionType, targetID string) (storage.ActionRecord, error) {
	parsed, err := domain.ParseActionType(actionType)
	if err != nil {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodeActionTypeInvalid, err.Error())
	}

	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if game.Phase.Terminal() {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodeGameEnded, "the game has already ended")
	}
	if game.Phase.Kind == domain.PhaseKindLobby {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodePhaseMismatch, "the game has not started")
	}
	if parsed.Phase() != actionWindow(game.Phase) {
		return storage.ActionRecord{}, apperrors.WithMetadata(apperrors.CodeActionWrongPhase,
			fmt.Sprintf("%s is a %s action", parsed, parsed.Phase()),
			map[string]string{"phase": game.Phase.String()})
	}

	player, err := s.store.GetPlayer(ctx, gameID, playerID)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if player.IsHost {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodeHostCannotAct,
			"the host moderates and does not act")
	}
	if !player.Alive {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodePlayerDead, "dead players cannot act")
	}
	if required := parsed.Role(); required != domain.RoleUnassigned && player.Role != required {
		return storage.ActionRecord{}, apperrors.WithMetadata(apperrors.CodeActionRoleMismatch,
			fmt.Sprintf("%s requires the %s role", parsed, required),
			map[string]string{"role": string(player.Role)})
	}

	target, err := s.store.GetPlayer(ctx, gameID, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ActionRecord{}, apperrors.New(apperrors.CodeTargetInvalid,
				"the target is not a player in this game")
		}
		return storage.ActionRecord{}, err
	}
	if target.IsHost || !target.Alive {
		return storage.ActionRecord{}, apperrors.New(apperrors.CodeTargetInvalid,
			"the target must be a living non-host player")
	}

	actionID, err := s.newActionID()
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("generate action id: %w", err)
	}
	record := storage.ActionRecord{
		ID:             actionID,
		GameID:         gameID,
		PlayerID:       playerID,
		Round:          game.Round,
		Phase:          parsed.Phase(),
		Type:           parsed,
		TargetPlayerID: target.ID,
		SubmittedAt:    s.clock().UTC(),
	}
	if err := s.store.UpsertAction(ctx, record); err != nil {
		return storage.ActionRecord{}, err
	}

	s.publish(gameID, watch.TableActions)
	return record, nil
}

// Investigate records the detective's night action and answers whether
// the target is mafia. All SubmitAction validation applies.
func (s *GameService) Investigate(ctx context.Context, gameID, playerID, targetID string) (bool, error) {
	if _, err := s.SubmitAction(ctx, gameID, playerID, string(domain.ActionDetectiveInvestigate), targetID); err != nil {
		return false, err
	}
	target, err := s.store.GetPlayer(ctx, gameID, targetID)
	if err != nil {
		return false, err
	}
	return target.Role == domain.RoleMafia, nil
}

// PlayerStanding reports whether one living player has submitted the
// action their role owes in the current phase.
type PlayerStanding struct {
	PlayerID string
	Name     string
	Acted    bool
}

// RoundStatus summarizes submission progress for the current phase.
// Players without a required action in the phase count as acted.
type RoundStatus struct {
	Game     storage.GameRecord
	Standing []PlayerStanding
	AllActed bool
}

// RoundStatus reports which living players still owe an action in the
// game's current phase. Hosts use it to decide when to resolve.
func (s *GameService) RoundStatus(ctx context.Context, gameID string) (RoundStatus, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return RoundStatus{}, err
	}
	if game.Phase.Terminal() {
		return RoundStatus{}, apperrors.New(apperrors.CodeGameEnded, "the game has already ended")
	}
	if game.Phase.Kind == domain.PhaseKindLobby {
		return RoundStatus{}, apperrors.New(apperrors.CodePhaseMismatch, "the game has not started")
	}

	window := actionWindow(game.Phase)
	actions, err := s.store.ListActionsForRound(ctx, gameID, game.Round, window, "")
	if err != nil {
		return RoundStatus{}, err
	}
	type key struct {
		playerID string
		action   domain.ActionType
	}
	acted := make(map[key]bool, len(actions))
	for _, a := range actions {
		acted[key{a.PlayerID, a.Type}] = true
	}

	players, err := s.store.ListPlayersByGame(ctx, gameID)
	if err != nil {
		return RoundStatus{}, err
	}

	status := RoundStatus{Game: game, AllActed: true}
	for _, p := range players {
		if p.IsHost || !p.Alive {
			continue
		}
		standing := PlayerStanding{PlayerID: p.ID, Name: p.Name, Acted: true}
		if required, ok := requiredAction(window, p.Role); ok && !acted[key{p.ID, required}] {
			standing.Acted = false
			status.AllActed = false
		}
		status.Standing = append(status.Standing, standing)
	}
	return status, nil
}

// requiredAction returns the action a role owes in the given window.
// Citizens have no night action.
func requiredAction(window domain.ActionPhase, role domain.Role) (domain.ActionType, bool) {
	if window == domain.ActionPhaseDay {
		return domain.ActionDayVote, true
	}
	switch role {
	case domain.RoleMafia:
		return domain.ActionMafiaKill, true
	case domain.RoleDoctor:
		return domain.ActionDoctorProtect, true
	case domain.RoleDetective:
		return domain.ActionDetectiveInvestigate, true
	}
	return "", false
}
