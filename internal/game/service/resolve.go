package service

import (
	"context"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// NightResolution is the committed result of resolving a night.
type NightResolution struct {
	Game    storage.GameRecord
	Outcome domain.NightOutcome
	Winner  domain.Winner
}

// DayResolution is the committed result of resolving a day.
type DayResolution struct {
	Game    storage.GameRecord
	Outcome domain.DayOutcome
	Winner  domain.Winner
}

// ResolveNight tallies the night's ledger, applies the kill if it stands,
// and advances the game to the matching day or to a decided end.
//
// The death and the phase transition commit in one compare-and-set
// transaction, so a duplicate resolution from a stale read fails with
// ErrStalePhase instead of double-applying the kill.
func (s *GameService) ResolveNight(ctx context.Context, gameID, callerID string) (NightResolution, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return NightResolution{}, err
	}
	if err := hostOnly(game, callerID); err != nil {
		return NightResolution{}, err
	}
	if game.Phase.Terminal() {
		return NightResolution{}, apperrors.New(apperrors.CodeGameEnded, "the game has already ended")
	}
	if game.Phase.Kind != domain.PhaseKindNight {
		return NightResolution{}, apperrors.WithMetadata(apperrors.CodePhaseMismatch,
			"the game is not in a night phase",
			map[string]string{"phase": game.Phase.String()})
	}

	kills, err := s.store.ListActionsForRound(ctx, gameID, game.Round, domain.ActionPhaseNight, domain.ActionMafiaKill)
	if err != nil {
		return NightResolution{}, err
	}
	protects, err := s.store.ListActionsForRound(ctx, gameID, game.Round, domain.ActionPhaseNight, domain.ActionDoctorProtect)
	if err != nil {
		return NightResolution{}, err
	}
	outcome := domain.ResolveNight(submissions(kills), submissions(protects))

	var deaths []string
	if outcome.VictimID != "" {
		deaths = append(deaths, outcome.VictimID)
	}
	winner, err := s.projectWinner(ctx, gameID, deaths)
	if err != nil {
		return NightResolution{}, err
	}

	transition := storage.PhaseTransition{From: game.Phase, Round: game.Round}
	if winner != domain.WinnerNone {
		transition.To = domain.EndedPhase()
		transition.Winner = winner
	} else {
		transition.To = domain.DayPhase(game.Round)
	}

	updated, err := s.store.ApplyResolution(ctx, gameID, deaths, transition)
	if err != nil {
		return NightResolution{}, err
	}

	tables := []watch.Table{watch.TableGames}
	if len(deaths) > 0 {
		tables = append(tables, watch.TablePlayers)
	}
	s.publish(gameID, tables...)
	return NightResolution{Game: updated, Outcome: outcome, Winner: winner}, nil
}

// ResolveDay tallies the day's votes, applies the lynch if one stands,
// and advances the game to the next night or to a decided end. The same
// compare-and-set guard as ResolveNight applies.
func (s *GameService) ResolveDay(ctx context.Context, gameID, callerID string) (DayResolution, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return DayResolution{}, err
	}
	if err := hostOnly(game, callerID); err != nil {
		return DayResolution{}, err
	}
	if game.Phase.Terminal() {
		return DayResolution{}, apperrors.New(apperrors.CodeGameEnded, "the game has already ended")
	}
	if game.Phase.Kind != domain.PhaseKindDay {
		return DayResolution{}, apperrors.WithMetadata(apperrors.CodePhaseMismatch,
			"the game is not in a day phase",
			map[string]string{"phase": game.Phase.String()})
	}

	votes, err := s.store.ListActionsForRound(ctx, gameID, game.Round, domain.ActionPhaseDay, domain.ActionDayVote)
	if err != nil {
		return DayResolution{}, err
	}
	outcome := domain.ResolveDay(submissions(votes))

	var deaths []string
	if outcome.LynchedID != "" {
		deaths = append(deaths, outcome.LynchedID)
	}
	winner, err := s.projectWinner(ctx, gameID, deaths)
	if err != nil {
		return DayResolution{}, err
	}

	transition := storage.PhaseTransition{From: game.Phase}
	if winner != domain.WinnerNone {
		transition.To = domain.EndedPhase()
		transition.Round = game.Round
		transition.Winner = winner
	} else {
		transition.To = domain.NightPhase(game.Round + 1)
		transition.Round = game.Round + 1
	}

	updated, err := s.store.ApplyResolution(ctx, gameID, deaths, transition)
	if err != nil {
		return DayResolution{}, err
	}

	tables := []watch.Table{watch.TableGames}
	if len(deaths) > 0 {
		tables = append(tables, watch.TablePlayers)
	}
	s.publish(gameID, tables...)
	return DayResolution{Game: updated, Outcome: outcome, Winner: winner}, nil
}

// projectWinner evaluates the win conditions against the roster as it
// will stand once the pending deaths commit.
func (s *GameService) projectWinner(ctx context.Context, gameID string, deaths []string) (domain.Winner, error) {
	players, err := s.store.ListPlayersByGame(ctx, gameID)
	if err != nil {
		return domain.WinnerNone, err
	}
	roster := rosterView(players)
	for _, dead := range deaths {
		for i := range roster {
			if roster[i].ID == dead {
				roster[i].Alive = false
			}
		}
	}
	return domain.EvaluateWin(roster), nil
}

// EndGame aborts a running game without declaring a winner. Only the
// host may end a game early.
func (s *GameService) EndGame(ctx context.Context, gameID, callerID string) (storage.GameRecord, error) {
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

	updated, err := s.store.TransitionPhase(ctx, gameID, storage.PhaseTransition{
		From:  game.Phase,
		To:    domain.EndedPhase(),
		Round: game.Round,
	})
	if err != nil {
		return storage.GameRecord{}, err
	}

	s.publish(gameID, watch.TableGames)
	return updated, nil
}
