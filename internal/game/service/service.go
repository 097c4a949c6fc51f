// Package service implements the game coordinator operations: lobby
// management, role dealing, the per-round action ledger, and night and
// day resolution. It sits between the transport layer and the storage
// contracts and owns all rule validation.
package service

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
	"github.com/lupusgssi/lupus/internal/platform/id"
)

// GameService coordinates mafia games on top of a storage.Store.
type GameService struct {
	store storage.Store
	hub   *watch.Hub

	clock       func() time.Time
	newGameID   func() (string, error)
	newPlayerID func() (string, error)
	newActionID func() (string, error)
	newGameCode func() (string, error)
	newDealSeed func() (int64, error)
}

// NewGameService creates a GameService with default dependencies. The
// hub may be nil, which disables change notifications.
func NewGameService(store storage.Store, hub *watch.Hub) *GameService {
	return &GameService{
		store:       store,
		hub:         hub,
		clock:       time.Now,
		newGameID:   id.NewGameID,
		newPlayerID: id.NewPlayerID,
		newActionID: id.NewActionID,
		newGameCode: domain.NewGameCode,
		newDealSeed: newDealSeed,
	}
}

// newDealSeed draws a high-entropy seed for the role shuffle.
func newDealSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read deal seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// publish fans out change triggers after a committed mutation.
func (s *GameService) publish(gameID string, tables ...watch.Table) {
	if s.hub == nil {
		return
	}
	for _, table := range tables {
		s.hub.Publish(watch.Change{GameID: gameID, Table: table})
	}
}

// hostOnly verifies the caller is the game's host.
func hostOnly(game storage.GameRecord, callerID string) error {
	if callerID == "" || callerID != game.HostPlayerID {
		return apperrors.WithMetadata(apperrors.CodeCallerNotHost,
			"only the host may perform this operation",
			map[string]string{"game_id": game.ID})
	}
	return nil
}

// rosterView converts stored players to the roster view the rules use.
func rosterView(players []storage.PlayerRecord) []domain.Player {
	roster := make([]domain.Player, 0, len(players))
	for _, p := range players {
		roster = append(roster, domain.Player{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			Role:   p.Role,
			Alive:  p.Alive,
		})
	}
	return roster
}

// submissions converts ledger rows to resolver submissions.
func submissions(actions []storage.ActionRecord) []domain.Submission {
	out := make([]domain.Submission, 0, len(actions))
	for _, a := range actions {
		out = append(out, domain.Submission{
			PlayerID:    a.PlayerID,
			TargetID:    a.TargetPlayerID,
			SubmittedAt: a.SubmittedAt,
		})
	}
	return out
}

// actionWindow maps the game phase to the action window it accepts.
func actionWindow(phase domain.Phase) domain.ActionPhase {
	if phase.Kind == domain.PhaseKindDay {
		return domain.ActionPhaseDay
	}
	return domain.ActionPhaseNight
}
