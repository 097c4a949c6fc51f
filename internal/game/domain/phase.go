package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the coarse lifecycle state of a game.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusOngoing Status = "ongoing"
	StatusEnded   Status = "ended"
)

// PhaseKind names the four phase variants.
type PhaseKind string

const (
	PhaseKindLobby PhaseKind = "lobby"
	PhaseKindNight PhaseKind = "night"
	PhaseKindDay   PhaseKind = "day"
	PhaseKindEnded PhaseKind = "ended"
)

// Phase is the tagged phase variant. Round is meaningful only for night
// and day phases; a night and the following day share the same round.
type Phase struct {
	Kind  PhaseKind
	Round int
}

// LobbyPhase returns the initial phase.
func LobbyPhase() Phase { return Phase{Kind: PhaseKindLobby} }

// NightPhase returns the night phase for a round.
func NightPhase(round int) Phase { return Phase{Kind: PhaseKindNight, Round: round} }

// DayPhase returns the day phase for a round.
func DayPhase(round int) Phase { return Phase{Kind: PhaseKindDay, Round: round} }

// EndedPhase returns the terminal phase.
func EndedPhase() Phase { return Phase{Kind: PhaseKindEnded} }

// Terminal reports whether no further transitions are accepted.
func (p Phase) Terminal() bool { return p.Kind == PhaseKindEnded }

// Status returns the game status implied by the phase.
func (p Phase) Status() Status {
	switch p.Kind {
	case PhaseKindLobby:
		return StatusLobby
	case PhaseKindEnded:
		return StatusEnded
	default:
		return StatusOngoing
	}
}

// String renders the stored phase format: "lobby", "ended", "night_1", "day_2".
func (p Phase) String() string {
	switch p.Kind {
	case PhaseKindNight, PhaseKindDay:
		return string(p.Kind) + "_" + strconv.Itoa(p.Round)
	default:
		return string(p.Kind)
	}
}

// ParsePhase reverses Phase.String for persisted phase values.
func ParsePhase(value string) (Phase, error) {
	value = strings.TrimSpace(value)
	switch value {
	case string(PhaseKindLobby):
		return LobbyPhase(), nil
	case string(PhaseKindEnded):
		return EndedPhase(), nil
	}
	kind, roundPart, found := strings.Cut(value, "_")
	if !found {
		return Phase{}, fmt.Errorf("malformed phase %q", value)
	}
	round, err := strconv.Atoi(roundPart)
	if err != nil || round < 1 {
		return Phase{}, fmt.Errorf("malformed phase round in %q", value)
	}
	switch PhaseKind(kind) {
	case PhaseKindNight:
		return NightPhase(round), nil
	case PhaseKindDay:
		return DayPhase(round), nil
	}
	return Phase{}, fmt.Errorf("unknown phase kind %q", kind)
}
