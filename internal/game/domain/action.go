package domain

import (
	"fmt"
	"time"
)

// ActionType names the four per-round intents players can submit.
type ActionType string

const (
	ActionMafiaKill            ActionType = "MAFIA_KILL"
	ActionDoctorProtect        ActionType = "DOCTOR_PROTECT"
	ActionDetectiveInvestigate ActionType = "DETECTIVE_INVESTIGATE"
	ActionDayVote              ActionType = "DAY_VOTE"
)

// ActionPhase is the phase window an action belongs to.
type ActionPhase string

const (
	ActionPhaseNight ActionPhase = "night"
	ActionPhaseDay   ActionPhase = "day"
)

// ParseActionType validates a submitted action type.
func ParseActionType(value string) (ActionType, error) {
	switch ActionType(value) {
	case ActionMafiaKill, ActionDoctorProtect, ActionDetectiveInvestigate, ActionDayVote:
		return ActionType(value), nil
	}
	return "", fmt.Errorf("unknown action type %q", value)
}

// Phase returns the phase window the action type is valid in.
func (t ActionType) Phase() ActionPhase {
	if t == ActionDayVote {
		return ActionPhaseDay
	}
	return ActionPhaseNight
}

// Role returns the role allowed to submit the action type. Day votes are
// open to every living eligible player and return RoleUnassigned.
func (t ActionType) Role() Role {
	switch t {
	case ActionMafiaKill:
		return RoleMafia
	case ActionDoctorProtect:
		return RoleDoctor
	case ActionDetectiveInvestigate:
		return RoleDetective
	}
	return RoleUnassigned
}

// Submission is one ledger entry as seen by the resolvers. Resolvers must
// tolerate multiple submissions from the same player for the same action
// type; the tally rules below deduplicate accordingly.
type Submission struct {
	PlayerID    string
	TargetID    string
	SubmittedAt time.Time
}
