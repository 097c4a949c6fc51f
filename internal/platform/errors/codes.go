// Package errors provides structured, coded error handling for the game
// coordinator.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeRequestInvalid represents a malformed request envelope.
	CodeRequestInvalid Code = "REQUEST_INVALID"

	// Game errors
	CodeGameCodeTaken    Code = "GAME_CODE_TAKEN"
	CodeGameEnded        Code = "GAME_ENDED"
	CodeGameNotInLobby   Code = "GAME_NOT_IN_LOBBY"
	CodeGameStalePhase   Code = "GAME_STALE_PHASE"
	CodeCallerNotHost    Code = "GAME_CALLER_NOT_HOST"
	CodeNotEnoughPlayers Code = "GAME_NOT_ENOUGH_PLAYERS"
	CodePhaseMismatch    Code = "GAME_PHASE_MISMATCH"

	// Player errors
	CodePlayerNameInvalid   Code = "PLAYER_NAME_INVALID"
	CodePlayerDead          Code = "PLAYER_DEAD"
	CodeActionRoleMismatch  Code = "ACTION_ROLE_MISMATCH"
	CodeHostCannotAct       Code = "PLAYER_HOST_CANNOT_ACT"
	CodeHostCannotLeave     Code = "PLAYER_HOST_CANNOT_LEAVE"
	CodeTargetInvalid       Code = "PLAYER_TARGET_INVALID"
	CodeRolesAlreadyDealt   Code = "PLAYER_ROLES_ALREADY_DEALT"
	CodeRosterTooSmall      Code = "PLAYER_ROSTER_TOO_SMALL"
	CodeActionTypeInvalid   Code = "ACTION_TYPE_INVALID"
	CodeActionWrongPhase    Code = "ACTION_WRONG_PHASE"
	CodeActionRoundMismatch Code = "ACTION_ROUND_MISMATCH"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeRequestInvalid,
		CodePlayerNameInvalid,
		CodeTargetInvalid,
		CodeActionTypeInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeGameEnded,
		CodeGameNotInLobby,
		CodeGameStalePhase,
		CodeNotEnoughPlayers,
		CodePhaseMismatch,
		CodePlayerDead,
		CodeHostCannotAct,
		CodeHostCannotLeave,
		CodeRolesAlreadyDealt,
		CodeRosterTooSmall,
		CodeActionWrongPhase,
		CodeActionRoundMismatch,
		CodeActionRoleMismatch:
		return codes.FailedPrecondition

	// PermissionDenied - caller identity does not allow the operation
	case CodeCallerNotHost:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeGameCodeTaken:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
