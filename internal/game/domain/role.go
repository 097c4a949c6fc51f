package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Role is a player's assigned game role. The zero value means no role has
// been assigned yet; the host keeps the zero value for the whole game.
type Role string

const (
	RoleUnassigned Role = ""
	RoleMafia      Role = "MAFIA"
	RoleDoctor     Role = "DOCTOR"
	RoleDetective  Role = "DETECTIVE"
	RoleCitizen    Role = "CITIZEN"
)

// ParseRole validates a persisted role value.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleUnassigned, RoleMafia, RoleDoctor, RoleDetective, RoleCitizen:
		return Role(value), nil
	}
	return RoleUnassigned, fmt.Errorf("unknown role %q", value)
}

// MaxPlayerNameLength caps display names, matching the join form limit.
const MaxPlayerNameLength = 20

// ValidPlayerName reports whether a display name is acceptable once
// surrounding whitespace is trimmed.
func ValidPlayerName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= MaxPlayerNameLength
}

// Player is the roster view the rules operate on.
type Player struct {
	ID     string
	Name   string
	IsHost bool
	Role   Role
	Alive  bool
}
