// Package id generates identifiers for persisted game entities.
package id

import "github.com/google/uuid"

// NewGameID returns a new unique game identifier.
func NewGameID() (string, error) {
	return newID("game")
}

// NewPlayerID returns a new unique player identifier.
func NewPlayerID() (string, error) {
	return newID("player")
}

// NewActionID returns a new unique action identifier.
func NewActionID() (string, error) {
	return newID("action")
}

func newID(prefix string) (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return prefix + "-" + value.String(), nil
}
