package domain

import (
	"errors"
	"math/rand"
)

// MinEligiblePlayers is the minimum number of non-host players a game
// needs before roles can be dealt. With the host that makes four people.
const MinEligiblePlayers = 3

// ErrRosterTooSmall indicates too few eligible players to deal roles.
var ErrRosterTooSmall = errors.New("at least 3 eligible players are required")

// MafiaCount returns how many mafia a roster of n eligible players gets.
func MafiaCount(n int) int {
	count := n / 4
	if count < 1 {
		count = 1
	}
	return count
}

// DealRoles builds the role bag for n eligible players and returns it in a
// uniformly random order.
//
// The bag holds MafiaCount(n) mafia, one detective, one doctor, and
// citizens for the remainder. The permutation is a Fisher-Yates shuffle
// driven by rng, so a seeded source produces a reproducible deal. The
// caller assigns the returned roles positionally to its eligible roster.
func DealRoles(n int, rng *rand.Rand) ([]Role, error) {
	if n < MinEligiblePlayers {
		return nil, ErrRosterTooSmall
	}

	mafia := MafiaCount(n)
	bag := make([]Role, 0, n)
	for range mafia {
		bag = append(bag, RoleMafia)
	}
	bag = append(bag, RoleDetective, RoleDoctor)
	for len(bag) < n {
		bag = append(bag, RoleCitizen)
	}

	for i := len(bag) - 1; i >= 1; i-- {
		j := rng.Intn(i + 1)
		bag[i], bag[j] = bag[j], bag[i]
	}
	return bag, nil
}
