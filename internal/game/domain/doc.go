// Package domain holds the pure rules of the mafia game: phases, roles,
// role dealing, night/day resolution, and win evaluation.
//
// Nothing in this package touches storage or transport. Every function is
// deterministic with respect to its inputs (role dealing takes an injected
// random source), so the rules can be tested without a database.
package domain
