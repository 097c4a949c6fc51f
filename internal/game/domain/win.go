package domain

// Winner is the outcome of a win-condition check.
type Winner string

const (
	WinnerNone      Winner = ""
	WinnerVillagers Winner = "VILLAGERS"
	WinnerMafia     Winner = "MAFIA"
)

// EvaluateWin checks the current roster for a decided game.
//
// The host is excluded from the count. An empty eligible roster is a
// degenerate state and reports no winner rather than failing. Rules, in
// order: no living mafia means the villagers win; living mafia matching
// or outnumbering the other living players means the mafia win.
func EvaluateWin(roster []Player) Winner {
	aliveEligible := 0
	mafiaAlive := 0
	for _, p := range roster {
		if p.IsHost || !p.Alive {
			continue
		}
		aliveEligible++
		if p.Role == RoleMafia {
			mafiaAlive++
		}
	}

	if aliveEligible == 0 {
		return WinnerNone
	}
	if mafiaAlive == 0 {
		return WinnerVillagers
	}
	if mafiaAlive >= aliveEligible-mafiaAlive {
		return WinnerMafia
	}
	return WinnerNone
}
