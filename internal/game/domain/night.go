package domain

// NightOutcome describes the result of resolving a night's submissions.
type NightOutcome struct {
	// MafiaTarget is the plurality mafia target, or empty when no kill was
	// submitted or the vote tied.
	MafiaTarget string
	// ProtectedID is the doctor's final protection target, or empty.
	ProtectedID string
	// VictimID is the player who dies this night, or empty when the kill
	// was blocked or never selected.
	VictimID string
}

// ResolveNight computes the night outcome from the submitted mafia kills
// and doctor protections.
//
// Each mafia player contributes at most once per distinct target, so
// stray duplicate submissions cannot inflate a count. The target with the
// strict plurality of contributions is selected; a tie selects no one.
// The doctor is a single actor, so the latest protection wins. The victim
// dies only when a mafia target exists and is not protected.
func ResolveNight(kills, protects []Submission) NightOutcome {
	outcome := NightOutcome{
		MafiaTarget: pluralityTarget(kills),
		ProtectedID: latestTarget(protects),
	}
	if outcome.MafiaTarget != "" && outcome.MafiaTarget != outcome.ProtectedID {
		outcome.VictimID = outcome.MafiaTarget
	}
	return outcome
}

// pluralityTarget tallies submissions per target, counting each
// (player, target) pair once, and returns the strict plurality leader or
// empty on a tie or no submissions.
func pluralityTarget(submissions []Submission) string {
	seen := make(map[[2]string]bool, len(submissions))
	counts := make(map[string]int)
	var order []string
	for _, s := range submissions {
		if s.TargetID == "" {
			continue
		}
		pair := [2]string{s.PlayerID, s.TargetID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		if counts[s.TargetID] == 0 {
			order = append(order, s.TargetID)
		}
		counts[s.TargetID]++
	}

	best := ""
	bestCount := 0
	tied := false
	for _, target := range order {
		switch {
		case counts[target] > bestCount:
			best = target
			bestCount = counts[target]
			tied = false
		case counts[target] == bestCount:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}

// latestTarget returns the most recently submitted target, preferring
// later slice order on equal timestamps. Ledger upserts normally leave a
// single row per player, but concurrent duplicates must not break this.
func latestTarget(submissions []Submission) string {
	best := ""
	var bestAt int64 = -1
	for _, s := range submissions {
		if s.TargetID == "" {
			continue
		}
		at := s.SubmittedAt.UnixMilli()
		if at >= bestAt {
			best = s.TargetID
			bestAt = at
		}
	}
	return best
}
