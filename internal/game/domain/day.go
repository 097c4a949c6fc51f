package domain

// DayOutcome describes the result of resolving a day's votes.
type DayOutcome struct {
	// LynchedID is the player voted out, or empty when votes tied or no
	// votes were cast.
	LynchedID string
}

// ResolveDay tallies the day votes and selects the lynch target.
//
// Each voter counts once, for their latest submitted choice. The lynch
// target is the strict plurality leader; a tie between leaders lynches no
// one this round rather than triggering a re-vote.
func ResolveDay(votes []Submission) DayOutcome {
	finalChoice := make(map[string]Submission, len(votes))
	var voters []string
	for _, v := range votes {
		if v.TargetID == "" {
			continue
		}
		prev, ok := finalChoice[v.PlayerID]
		if !ok {
			voters = append(voters, v.PlayerID)
			finalChoice[v.PlayerID] = v
			continue
		}
		if v.SubmittedAt.UnixMilli() >= prev.SubmittedAt.UnixMilli() {
			finalChoice[v.PlayerID] = v
		}
	}

	counts := make(map[string]int)
	var order []string
	for _, voter := range voters {
		target := finalChoice[voter].TargetID
		if counts[target] == 0 {
			order = append(order, target)
		}
		counts[target]++
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
		return DayOutcome{}
	}
	return DayOutcome{LynchedID: best}
}
