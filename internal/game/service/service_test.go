package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lupusgssi/lupus/internal/game/domain"
	"github.com/lupusgssi/lupus/internal/game/storage"
	"github.com/lupusgssi/lupus/internal/game/storage/sqlite"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// harness wires a GameService to an in-memory store with deterministic
// clock, ids, codes, and deal seed.
type harness struct {
	svc   *GameService
	store *sqlite.Store
	hub   *watch.Hub
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store: store,
		hub:   watch.NewHub(),
		now:   time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
	svc := NewGameService(store, h.hub)
	svc.clock = func() time.Time {
		h.now = h.now.Add(time.Second)
		return h.now
	}
	svc.newGameID = sequence("game")
	svc.newPlayerID = sequence("player")
	svc.newActionID = sequence("action")
	svc.newDealSeed = func() (int64, error) { return 1, nil }

	codes := 0
	svc.newGameCode = func() (string, error) {
		codes++
		return fmt.Sprintf("AAA-%03d", codes), nil
	}

	h.svc = svc
	return h
}

func sequence(prefix string) func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected coded error %s, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("error code = %s, want %s", appErr.Code, code)
	}
}

// seedGame writes a game row directly so tests can fix phases and roles
// without going through the random deal.
func (h *harness) seedGame(t *testing.T, phase domain.Phase, round int) storage.GameRecord {
	t.Helper()
	game := storage.GameRecord{
		ID:           "game-x",
		Code:         "XYZ-789",
		HostPlayerID: "player-host",
		HostName:     "Hope",
		Status:       phase.Status(),
		Phase:        phase,
		Round:        round,
		CreatedAt:    h.now,
		UpdatedAt:    h.now,
	}
	if err := h.store.CreateGame(context.Background(), game); err != nil {
		t.Fatalf("seed game: %v", err)
	}
	host := storage.PlayerRecord{
		ID: "player-host", GameID: game.ID, Name: "Hope", IsHost: true, Alive: true, JoinedAt: h.now,
	}
	if err := h.store.PutPlayer(context.Background(), host); err != nil {
		t.Fatalf("seed host: %v", err)
	}
	return game
}

func (h *harness) seedPlayer(t *testing.T, gameID, playerID, name string, role domain.Role, alive bool, joinedSec int) {
	t.Helper()
	player := storage.PlayerRecord{
		ID:       playerID,
		GameID:   gameID,
		Name:     name,
		Role:     role,
		Alive:    alive,
		JoinedAt: time.Date(2026, 3, 1, 20, 0, joinedSec, 0, time.UTC),
	}
	if err := h.store.PutPlayer(context.Background(), player); err != nil {
		t.Fatalf("seed player %s: %v", playerID, err)
	}
}

func TestCreateGameRetriesOnCodeCollision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	taken := h.seedGame(t, domain.LobbyPhase(), 0)
	attempts := []string{taken.Code, "BBB-222"}
	h.svc.newGameCode = func() (string, error) {
		code := attempts[0]
		attempts = attempts[1:]
		return code, nil
	}

	game, host, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if game.Code != "BBB-222" {
		t.Fatalf("code = %s, want the retried BBB-222", game.Code)
	}
	if !host.IsHost || host.Role != domain.RoleUnassigned {
		t.Fatalf("host record = %+v, want host with no role", host)
	}
	if game.Phase != domain.LobbyPhase() || game.Status != domain.StatusLobby {
		t.Fatalf("new game phase = %s status = %s, want lobby", game.Phase, game.Status)
	}
}

func TestCreateGameRejectsInvalidHostName(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.svc.CreateGame(context.Background(), "   ")
	wantCode(t, err, apperrors.CodePlayerNameInvalid)
}

func TestJoinGameIsCaseInsensitiveOnCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game, _, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	joined, player, err := h.svc.JoinGame(ctx, "  aaa-001 ", "Bob")
	if err != nil {
		t.Fatalf("join game: %v", err)
	}
	if joined.ID != game.ID {
		t.Fatalf("joined game %s, want %s", joined.ID, game.ID)
	}
	if player.IsHost || !player.Alive || player.Role != domain.RoleUnassigned {
		t.Fatalf("player record = %+v, want living non-host with no role", player)
	}

	roster, err := h.svc.Roster(ctx, game.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 2 || !roster[0].IsHost || roster[1].ID != player.ID {
		t.Fatalf("roster = %+v, want host first then Bob", roster)
	}
}

func TestJoinGameValidations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, _, err := h.svc.JoinGame(ctx, "not a code", "Bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a malformed code, got %v", err)
	}
	if _, _, err := h.svc.JoinGame(ctx, "ZZZ-999", "Bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown code, got %v", err)
	}

	game := h.seedGame(t, domain.NightPhase(1), 1)
	_, _, err := h.svc.JoinGame(ctx, game.Code, "Bob")
	wantCode(t, err, apperrors.CodeGameNotInLobby)
}

func TestLeaveGame(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game, host, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	_, player, err := h.svc.JoinGame(ctx, game.Code, "Bob")
	if err != nil {
		t.Fatalf("join game: %v", err)
	}

	err = h.svc.LeaveGame(ctx, game.ID, host.ID)
	wantCode(t, err, apperrors.CodeHostCannotLeave)

	if err := h.svc.LeaveGame(ctx, game.ID, player.ID); err != nil {
		t.Fatalf("leave game: %v", err)
	}
	roster, err := h.svc.Roster(ctx, game.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster has %d players after leave, want 1", len(roster))
	}
}

func TestLeaveGameOnlyInLobby(t *testing.T) {
	h := newHarness(t)
	game := h.seedGame(t, domain.DayPhase(1), 1)
	h.seedPlayer(t, game.ID, "player-c", "Cal", domain.RoleCitizen, true, 1)

	err := h.svc.LeaveGame(context.Background(), game.ID, "player-c")
	wantCode(t, err, apperrors.CodeGameNotInLobby)
}

func TestStartGameDealsRolesAndOpensNight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game, host, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, name := range []string{"Bob", "Cal", "Dee", "Eve"} {
		if _, _, err := h.svc.JoinGame(ctx, game.Code, name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}

	_, err = h.svc.StartGame(ctx, game.ID, "player-99")
	wantCode(t, err, apperrors.CodeCallerNotHost)

	started, err := h.svc.StartGame(ctx, game.ID, host.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if started.Phase != domain.NightPhase(1) || started.Round != 1 || started.Status != domain.StatusOngoing {
		t.Fatalf("started game = %+v, want ongoing night_1 round 1", started)
	}

	roster, err := h.svc.Roster(ctx, game.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	counts := map[domain.Role]int{}
	for _, p := range roster {
		if p.IsHost {
			if p.Role != domain.RoleUnassigned {
				t.Fatalf("host was dealt role %s", p.Role)
			}
			continue
		}
		if !p.Alive {
			t.Fatalf("player %s not alive after deal", p.ID)
		}
		counts[p.Role]++
	}
	want := map[domain.Role]int{
		domain.RoleMafia:     1,
		domain.RoleDoctor:    1,
		domain.RoleDetective: 1,
		domain.RoleCitizen:   1,
	}
	for role, n := range want {
		if counts[role] != n {
			t.Fatalf("role counts = %v, want %v", counts, want)
		}
	}

	_, err = h.svc.StartGame(ctx, game.ID, host.ID)
	wantCode(t, err, apperrors.CodeRolesAlreadyDealt)
}

func TestStartGameNeedsThreeEligiblePlayers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game, host, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, name := range []string{"Bob", "Cal"} {
		if _, _, err := h.svc.JoinGame(ctx, game.Code, name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}

	_, err = h.svc.StartGame(ctx, game.ID, host.ID)
	wantCode(t, err, apperrors.CodeRosterTooSmall)
}

// seedNightGame builds an ongoing night_1 game with a fixed four-player
// roster: mafia, doctor, detective, citizen.
func seedNightGame(t *testing.T, h *harness) storage.GameRecord {
	t.Helper()
	game := h.seedGame(t, domain.NightPhase(1), 1)
	h.seedPlayer(t, game.ID, "player-m", "Mia", domain.RoleMafia, true, 1)
	h.seedPlayer(t, game.ID, "player-d", "Doc", domain.RoleDoctor, true, 2)
	h.seedPlayer(t, game.ID, "player-i", "Ivy", domain.RoleDetective, true, 3)
	h.seedPlayer(t, game.ID, "player-c", "Cal", domain.RoleCitizen, true, 4)
	return game
}

func TestSubmitActionValidations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	_, err := h.svc.SubmitAction(ctx, game.ID, "player-m", "EAT_BRAINS", "player-c")
	wantCode(t, err, apperrors.CodeActionTypeInvalid)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-c", string(domain.ActionDayVote), "player-m")
	wantCode(t, err, apperrors.CodeActionWrongPhase)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-host", string(domain.ActionMafiaKill), "player-c")
	wantCode(t, err, apperrors.CodeHostCannotAct)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-c", string(domain.ActionMafiaKill), "player-d")
	wantCode(t, err, apperrors.CodeActionRoleMismatch)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-host")
	wantCode(t, err, apperrors.CodeTargetInvalid)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-ghost")
	wantCode(t, err, apperrors.CodeTargetInvalid)

	h.seedPlayer(t, game.ID, "player-z", "Zed", domain.RoleCitizen, false, 5)
	_, err = h.svc.SubmitAction(ctx, game.ID, "player-z", string(domain.ActionDayVote), "player-c")
	wantCode(t, err, apperrors.CodePlayerDead)

	_, err = h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-z")
	wantCode(t, err, apperrors.CodeTargetInvalid)
}

func TestSubmitActionReplacesEarlierTarget(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-c"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-d"); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	actions, err := h.store.ListActionsForRound(ctx, game.ID, 1, domain.ActionPhaseNight, domain.ActionMafiaKill)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("ledger holds %d kill rows, want 1", len(actions))
	}
	if actions[0].TargetPlayerID != "player-d" {
		t.Fatalf("kill target = %s, want the replacement player-d", actions[0].TargetPlayerID)
	}
}

func TestInvestigateReportsMafiaMembership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	isMafia, err := h.svc.Investigate(ctx, game.ID, "player-i", "player-m")
	if err != nil {
		t.Fatalf("investigate mafia: %v", err)
	}
	if !isMafia {
		t.Fatal("expected player-m to read as mafia")
	}

	isMafia, err = h.svc.Investigate(ctx, game.ID, "player-i", "player-c")
	if err != nil {
		t.Fatalf("investigate citizen: %v", err)
	}
	if isMafia {
		t.Fatal("expected player-c to read as not mafia")
	}

	_, err = h.svc.Investigate(ctx, game.ID, "player-c", "player-m")
	wantCode(t, err, apperrors.CodeActionRoleMismatch)
}

func TestRoundStatusTracksOwedActions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	status, err := h.svc.RoundStatus(ctx, game.ID)
	if err != nil {
		t.Fatalf("round status: %v", err)
	}
	if status.AllActed {
		t.Fatal("no one has acted yet")
	}
	acted := map[string]bool{}
	for _, st := range status.Standing {
		acted[st.PlayerID] = st.Acted
	}
	// Citizens owe nothing at night.
	if !acted["player-c"] {
		t.Fatal("citizen should not be waited on at night")
	}
	if acted["player-m"] || acted["player-d"] || acted["player-i"] {
		t.Fatalf("standing = %v, want the three role-holders pending", acted)
	}

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-c"); err != nil {
		t.Fatalf("mafia kill: %v", err)
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-d", string(domain.ActionDoctorProtect), "player-i"); err != nil {
		t.Fatalf("doctor protect: %v", err)
	}
	if _, err := h.svc.Investigate(ctx, game.ID, "player-i", "player-m"); err != nil {
		t.Fatalf("investigate: %v", err)
	}

	status, err = h.svc.RoundStatus(ctx, game.ID)
	if err != nil {
		t.Fatalf("round status: %v", err)
	}
	if !status.AllActed {
		t.Fatalf("standing = %+v, want everyone acted", status.Standing)
	}
}

func TestResolveNightAppliesKillAndAdvances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-c"); err != nil {
		t.Fatalf("mafia kill: %v", err)
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-d", string(domain.ActionDoctorProtect), "player-i"); err != nil {
		t.Fatalf("doctor protect: %v", err)
	}

	_, err := h.svc.ResolveNight(ctx, game.ID, "player-m")
	wantCode(t, err, apperrors.CodeCallerNotHost)

	res, err := h.svc.ResolveNight(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if res.Outcome.VictimID != "player-c" {
		t.Fatalf("victim = %q, want player-c", res.Outcome.VictimID)
	}
	if res.Winner != domain.WinnerNone {
		t.Fatalf("winner = %q, want the game still open", res.Winner)
	}
	if res.Game.Phase != domain.DayPhase(1) || res.Game.Round != 1 {
		t.Fatalf("game = %+v, want day_1 round 1", res.Game)
	}

	victim, err := h.store.GetPlayer(ctx, game.ID, "player-c")
	if err != nil {
		t.Fatalf("get victim: %v", err)
	}
	if victim.Alive {
		t.Fatal("victim still alive after resolution")
	}

	// The night is over; resolving it again is a phase mismatch.
	_, err = h.svc.ResolveNight(ctx, game.ID, "player-host")
	wantCode(t, err, apperrors.CodePhaseMismatch)
}

func TestResolveNightDoctorBlocksKill(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-c"); err != nil {
		t.Fatalf("mafia kill: %v", err)
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-d", string(domain.ActionDoctorProtect), "player-c"); err != nil {
		t.Fatalf("doctor protect: %v", err)
	}

	res, err := h.svc.ResolveNight(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if res.Outcome.VictimID != "" {
		t.Fatalf("victim = %q, want the kill blocked", res.Outcome.VictimID)
	}

	saved, err := h.store.GetPlayer(ctx, game.ID, "player-c")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if !saved.Alive {
		t.Fatal("protected player died")
	}
}

func TestResolveNightNoKillWithoutSubmissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	res, err := h.svc.ResolveNight(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if res.Outcome.VictimID != "" || res.Game.Phase != domain.DayPhase(1) {
		t.Fatalf("resolution = %+v, want a quiet night into day_1", res)
	}
}

func TestResolveNightMafiaParityEndsGame(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Three eligible players. Killing the doctor leaves mafia at parity.
	game := h.seedGame(t, domain.NightPhase(2), 2)
	h.seedPlayer(t, game.ID, "player-m", "Mia", domain.RoleMafia, true, 1)
	h.seedPlayer(t, game.ID, "player-d", "Doc", domain.RoleDoctor, true, 2)
	h.seedPlayer(t, game.ID, "player-c", "Cal", domain.RoleCitizen, true, 3)

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-d"); err != nil {
		t.Fatalf("mafia kill: %v", err)
	}

	res, err := h.svc.ResolveNight(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if res.Winner != domain.WinnerMafia {
		t.Fatalf("winner = %q, want MAFIA at parity", res.Winner)
	}
	if !res.Game.Phase.Terminal() || res.Game.Status != domain.StatusEnded || res.Game.Winner != domain.WinnerMafia {
		t.Fatalf("game = %+v, want ended with mafia winner", res.Game)
	}
}

func TestResolveDayLynchEndsGameForVillagers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game := h.seedGame(t, domain.DayPhase(1), 1)
	h.seedPlayer(t, game.ID, "player-m", "Mia", domain.RoleMafia, true, 1)
	h.seedPlayer(t, game.ID, "player-c1", "Cal", domain.RoleCitizen, true, 2)
	h.seedPlayer(t, game.ID, "player-c2", "Dee", domain.RoleCitizen, true, 3)

	for _, voter := range []string{"player-c1", "player-c2"} {
		if _, err := h.svc.SubmitAction(ctx, game.ID, voter, string(domain.ActionDayVote), "player-m"); err != nil {
			t.Fatalf("vote by %s: %v", voter, err)
		}
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionDayVote), "player-c1"); err != nil {
		t.Fatalf("vote by player-m: %v", err)
	}

	res, err := h.svc.ResolveDay(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve day: %v", err)
	}
	if res.Outcome.LynchedID != "player-m" {
		t.Fatalf("lynched = %q, want player-m", res.Outcome.LynchedID)
	}
	if res.Winner != domain.WinnerVillagers {
		t.Fatalf("winner = %q, want VILLAGERS with no mafia left", res.Winner)
	}
	if !res.Game.Phase.Terminal() || res.Game.Winner != domain.WinnerVillagers {
		t.Fatalf("game = %+v, want ended with villagers winner", res.Game)
	}
}

func TestResolveDayTieLynchesNobody(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game := h.seedGame(t, domain.DayPhase(1), 1)
	h.seedPlayer(t, game.ID, "player-m", "Mia", domain.RoleMafia, true, 1)
	h.seedPlayer(t, game.ID, "player-c1", "Cal", domain.RoleCitizen, true, 2)
	h.seedPlayer(t, game.ID, "player-c2", "Dee", domain.RoleCitizen, true, 3)
	h.seedPlayer(t, game.ID, "player-c3", "Eve", domain.RoleCitizen, true, 4)

	votes := map[string]string{
		"player-m":  "player-c1",
		"player-c1": "player-m",
		"player-c2": "player-m",
		"player-c3": "player-c1",
	}
	for voter, target := range votes {
		if _, err := h.svc.SubmitAction(ctx, game.ID, voter, string(domain.ActionDayVote), target); err != nil {
			t.Fatalf("vote by %s: %v", voter, err)
		}
	}

	res, err := h.svc.ResolveDay(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("resolve day: %v", err)
	}
	if res.Outcome.LynchedID != "" {
		t.Fatalf("lynched = %q, want nobody on a tie", res.Outcome.LynchedID)
	}
	if res.Game.Phase != domain.NightPhase(2) || res.Game.Round != 2 {
		t.Fatalf("game = %+v, want night_2 round 2", res.Game)
	}
}

func TestEndGameAbortsWithoutWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	ended, err := h.svc.EndGame(ctx, game.ID, "player-host")
	if err != nil {
		t.Fatalf("end game: %v", err)
	}
	if !ended.Phase.Terminal() || ended.Status != domain.StatusEnded || ended.Winner != domain.WinnerNone {
		t.Fatalf("game = %+v, want ended with no winner", ended)
	}

	_, err = h.svc.EndGame(ctx, game.ID, "player-host")
	wantCode(t, err, apperrors.CodeGameEnded)
}

func TestDeleteGameIsHostOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	err := h.svc.DeleteGame(ctx, game.ID, "player-m")
	wantCode(t, err, apperrors.CodeCallerNotHost)

	if err := h.svc.DeleteGame(ctx, game.ID, "player-host"); err != nil {
		t.Fatalf("delete game: %v", err)
	}
	if _, err := h.svc.Game(ctx, game.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMutationsNotifySubscribers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	game := seedNightGame(t, h)

	ch, cancel := h.hub.Subscribe(game.ID)
	defer cancel()

	if _, err := h.svc.SubmitAction(ctx, game.ID, "player-m", string(domain.ActionMafiaKill), "player-c"); err != nil {
		t.Fatalf("submit action: %v", err)
	}

	select {
	case change := <-ch:
		if change.Table != watch.TableActions {
			t.Fatalf("change table = %s, want actions", change.Table)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a change notification for the submitted action")
	}
}

// TestFullGameFlow drives a complete game through the public operations
// only: create, join, deal, one night kill, one day lynch, villagers win.
func TestFullGameFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	game, host, err := h.svc.CreateGame(ctx, "Ada")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	for _, name := range []string{"Bob", "Cal", "Dee", "Eve"} {
		if _, _, err := h.svc.JoinGame(ctx, game.Code, name); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	if _, err := h.svc.StartGame(ctx, game.ID, host.ID); err != nil {
		t.Fatalf("start game: %v", err)
	}

	roster, err := h.svc.Roster(ctx, game.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	byRole := map[domain.Role]storage.PlayerRecord{}
	for _, p := range roster {
		if !p.IsHost {
			byRole[p.Role] = p
		}
	}
	mafia := byRole[domain.RoleMafia]
	doctor := byRole[domain.RoleDoctor]
	detective := byRole[domain.RoleDetective]
	citizen := byRole[domain.RoleCitizen]

	// Night 1: the mafia takes the citizen, the doctor guards the
	// detective, the detective finds the mafia.
	if _, err := h.svc.SubmitAction(ctx, game.ID, mafia.ID, string(domain.ActionMafiaKill), citizen.ID); err != nil {
		t.Fatalf("mafia kill: %v", err)
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, doctor.ID, string(domain.ActionDoctorProtect), detective.ID); err != nil {
		t.Fatalf("doctor protect: %v", err)
	}
	isMafia, err := h.svc.Investigate(ctx, game.ID, detective.ID, mafia.ID)
	if err != nil {
		t.Fatalf("investigate: %v", err)
	}
	if !isMafia {
		t.Fatal("detective should identify the mafia")
	}

	night, err := h.svc.ResolveNight(ctx, game.ID, host.ID)
	if err != nil {
		t.Fatalf("resolve night: %v", err)
	}
	if night.Outcome.VictimID != citizen.ID || night.Winner != domain.WinnerNone {
		t.Fatalf("night = %+v, want the citizen dead and the game open", night)
	}

	// Day 1: the survivors vote the mafia out.
	for _, voter := range []string{doctor.ID, detective.ID} {
		if _, err := h.svc.SubmitAction(ctx, game.ID, voter, string(domain.ActionDayVote), mafia.ID); err != nil {
			t.Fatalf("vote by %s: %v", voter, err)
		}
	}
	if _, err := h.svc.SubmitAction(ctx, game.ID, mafia.ID, string(domain.ActionDayVote), doctor.ID); err != nil {
		t.Fatalf("mafia vote: %v", err)
	}

	day, err := h.svc.ResolveDay(ctx, game.ID, host.ID)
	if err != nil {
		t.Fatalf("resolve day: %v", err)
	}
	if day.Outcome.LynchedID != mafia.ID {
		t.Fatalf("lynched = %q, want the mafia", day.Outcome.LynchedID)
	}
	if day.Winner != domain.WinnerVillagers {
		t.Fatalf("winner = %q, want VILLAGERS", day.Winner)
	}
	if !day.Game.Phase.Terminal() || day.Game.Winner != domain.WinnerVillagers {
		t.Fatalf("final game = %+v, want ended with villagers winner", day.Game)
	}
}
