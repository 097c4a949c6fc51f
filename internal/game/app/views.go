package app

import (
	"time"

	"github.com/lupusgssi/lupus/internal/game/service"
	"github.com/lupusgssi/lupus/internal/game/storage"
)

// gameView is the JSON shape of a game.
type gameView struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	HostPlayerID string    `json:"host_player_id"`
	HostName     string    `json:"host_name"`
	Status       string    `json:"status"`
	Phase        string    `json:"phase"`
	Round        int       `json:"round"`
	Winner       string    `json:"winner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toGameView(game storage.GameRecord) gameView {
	return gameView{
		ID:           game.ID,
		Code:         game.Code,
		HostPlayerID: game.HostPlayerID,
		HostName:     game.HostName,
		Status:       string(game.Status),
		Phase:        game.Phase.String(),
		Round:        game.Round,
		Winner:       string(game.Winner),
		CreatedAt:    game.CreatedAt,
		UpdatedAt:    game.UpdatedAt,
	}
}

// playerView is the JSON shape of a roster entry. Role is only filled
// for the player's own record or once the game has ended.
type playerView struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"is_host"`
	Role     string    `json:"role,omitempty"`
	Alive    bool      `json:"alive"`
	JoinedAt time.Time `json:"joined_at"`
}

func toPlayerView(player storage.PlayerRecord, revealRole bool) playerView {
	view := playerView{
		ID:       player.ID,
		Name:     player.Name,
		IsHost:   player.IsHost,
		Alive:    player.Alive,
		JoinedAt: player.JoinedAt,
	}
	if revealRole {
		view.Role = string(player.Role)
	}
	return view
}

// standingView is the JSON shape of one round-status entry.
type standingView struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Acted    bool   `json:"acted"`
}

// roundStatusView is the JSON shape of the round progress report.
type roundStatusView struct {
	Game     gameView       `json:"game"`
	Standing []standingView `json:"standing"`
	AllActed bool           `json:"all_acted"`
}

func toRoundStatusView(status service.RoundStatus) roundStatusView {
	view := roundStatusView{
		Game:     toGameView(status.Game),
		Standing: make([]standingView, 0, len(status.Standing)),
		AllActed: status.AllActed,
	}
	for _, st := range status.Standing {
		view.Standing = append(view.Standing, standingView{
			PlayerID: st.PlayerID,
			Name:     st.Name,
			Acted:    st.Acted,
		})
	}
	return view
}

// resolutionView is the JSON shape of a committed night or day
// resolution. VictimID carries the night kill or the day lynch.
type resolutionView struct {
	Game     gameView `json:"game"`
	VictimID string   `json:"victim_id,omitempty"`
	Winner   string   `json:"winner,omitempty"`
}
