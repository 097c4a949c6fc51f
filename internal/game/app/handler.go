package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/lupusgssi/lupus/internal/game/service"
	"github.com/lupusgssi/lupus/internal/game/watch"
	apperrors "github.com/lupusgssi/lupus/internal/platform/errors"
)

// maxRequestBody caps JSON request bodies. The API only carries names
// and identifiers, so anything larger is malformed.
const maxRequestBody = 4 << 10

// Handler serves the game JSON API.
type Handler struct {
	svc *service.GameService
	hub *watch.Hub
}

// NewHandler builds the route mux for the game API.
func NewHandler(svc *service.GameService, hub *watch.Hub) http.Handler {
	h := &Handler{svc: svc, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("POST /api/games", h.handleCreateGame)
	mux.HandleFunc("GET /api/games/code/{code}", h.handleGameByCode)
	mux.HandleFunc("POST /api/games/code/{code}/join", h.handleJoinGame)
	mux.HandleFunc("GET /api/games/{id}", h.handleGame)
	mux.HandleFunc("DELETE /api/games/{id}", h.handleDeleteGame)
	mux.HandleFunc("GET /api/games/{id}/players", h.handleRoster)
	mux.HandleFunc("GET /api/games/{id}/players/{playerID}", h.handlePlayer)
	mux.HandleFunc("POST /api/games/{id}/leave", h.handleLeaveGame)
	mux.HandleFunc("POST /api/games/{id}/start", h.handleStartGame)
	mux.HandleFunc("POST /api/games/{id}/actions", h.handleSubmitAction)
	mux.HandleFunc("POST /api/games/{id}/investigate", h.handleInvestigate)
	mux.HandleFunc("GET /api/games/{id}/round", h.handleRoundStatus)
	mux.HandleFunc("POST /api/games/{id}/resolve/night", h.handleResolveNight)
	mux.HandleFunc("POST /api/games/{id}/resolve/day", h.handleResolveDay)
	mux.HandleFunc("POST /api/games/{id}/end", h.handleEndGame)
	mux.HandleFunc("GET /api/games/{id}/events", h.handleEvents)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createGameRequest struct {
	HostName string `json:"host_name"`
}

type gameWithPlayerResponse struct {
	Game   gameView   `json:"game"`
	Player playerView `json:"player"`
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	game, host, err := h.svc.CreateGame(r.Context(), req.HostName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameWithPlayerResponse{
		Game:   toGameView(game),
		Player: toPlayerView(host, true),
	})
}

func (h *Handler) handleGameByCode(w http.ResponseWriter, r *http.Request) {
	game, err := h.svc.GameByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameView(game))
}

type joinGameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	game, player, err := h.svc.JoinGame(r.Context(), r.PathValue("code"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameWithPlayerResponse{
		Game:   toGameView(game),
		Player: toPlayerView(player, true),
	})
}

func (h *Handler) handleGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.svc.Game(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameView(game))
}

func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.svc.Game(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	roster, err := h.svc.Roster(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Roles stay hidden from the shared roster until the game ends.
	reveal := game.Phase.Terminal()
	views := make([]playerView, 0, len(roster))
	for _, player := range roster {
		views = append(views, toPlayerView(player, reveal))
	}
	writeJSON(w, http.StatusOK, views)
}

// handlePlayer returns one player's own record, role included. Clients
// use it to show a player their dealt role.
func (h *Handler) handlePlayer(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.Roster(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	playerID := r.PathValue("playerID")
	for _, player := range roster {
		if player.ID == playerID {
			writeJSON(w, http.StatusOK, toPlayerView(player, true))
			return
		}
	}
	writeError(w, apperrors.New(apperrors.CodeNotFound, "player not found"))
}

type leaveGameRequest struct {
	PlayerID string `json:"player_id"`
}

func (h *Handler) handleLeaveGame(w http.ResponseWriter, r *http.Request) {
	var req leaveGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.LeaveGame(r.Context(), r.PathValue("id"), req.PlayerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerRequest identifies the caller of a host-only operation.
type callerRequest struct {
	CallerID string `json:"caller_id"`
}

func (h *Handler) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	game, err := h.svc.StartGame(r.Context(), r.PathValue("id"), req.CallerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameView(game))
}

type submitActionRequest struct {
	PlayerID   string `json:"player_id"`
	ActionType string `json:"action_type"`
	TargetID   string `json:"target_id"`
}

type submitActionResponse struct {
	ActionID    string `json:"action_id"`
	Round       int    `json:"round"`
	ActionType  string `json:"action_type"`
	TargetID    string `json:"target_id"`
	SubmittedAt string `json:"submitted_at"`
}

func (h *Handler) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	var req submitActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, err := h.svc.SubmitAction(r.Context(), r.PathValue("id"), req.PlayerID, req.ActionType, req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitActionResponse{
		ActionID:    action.ID,
		Round:       action.Round,
		ActionType:  string(action.Type),
		TargetID:    action.TargetPlayerID,
		SubmittedAt: action.SubmittedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

type investigateRequest struct {
	PlayerID string `json:"player_id"`
	TargetID string `json:"target_id"`
}

type investigateResponse struct {
	IsMafia bool `json:"is_mafia"`
}

func (h *Handler) handleInvestigate(w http.ResponseWriter, r *http.Request) {
	var req investigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	isMafia, err := h.svc.Investigate(r.Context(), r.PathValue("id"), req.PlayerID, req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, investigateResponse{IsMafia: isMafia})
}

func (h *Handler) handleRoundStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.RoundStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoundStatusView(status))
}

func (h *Handler) handleResolveNight(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.ResolveNight(r.Context(), r.PathValue("id"), req.CallerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionView{
		Game:     toGameView(res.Game),
		VictimID: res.Outcome.VictimID,
		Winner:   string(res.Winner),
	})
}

func (h *Handler) handleResolveDay(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.ResolveDay(r.Context(), r.PathValue("id"), req.CallerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionView{
		Game:     toGameView(res.Game),
		VictimID: res.Outcome.LynchedID,
		Winner:   string(res.Winner),
	})
}

func (h *Handler) handleEndGame(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	game, err := h.svc.EndGame(r.Context(), r.PathValue("id"), req.CallerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGameView(game))
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	// The caller travels in the query string because DELETE bodies are
	// not reliably forwarded by proxies.
	callerID := r.URL.Query().Get("caller_id")
	if err := h.svc.DeleteGame(r.Context(), r.PathValue("id"), callerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := decoder.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestInvalid, fmt.Sprintf("decode request body: %v", err), err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps coded errors onto HTTP statuses through the shared
// gRPC code mapping, so both surfaces agree on error classes.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    string(apperrors.CodeUnknown),
			Message: "internal error",
		})
		return
	}
	writeJSON(w, httpStatus(appErr.Code.GRPCCode()), errorBody{
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition, codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
