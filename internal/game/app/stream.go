package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lupusgssi/lupus/internal/game/watch"
	"github.com/lupusgssi/lupus/internal/platform/timeouts"
)

// handleEvents streams change notifications for one game as server-sent
// events. Each event names the table that changed; clients respond by
// re-fetching the game and roster rather than merging deltas.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if _, err := h.svc.Game(r.Context(), gameID); err != nil {
		writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := h.hub.Subscribe(gameID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Prompt an initial fetch so a late subscriber catches up on
	// anything it missed before connecting.
	fmt.Fprintf(w, "event: change\ndata: %s\n\n", watch.TableGames)
	flusher.Flush()

	heartbeat := time.NewTicker(timeouts.SSEHeartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case change, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", change.Table)
			flusher.Flush()
		}
	}
}
