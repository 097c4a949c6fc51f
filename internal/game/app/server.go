// Package app hosts the HTTP API for the game coordinator: a JSON
// surface over the service operations plus a per-game server-sent event
// stream that tells clients when to re-fetch.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lupusgssi/lupus/internal/game/service"
	"github.com/lupusgssi/lupus/internal/game/storage/sqlite"
	"github.com/lupusgssi/lupus/internal/game/watch"
	"github.com/lupusgssi/lupus/internal/platform/config"
	"github.com/lupusgssi/lupus/internal/platform/timeouts"
)

// Server hosts the game HTTP API.
type Server struct {
	store      *sqlite.Store
	hub        *watch.Hub
	httpServer *http.Server
}

// serverEnv captures startup defaults for the game process.
type serverEnv struct {
	DBPath string `env:"LUPUS_GAME_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "game.db")
	}
	return cfg
}

// New creates a configured game server listening on addr.
func New(addr string) (*Server, error) {
	env := loadServerEnv()
	store, err := openGameStore(env.DBPath)
	if err != nil {
		return nil, err
	}

	hub := watch.NewHub()
	svc := service.NewGameService(store, hub)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(NewHandler(svc, hub), "lupus-game-http"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{store: store, hub: hub, httpServer: httpServer}, nil
}

// Run starts the game API on the given port and blocks until the
// context ends.
func Run(ctx context.Context, port int) error {
	return RunWithAddr(ctx, fmt.Sprintf(":%d", port))
}

// RunWithAddr starts the game API on the given listen address and
// blocks until the context ends.
func RunWithAddr(ctx context.Context, addr string) error {
	server, err := New(addr)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx)
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("game server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err := s.store.Close(); err != nil {
			log.Printf("close game store: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	log.Printf("game api listening on %s", s.httpServer.Addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func openGameStore(path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}
