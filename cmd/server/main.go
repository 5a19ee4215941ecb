package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/ghomren619/talk-caves/internal/app"
	chat "github.com/ghomren619/talk-caves/internal/chat"
	httpx "github.com/ghomren619/talk-caves/internal/http"
	room "github.com/ghomren619/talk-caves/internal/room"
	ws "github.com/ghomren619/talk-caves/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional redis bus for cross-instance room fanout
	var bus *ws.RedisBus
	if cfg.RedisAddr != "" {
		b, err := ws.NewRedisBus(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer b.Close()
		bus = b
	}

	// Room state + WebSocket hub + event router. The store lives for the
	// whole process; everything is gone on restart.
	store := room.NewStore()
	hub := ws.NewHub(logger, bus)
	router := chat.NewRouter(store, hub, logger)
	hub.SetRouter(router)
	go hub.Run(ctx)

	// HTTP + WS routes
	handler := httpx.NewRouter(cfg, logger, hub, store)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
