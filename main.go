package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/gabriel-milan/card-game-server/admin"
	"github.com/gabriel-milan/card-game-server/control"
	"github.com/gabriel-milan/card-game-server/protocol"
	"github.com/gabriel-milan/card-game-server/registry"
	"github.com/gabriel-milan/card-game-server/relay"
)

type config struct {
	ControlPort     int           `env:"CONTROL_PORT" envDefault:"1234"`
	RelayPort       int           `env:"RELAY_PORT" envDefault:"1234"`
	AdminPort       int           `env:"ADMIN_PORT" envDefault:"8080"`
	RoomCapacity    int           `env:"ROOM_CAPACITY" envDefault:"2"`
	ReclaimInterval time.Duration `env:"RECLAIM_INTERVAL" envDefault:"1m"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	if cfg.RoomCapacity < 1 {
		slog.Error("room capacity must be at least 1", "capacity", cfg.RoomCapacity)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	feed := admin.NewFeed()
	reg := registry.New(cfg.RoomCapacity, relay.UDPSender{}, feed)

	ctrl := control.New(protocol.NewControlHandler(reg))
	if err := ctrl.Start(":" + strconv.Itoa(cfg.ControlPort)); err != nil {
		slog.Error("control listener error", "error", err)
		os.Exit(1)
	}

	rly := relay.New(protocol.NewRelayHandler(reg))
	if err := rly.Start(":" + strconv.Itoa(cfg.RelayPort)); err != nil {
		slog.Error("relay listener error", "error", err)
		os.Exit(1)
	}

	adminSrv := admin.NewServer(":"+strconv.Itoa(cfg.AdminPort), reg, feed)
	adminSrv.Start()

	stopReclaim := make(chan struct{})
	go reclaimLoop(reg, cfg.ReclaimInterval, stopReclaim)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	close(stopReclaim)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ctrl.Stop(ctx); err != nil {
		slog.Error("control shutdown error", "error", err)
	}
	if err := rly.Stop(ctx); err != nil {
		slog.Error("relay shutdown error", "error", err)
	}
	if err := adminSrv.Shutdown(ctx); err != nil {
		slog.Error("admin shutdown error", "error", err)
	}
}

// reclaimLoop periodically removes empty rooms until stop is closed.
func reclaimLoop(reg *registry.Registry, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reg.ReclaimEmptyRooms()
		case <-stop:
			return
		}
	}
}

func setupLogger(logLevel string) {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
