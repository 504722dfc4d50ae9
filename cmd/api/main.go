package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/relief/internal/adapters/http"
	"github.com/samirrijal/relief/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, "relief-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		return 1
	}
	defer a.Close()
	cfg := a.Config

	deps := &http.Dependencies{
		Analyses: a.Analyses,
		Profiles: a.Profiles,
		Regions:  a.Regions,
		DB:       a.DB,
		NameKey:  cfg.Regions.NameKey,
		GroupKey: cfg.Regions.GroupKey,
		Language: cfg.Report.Language,
		Points:   cfg.Elevation.ProfilePoints,
	}
	if a.Publisher != nil {
		deps.NATS = a.Publisher.Conn()
	}

	srv := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Relief API",
	})
	srv.Use(recover.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(srv, deps)

	// Graceful shutdown
	listenErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "regions", cfg.Regions.Backend)
		listenErr <- srv.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	case err := <-listenErr:
		slog.Error("listen failed", "error", err)
		return 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
	return 0
}
