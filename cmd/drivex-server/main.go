package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"drivex/internal/config"
	"drivex/internal/engine"
	"drivex/internal/logger"
	"drivex/internal/server"
)

func main() {
	logger.Init()
	if err := run(); err != nil {
		logger.Log.WithError(err).Error("drivex server stopped")
		os.Exit(1)
	}
}

func run() error {
	port := os.Getenv("DRIVEX_PORT")
	if port == "" {
		port = "8080"
	}

	fs := flag.NewFlagSet("drivex-server", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", ":"+port, "listen address")
	configPath := fs.String("config", "", "YAML file with training parameters and map layout")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	settings := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		settings = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := engine.NewSession(settings.Config, settings.World)
	hub := server.NewHub(session)
	go hub.Run(ctx)

	if err := server.New(hub, *addr).Run(ctx); err != nil {
		return fmt.Errorf("serve %s: %w", *addr, err)
	}
	return nil
}
