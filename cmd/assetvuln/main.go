package main

import (
	"log/slog"
	"os"

	"github.com/lcalzada-xor/assetvuln/cmd/assetvuln/commands"
	"github.com/lcalzada-xor/assetvuln/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := commands.NewRootCommand(cfg).Execute(); err != nil {
		slog.Error("Error executing command", "error", err)
		os.Exit(1)
	}
}
