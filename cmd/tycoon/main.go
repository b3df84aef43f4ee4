// Package main is the entry point for the tycoon simulation server.
// It only handles dependency injection and command wiring.
// NO business logic belongs here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idleworks/tycoon/internal/config"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tycoon",
	Short: "Business income simulation server",
	Long: `tycoon runs a deterministic, tick-driven business income simulation.
Businesses pay out on a repeating cooldown, scaled by level and upgrades.
State is saved to a local SQLite database and served over HTTP and WebSocket.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to tycoon.yaml (default: search ., config/, configs/)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and builds the logger it describes.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
