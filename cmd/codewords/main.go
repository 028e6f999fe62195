package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/codewords/internal/client"
	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/store"
	"github.com/lox/codewords/internal/tui"
)

var CLI struct {
	Code     string `arg:"" optional:"" help:"Game code to join; omit to host a new game"`
	Config   string `short:"c" default:"codewords.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Sync server URL (overrides config)"`
	Name     string `short:"n" help:"Display name (overrides config)"`
	Role     string `short:"r" default:"spectator" help:"Initial role (red-spymaster, red-operative, blue-spymaster, blue-operative, spectator)"`
	Local    bool   `help:"Play without a sync server"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := client.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Server != "" {
		cfg.Server.URL = CLI.Server
	}
	if CLI.Name != "" {
		cfg.Player.Name = CLI.Name
	}
	if CLI.LogLevel != "" {
		cfg.UI.LogLevel = CLI.LogLevel
	}
	if CLI.LogFile != "" {
		cfg.UI.LogFile = CLI.LogFile
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	role, err := game.ParseRole(CLI.Role)
	if err != nil {
		fmt.Printf("Invalid role: %v\n", err)
		kctx.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.New(logFile)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting Codewords",
		"server", cfg.Server.URL,
		"local", CLI.Local,
		"config", CLI.Config)

	cache, err := store.NewSQLiteCache(cfg.UI.CachePath, logger)
	if err != nil {
		fmt.Printf("Failed to open cache: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A dead server is not fatal: play continues locally and moves are
	// backed up to the cache until it comes back.
	var remote store.RecordStore
	if !CLI.Local {
		ws := store.NewWSStore(cfg.Server.URL, cfg.RequestTimeout(), logger)
		connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.ConnectTimeout())
		err := ws.Connect(connectCtx)
		cancelConnect()
		if err != nil {
			logger.Warn("sync server unreachable, starting in local mode", "error", err)
			fmt.Printf("Warning: could not reach %s, playing offline\n", cfg.Server.URL)
		} else {
			remote = ws
			defer func() { _ = ws.Close() }()
		}
	}

	c := client.New(client.Options{
		Remote: remote,
		Cache:  cache,
		Sync:   cfg.SyncConfig(),
		Logger: logger,
	})
	if cfg.Player.Name != "" {
		c.Identity().SetName(cfg.Player.Name)
	}

	var code string
	if CLI.Code != "" {
		code = CLI.Code
		if err := c.Join(ctx, code, role); err != nil {
			fmt.Printf("Failed to join game: %v\n", err)
			kctx.Exit(1)
		}
	} else {
		code, err = c.Host(ctx, role)
		if err != nil {
			fmt.Printf("Failed to host game: %v\n", err)
			kctx.Exit(1)
		}
		fmt.Printf("Hosting game %s\n", code)
	}

	go func() {
		if err := c.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("sync loop ended", "error", err)
		}
	}()

	model := tui.NewModel(c, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		kctx.Exit(1)
	}
}
