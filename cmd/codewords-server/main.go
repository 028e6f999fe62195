package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/codewords/internal/syncserver"
)

var CLI struct {
	Addr     string `short:"a" default:":8080" help:"Address to bind to"`
	LogLevel string `short:"l" default:"info" help:"Log level (debug, info, warn, error)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		fmt.Printf("Invalid log level: %s\n", CLI.LogLevel)
		kctx.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := syncserver.NewServer(CLI.Addr, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("server exited", "error", err)
		kctx.Exit(1)
	}
}
