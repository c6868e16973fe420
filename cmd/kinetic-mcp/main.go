package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/config"
	kmcp "github.com/claude/kinetic/internal/mcp"
	"github.com/claude/kinetic/internal/progress"
	"github.com/claude/kinetic/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "Kinetic base URL for remote mode (e.g. http://kinetic.tailnet.ts.net)")
	configPath := flag.String("config", "", "path to config file for local mode")
	user := flag.String("user", "", "user id to query as (remote servers on a tailnet use the peer identity instead)")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*serverURL == "") == (*configPath == "") {
		fmt.Fprintf(os.Stderr, "Usage: kinetic-mcp (-server URL | -config config.yaml) [-user id]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var ds kmcp.DataSource
	if *serverURL != "" {
		ds = kmcp.NewHTTPClient(*serverURL)
		log.Info("remote mode", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		store, err := storage.Open(ctx, cfg, log)
		if err != nil {
			log.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to load exercise catalog", "error", err)
			os.Exit(1)
		}
		loc, err := cfg.Progress.Location()
		if err != nil {
			log.Error("invalid progress timezone", "error", err)
			os.Exit(1)
		}
		ds = kmcp.NewLocal(cat, progress.New(store, loc, cfg.Progress.HistoryLimit, log))
		log.Info("local mode", "driver", cfg.Storage.Driver)
	}

	s := kmcp.New(ds, Version, log)
	err := mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return kmcp.WithUserID(ctx, *user)
	}))
	if err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
