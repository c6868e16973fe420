package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/coach"
	"github.com/claude/kinetic/internal/config"
	"github.com/claude/kinetic/internal/evaluator"
	kmcp "github.com/claude/kinetic/internal/mcp"
	"github.com/claude/kinetic/internal/progress"
	"github.com/claude/kinetic/internal/server"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "prepare the storage schema and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Kinetic starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open storage (runs migrations for postgres)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}
	log.Info("exercise catalog loaded", "exercises", cat.Len(), "version", cat.Version)

	loc, err := cfg.Progress.Location()
	if err != nil {
		log.Error("invalid progress timezone", "error", err)
		os.Exit(1)
	}

	// Wire the engine
	agg := progress.New(store, loc, cfg.Progress.HistoryLimit, log)
	rec := session.New(agg, cfg.Session.FeedbackLogLimit, log)
	svc := coach.New(cat, evaluator.New(), rec, agg, cfg.Session.DefaultTargetRepetitions, log)

	if cfg.Session.IdleTimeout > 0 {
		go svc.RunReaper(ctx, cfg.Session.ReapInterval, cfg.Session.IdleTimeout)
	}

	srv := server.New(svc, cfg.Auth.APIKey, log)

	// MCP over streamable HTTP, scoped to the identity resolved by the router
	mcpSrv := kmcp.New(kmcp.NewLocal(cat, agg), Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return kmcp.WithUserID(ctx, server.UserFromContext(r.Context()).Login)
		}),
	))

	// Start server on tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = tsServer.Close() }()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	// Sessions still open at shutdown are ended and recorded.
	if n := svc.ReapStale(shutdownCtx, 0); n > 0 {
		log.Info("ended active sessions", "count", n)
	}
	log.Info("server stopped")
}
