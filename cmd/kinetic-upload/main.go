package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/kinetic/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "Kinetic server URL (e.g. https://kinetic.tail1234.ts.net)")
	capturePath := flag.String("path", "", "capture directory with one subdirectory per exercise id")
	apiKey := flag.String("api-key", os.Getenv("KINETIC_API_KEY"), "API key for session endpoints (default $KINETIC_API_KEY)")
	user := flag.String("user", "", "user id for servers without tailnet identity")
	dryRun := flag.Bool("dry-run", false, "parse captures but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("kinetic-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *capturePath == "" {
		fmt.Fprintf(os.Stderr, "Usage: kinetic-upload -server <URL> -path <capture dir> [-api-key KEY] [-user ID] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*capturePath)
	if err != nil || !info.IsDir() {
		log.Error("capture directory not found", "path", *capturePath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".kinetic-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = state.Close() }()

	// Create client (nil in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey, *user)
	} else {
		log.Info("DRY RUN mode: captures will be parsed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := upload.New(client, state, *capturePath, *dryRun, log).Run(ctx)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Captures total:    %d\n", stats.FilesTotal)
	fmt.Printf("  Captures uploaded: %d\n", stats.FilesUploaded)
	fmt.Printf("  Captures skipped:  %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Captures errored:  %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Frames sent:       %d\n", stats.FramesSent)
	fmt.Printf("  Frames malformed:  %d\n", stats.FramesMalformed)
	fmt.Printf("  Repetitions:       %d\n", stats.Repetitions)

	if len(stats.Achievements) > 0 {
		fmt.Printf("\n  Achievements unlocked:\n")
		for _, a := range stats.Achievements {
			fmt.Printf("    - %s\n", a)
		}
	}
	fmt.Println()
}
