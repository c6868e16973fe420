package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/coach"
	"github.com/claude/kinetic/internal/config"
	"github.com/claude/kinetic/internal/evaluator"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
	"github.com/claude/kinetic/internal/session"
	"github.com/claude/kinetic/internal/storage"
	"github.com/claude/kinetic/internal/tracker"
	"github.com/claude/kinetic/internal/upload"
)

func main() {
	exerciseID := flag.String("exercise", "", "exercise id to replay (required)")
	inputPath := flag.String("input", "-", "JSON-lines file of pose frames, - for stdin")
	configPath := flag.String("config", "", "config file; sessions are kept in memory when empty")
	user := flag.String("user", "replay", "user id to record the session under")
	target := flag.Int("target", 0, "target repetitions (0 uses the configured default)")
	verbose := flag.Bool("v", false, "print every frame result")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exerciseID == "" {
		fmt.Fprintf(os.Stderr, "Usage: kinetic-replay -exercise squat [-input frames.jsonl] [-config config.yaml] [-v]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var in io.Reader = os.Stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Error("failed to open input", "path", *inputPath, "error", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Storage.Driver = config.DriverMemory
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
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

	agg := progress.New(store, loc, cfg.Progress.HistoryLimit, log)
	rec := session.New(agg, cfg.Session.FeedbackLogLimit, log)
	svc := coach.New(cat, evaluator.New(), rec, agg, cfg.Session.DefaultTargetRepetitions, log)

	// Session times follow the recording: the session starts at the first
	// frame and ends at the last one.
	clock := &frameClock{}
	svc.SetClock(clock.now)

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	var id string
	begin := func() error {
		started, err := svc.Begin(ctx, *user, *exerciseID, *target)
		if err != nil {
			return fmt.Errorf("starting session: %w", err)
		}
		id = started.Session.ID
		log.Info("replaying", "exercise", started.Exercise.Name, "session", id, "target", started.Step.TargetRepetitions)
		return nil
	}

	frames := 0
	t0 := time.Now()

	malformed, err := upload.ScanFrames(in, func(frame models.PoseFrame) error {
		clock.advance(frame.Timestamp)
		if id == "" {
			if err := begin(); err != nil {
				return err
			}
		}
		frames++
		res, err := svc.Frame(ctx, *user, id, frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frames, err)
		}
		if *verbose {
			_ = out.Encode(res)
		}
		if res.RepetitionCompleted {
			log.Info("repetition completed", "frame", frames, "repetitions", res.Repetitions)
		}
		if res.State == tracker.Completed {
			log.Info("target reached", "frame", frames)
			return upload.ErrStop
		}
		return nil
	})
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}
	if id == "" {
		clock.advance(time.Now())
		if err := begin(); err != nil {
			log.Error("replay failed", "error", err)
			os.Exit(1)
		}
	}

	fin, err := svc.Finish(ctx, *user, id, fmt.Sprintf("replayed %d frames", frames))
	if err != nil {
		log.Error("failed to finish session", "error", err)
		os.Exit(1)
	}
	log.Info("replay done",
		"frames", frames,
		"malformed", malformed,
		"repetitions", fin.Session.Repetitions,
		"average_score", fin.Session.AverageScore,
		"session_duration_sec", fin.Session.DurationSec,
		"elapsed", time.Since(t0).Round(time.Millisecond),
	)

	if err := out.Encode(fin); err != nil {
		log.Error("failed to write result", "error", err)
		os.Exit(1)
	}
}

// frameClock reports the latest frame timestamp seen. It never moves backwards.
type frameClock struct {
	t time.Time
}

func (c *frameClock) advance(ts time.Time) {
	if ts.After(c.t) {
		c.t = ts
	}
}

func (c *frameClock) now() time.Time { return c.t }
