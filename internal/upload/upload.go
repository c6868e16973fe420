// Package upload replays recorded pose captures against a Kinetic server.
//
// A capture directory holds one subdirectory per exercise id, each containing
// JSON-lines files of pose frames:
//
//	captures/
//	  squat/2026-03-01-morning.jsonl
//	  shoulder_flexion/left.jsonl
package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/claude/kinetic/internal/ingest"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/tracker"
)

// MaxFrameBytes bounds one JSON line; a full-body frame is a few KB.
const MaxFrameBytes = 1 << 20

// ErrStop is returned by a ScanFrames callback to end the scan early.
var ErrStop = errors.New("stop scanning")

// ScanFrames decodes JSON-lines pose readings from r and calls fn for each.
// Each line may be in any format ingest.Decode detects. Blank lines are
// ignored and malformed lines are counted and skipped.
// fn returning ErrStop ends the scan without error.
func ScanFrames(r io.Reader, fn func(models.PoseFrame) error) (malformed int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxFrameBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		frame, err := ingest.Decode("", line)
		if err != nil {
			malformed++
			continue
		}
		if err := fn(frame); err != nil {
			if errors.Is(err, ErrStop) {
				return malformed, nil
			}
			return malformed, err
		}
	}
	return malformed, sc.Err()
}

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	FramesSent      int
	FramesMalformed int
	Repetitions     int
	Achievements    []string
}

// Uploader walks a capture directory and replays each new capture as one
// session on the server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dir:    dir,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads every capture not yet recorded in the state database.
// A failing capture is counted and logged; the walk continues.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		exerciseID := entry.Name()

		files, err := filepath.Glob(filepath.Join(u.dir, exerciseID, "*.jsonl"))
		if err != nil {
			return &u.stats, err
		}
		sort.Strings(files)

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return &u.stats, err
			}
			if err := u.processCapture(ctx, exerciseID, f); err != nil {
				u.stats.FilesErrored++
				u.log.Error("capture failed", "file", f, "error", err)
			}
		}
	}

	return &u.stats, nil
}

func (u *Uploader) processCapture(ctx context.Context, exerciseID, path string) error {
	u.stats.FilesTotal++

	relPath, _ := filepath.Rel(u.dir, path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	prev, err := u.state.SessionFor(relPath, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("checking state: %w", err)
	}
	if prev != "" {
		u.stats.FilesSkipped++
		u.log.Debug("skipping uploaded capture", "file", relPath, "session", prev)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if u.dryRun {
		frames := 0
		malformed, err := ScanFrames(f, func(models.PoseFrame) error {
			frames++
			return nil
		})
		if err != nil {
			return err
		}
		u.stats.FramesMalformed += malformed
		u.log.Info("dry run", "file", relPath, "exercise", exerciseID, "frames", frames, "malformed", malformed)
		return nil
	}

	started, err := u.client.StartSession(ctx, exerciseID, 0)
	if err != nil {
		return err
	}
	id := started.Session.ID

	sent := 0
	malformed, err := ScanFrames(f, func(frame models.PoseFrame) error {
		res, err := u.client.SendFrame(ctx, id, frame)
		if err != nil {
			return err
		}
		sent++
		if res.State == tracker.Completed {
			return ErrStop
		}
		return nil
	})
	u.stats.FramesSent += sent
	u.stats.FramesMalformed += malformed
	if err != nil {
		return u.abort(ctx, id, relPath, info.Size(), hash, sent, err)
	}

	fin, err := u.client.EndSession(ctx, id, "uploaded from "+relPath)
	if err != nil {
		return err
	}
	u.stats.FilesUploaded++
	u.stats.Repetitions += fin.Session.Repetitions
	for _, a := range fin.Achievements {
		u.stats.Achievements = append(u.stats.Achievements, a.Title)
	}

	if err := u.state.MarkUploaded(relPath, info.Size(), hash, id); err != nil {
		return fmt.Errorf("recording state: %w", err)
	}
	u.log.Info("capture uploaded", "file", relPath, "session", id, "frames", sent,
		"repetitions", fin.Session.Repetitions, "average_score", fin.Session.AverageScore)
	return nil
}

// abort ends a session whose frames failed part way and records the capture,
// so a capture never yields more than one recorded session. When the end
// request fails too the capture stays unrecorded.
func (u *Uploader) abort(ctx context.Context, id, relPath string, size int64, hash string, sent int, cause error) error {
	cause = fmt.Errorf("session %s after %d frames: %w", id, sent, cause)
	if _, err := u.client.EndSession(ctx, id, fmt.Sprintf("upload aborted after %d frames from %s", sent, relPath)); err != nil {
		return errors.Join(cause, fmt.Errorf("ending partial session: %w", err))
	}
	if err := u.state.MarkUploaded(relPath, size, hash, id); err != nil {
		return errors.Join(cause, fmt.Errorf("recording state: %w", err))
	}
	u.log.Warn("capture aborted, partial session ended", "file", relPath, "session", id, "frames", sent)
	return cause
}
