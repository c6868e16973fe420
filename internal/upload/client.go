package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/tracker"
)

// Started mirrors the server's session start response without importing the
// coach package (which would pull in the storage drivers).
type Started struct {
	Session models.ExerciseSession `json:"session"`
	Step    tracker.Step           `json:"step"`
}

// FrameResult mirrors the server's per-frame response.
type FrameResult struct {
	tracker.Step
	Cue string `json:"cue,omitempty"`
}

// Finished mirrors the server's session end response.
type Finished struct {
	Session      models.ExerciseSession `json:"session"`
	Achievements []models.Achievement   `json:"achievements"`
}

// Client drives coaching sessions on a Kinetic server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	userID     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the Kinetic server. userID is sent as
// X-User-ID and only takes effect on servers without tailnet identity.
func NewClient(serverURL, apiKey, userID string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		userID:    userID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// StatusError is a non-success HTTP response from the server.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed (status %d): %s", e.Path, e.Code, e.Body)
}

// retryable reports whether a request may be repeated: transport failures and 5xx.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return true
}

// postWithRetry retries up to 3 times with exponential backoff. Only used for
// requests the server treats idempotently or that create no partial state.
func (c *Client) postWithRetry(ctx context.Context, path string, body, out any) error {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			}
		}

		lastErr = c.post(ctx, path, body, out)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("after 3 attempts: %w", lastErr)
}

// StartSession begins a session for exerciseID; target 0 uses the server default.
func (c *Client) StartSession(ctx context.Context, exerciseID string, target int) (*Started, error) {
	var out Started
	body := map[string]any{"exercise_id": exerciseID, "target_repetitions": target}
	if err := c.postWithRetry(ctx, "/api/v1/sessions", body, &out); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	return &out, nil
}

// SendFrame posts one pose frame. Frames advance server state, so they are
// never retried.
func (c *Client) SendFrame(ctx context.Context, sessionID string, frame models.PoseFrame) (*FrameResult, error) {
	var out FrameResult
	if err := c.post(ctx, "/api/v1/sessions/"+sessionID+"/frames", frame, &out); err != nil {
		return nil, fmt.Errorf("sending frame: %w", err)
	}
	return &out, nil
}

// EndSession ends the session and returns the recorded result.
func (c *Client) EndSession(ctx context.Context, sessionID, notes string) (*Finished, error) {
	var out Finished
	if err := c.postWithRetry(ctx, "/api/v1/sessions/"+sessionID+"/end", map[string]string{"notes": notes}, &out); err != nil {
		return nil, fmt.Errorf("ending session: %w", err)
	}
	return &out, nil
}
