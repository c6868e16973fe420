package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
)

// HTTPClient implements DataSource by calling the Kinetic REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into out. The user id travels
// as X-User-ID; on a tailnet the server ignores it in favor of the peer identity.
func (c *HTTPClient) get(ctx context.Context, path, userID string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, category, difficulty string) ([]models.ExerciseDefinition, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if difficulty != "" {
		params.Set("difficulty", difficulty)
	}
	var out []models.ExerciseDefinition
	if err := c.get(ctx, "/api/v1/exercises", "", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetExercise(ctx context.Context, id string) (*models.ExerciseDefinition, error) {
	var out models.ExerciseDefinition
	if err := c.get(ctx, "/api/v1/exercises/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var out models.UserProgress
	if err := c.get(ctx, "/api/v1/progress", userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetSessionHistory(ctx context.Context, userID string, limit int) ([]models.ExerciseSession, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	var out []models.ExerciseSession
	if err := c.get(ctx, "/api/v1/sessions", userID, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetWeeklyProgress(ctx context.Context, userID string, weeks int) ([]models.WeeklyProgress, error) {
	params := url.Values{}
	params.Set("weeks", strconv.Itoa(weeks))
	var out []models.WeeklyProgress
	if err := c.get(ctx, "/api/v1/progress/weekly", userID, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetTrend(ctx context.Context, userID, exerciseID string, days int) (*progress.TrendResult, error) {
	params := url.Values{}
	params.Set("exercise", exerciseID)
	params.Set("days", strconv.Itoa(days))
	var out progress.TrendResult
	if err := c.get(ctx, "/api/v1/progress/trend", userID, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetInsights(ctx context.Context, userID string) (*progress.Insights, error) {
	var out progress.Insights
	if err := c.get(ctx, "/api/v1/progress/insights", userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetGoalStatus(ctx context.Context, userID string) (*progress.GoalStatus, error) {
	var out progress.GoalStatus
	if err := c.get(ctx, "/api/v1/goals/status", userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
