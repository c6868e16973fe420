package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) catalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	exercises, err := h.ds.ListExercises(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, exercises)
}

func (h *handlers) progressSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	p, err := h.ds.GetProgress(ctx, uid)
	if err != nil {
		return nil, err
	}

	// Goal status is supplementary; a failure still yields the lifetime totals.
	status, err := h.ds.GetGoalStatus(ctx, uid)
	if err != nil {
		h.log.Warn("progress_summary: goal status failed", "error", err)
	}

	summary := map[string]any{
		"total_sessions":    p.TotalSessions,
		"total_time_sec":    p.TotalTimeSec,
		"total_repetitions": p.TotalRepetitions,
		"average_score":     p.AverageScore,
		"streak_days":       p.StreakDays,
		"last_session_date": p.LastSessionDate,
		"achievements":      p.Achievements,
		"goal_status":       status,
	}
	return jsonContents(req.Params.URI, summary)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
