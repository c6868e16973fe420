package mcp

import (
	"context"

	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List exercises from the catalog, optionally filtered by category and difficulty."),
	mcp.WithString("category", mcp.Description("Exercise category"), mcp.Enum(models.CategoryUpperBody, models.CategoryLowerBody, models.CategoryCore, models.CategoryBalance, models.CategoryFlexibility)),
	mcp.WithString("difficulty", mcp.Description("Difficulty level"), mcp.Enum(models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
)

var toolGetExercise = mcp.NewTool("get_exercise",
	mcp.WithDescription("Get a single exercise with its phases, target joint angles, tolerances and contraindications."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Exercise ID (e.g. shoulder_flexion, squat)")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Get lifetime progress: total sessions, total time, streak, per-exercise stats, weekly buckets and achievements."),
)

var toolGetSessionHistory = mcp.NewTool("get_session_history",
	mcp.WithDescription("List recorded exercise sessions, newest first, with average/max/min scores and repetitions."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 50.")),
)

var toolGetWeeklyProgress = mcp.NewTool("get_weekly_progress",
	mcp.WithDescription("Get weekly buckets (Monday to Monday) with session counts, minutes, average score and goal status, newest first."),
	mcp.WithNumber("weeks", mcp.Description("Number of weeks. Defaults to 4.")),
)

var toolGetTrend = mcp.NewTool("get_trend",
	mcp.WithDescription("Classify the recent score trend of one exercise as improving, declining or stable, with the underlying data points."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID")),
	mcp.WithNumber("days", mcp.Description("Look-back window in days. Defaults to 30.")),
)

var toolGetInsights = mcp.NewTool("get_insights",
	mcp.WithDescription("Get strengths, areas to improve and recommendations derived from the user's session history."),
)

var toolGetGoalStatus = mcp.NewTool("get_goal_status",
	mcp.WithDescription("Get today's and this week's progress against the user's goals."),
)

// --- Handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.ListExercises(ctx, req.GetString("category", ""), req.GetString("difficulty", ""))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(out)
}

func (h *handlers) getExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	ex, err := h.ds.GetExercise(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(ex)
}

func (h *handlers) getProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.GetProgress(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", progress.DefaultHistoryPage)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	sessions, err := h.ds.GetSessionHistory(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp get_session_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}

func (h *handlers) getWeeklyProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", progress.DefaultWeeks)
	if weeks <= 0 {
		return mcp.NewToolResultError("weeks must be positive"), nil
	}

	out, err := h.ds.GetWeeklyProgress(ctx, UserIDFromContext(ctx), weeks)
	if err != nil {
		h.log.Error("mcp get_weekly_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(out)
}

func (h *handlers) getTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise is required"), nil
	}
	days := req.GetInt("days", progress.DefaultTrendDays)

	res, err := h.ds.GetTrend(ctx, UserIDFromContext(ctx), exercise, days)
	if err != nil {
		h.log.Error("mcp get_trend", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) getInsights(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.ds.GetInsights(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_insights", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) getGoalStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.ds.GetGoalStatus(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_goal_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
