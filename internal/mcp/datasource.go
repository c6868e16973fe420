package mcp

import (
	"context"

	"github.com/claude/kinetic/internal/catalog"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/progress"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListExercises(ctx context.Context, category, difficulty string) ([]models.ExerciseDefinition, error)
	GetExercise(ctx context.Context, id string) (*models.ExerciseDefinition, error)
	GetProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	GetSessionHistory(ctx context.Context, userID string, limit int) ([]models.ExerciseSession, error)
	GetWeeklyProgress(ctx context.Context, userID string, weeks int) ([]models.WeeklyProgress, error)
	GetTrend(ctx context.Context, userID, exerciseID string, days int) (*progress.TrendResult, error)
	GetInsights(ctx context.Context, userID string) (*progress.Insights, error)
	GetGoalStatus(ctx context.Context, userID string) (*progress.GoalStatus, error)
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// Local serves MCP tools from the in-process catalog and aggregator.
type Local struct {
	catalog  *catalog.Catalog
	progress *progress.Aggregator
}

// NewLocal creates a Local data source.
func NewLocal(cat *catalog.Catalog, agg *progress.Aggregator) *Local {
	return &Local{catalog: cat, progress: agg}
}

func (l *Local) ListExercises(_ context.Context, category, difficulty string) ([]models.ExerciseDefinition, error) {
	return l.catalog.Filter(category, difficulty), nil
}

func (l *Local) GetExercise(_ context.Context, id string) (*models.ExerciseDefinition, error) {
	return l.catalog.ByID(id)
}

func (l *Local) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	return l.progress.Progress(ctx, userID)
}

func (l *Local) GetSessionHistory(ctx context.Context, userID string, limit int) ([]models.ExerciseSession, error) {
	return l.progress.SessionHistory(ctx, userID, limit)
}

func (l *Local) GetWeeklyProgress(ctx context.Context, userID string, weeks int) ([]models.WeeklyProgress, error) {
	return l.progress.WeeklyProgress(ctx, userID, weeks)
}

func (l *Local) GetTrend(ctx context.Context, userID, exerciseID string, days int) (*progress.TrendResult, error) {
	return l.progress.Trend(ctx, userID, exerciseID, days)
}

func (l *Local) GetInsights(ctx context.Context, userID string) (*progress.Insights, error) {
	return l.progress.Insights(ctx, userID)
}

func (l *Local) GetGoalStatus(ctx context.Context, userID string) (*progress.GoalStatus, error) {
	return l.progress.GoalStatus(ctx, userID)
}
