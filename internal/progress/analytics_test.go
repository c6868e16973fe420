package progress

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/claude/kinetic/internal/models"
)

// TestClassifyTrend verifies the half-split comparison and its thresholds.
func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{"too few points", []float64{10, 90}, TrendStable},
		{"improving", []float64{60, 70, 80}, TrendImproving},
		{"declining", []float64{90, 80, 70, 60}, TrendDeclining},
		{"exactly five is stable", []float64{70, 75, 75}, TrendStable},
		{"flat", []float64{80, 80, 80, 80}, TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTrend(tt.scores); got != tt.want {
				t.Errorf("classifyTrend(%v) = %s, want %s", tt.scores, got, tt.want)
			}
		})
	}
}

// TestTrendWindow verifies that only completed sessions of the exercise inside the
// window are used, oldest first.
func TestTrendWindow(t *testing.T) {
	a, _ := newTestAggregator(t)
	ctx := context.Background()
	day := 24 * time.Hour

	sessions := []*models.ExerciseSession{
		completed("old", "squat", testNow.Add(-40*day), 10),
		completed("s1", "squat", testNow.Add(-3*day), 60),
		completed("other", "bridge_exercise", testNow.Add(-2*day), 99),
		completed("s2", "squat", testNow.Add(-2*day), 70),
		completed("s3", "squat", testNow.Add(-day), 80),
	}
	open := completed("open", "squat", testNow, 0)
	open.Completed = false
	open.EndTime = nil
	sessions = append(sessions, open)
	for _, s := range sessions {
		if err := a.SaveSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	res, err := a.Trend(ctx, "alice", "squat", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Days != DefaultTrendDays {
		t.Errorf("days = %d, want %d", res.Days, DefaultTrendDays)
	}
	if !reflect.DeepEqual(res.Scores, []float64{60, 70, 80}) {
		t.Errorf("scores = %v, want [60 70 80]", res.Scores)
	}
	if res.Dates[0] != "2026-03-08" {
		t.Errorf("first date = %s, want 2026-03-08", res.Dates[0])
	}
	if res.Trend != TrendImproving {
		t.Errorf("trend = %s, want improving", res.Trend)
	}
}

// TestInsights verifies the threshold rules over streak, average score and variety.
func TestInsights(t *testing.T) {
	a, _ := newTestAggregator(t)
	ctx := context.Background()

	in, err := a.Insights(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Strengths) != 0 || len(in.Improvements) != 3 || len(in.Recommendations) != 3 {
		t.Errorf("empty user insights = %+v", in)
	}

	for i, ex := range []string{"squat", "bridge_exercise", "wall_slide"} {
		finish(t, a, completed(ex, ex, testNow.Add(-time.Duration(3-i)*time.Hour), 85))
	}
	in, err = a.Insights(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"High average performance score", "Good exercise variety in recent sessions"}
	if !reflect.DeepEqual(in.Strengths, want) {
		t.Errorf("strengths = %v, want %v", in.Strengths, want)
	}
	if !reflect.DeepEqual(in.Improvements, []string{"Try to maintain a more consistent exercise routine"}) {
		t.Errorf("improvements = %v", in.Improvements)
	}
}
