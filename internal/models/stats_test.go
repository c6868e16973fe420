package models

import (
	"math"
	"testing"
	"time"
)

// TestRunningAverageMatchesMean verifies that folding a sequence through
// RunningAverage yields its arithmetic mean within floating-point tolerance.
func TestRunningAverageMatchesMean(t *testing.T) {
	seqs := [][]float64{
		{42},
		{70, 80, 90},
		{100, 0, 100, 0},
		{12.5, 99.75, 33.3, 64.1, 0.01, 87},
		{1e6, 1, 1e-6, 500000},
	}
	for _, seq := range seqs {
		var avg, sum float64
		for i, v := range seq {
			avg = RunningAverage(avg, v, i+1)
			sum += v
		}
		want := sum / float64(len(seq))
		if math.Abs(avg-want) > 1e-9*math.Max(1, math.Abs(want)) {
			t.Errorf("RunningAverage over %v = %v, want %v", seq, avg, want)
		}
	}
}

// TestRunningAverageLongSequence checks the incremental mean stays close to the
// true mean across many values.
func TestRunningAverageLongSequence(t *testing.T) {
	var avg, sum float64
	n := 10000
	for i := 1; i <= n; i++ {
		v := float64((i * 37) % 101)
		avg = RunningAverage(avg, v, i)
		sum += v
	}
	if want := sum / float64(n); math.Abs(avg-want) > 1e-6 {
		t.Errorf("avg = %v, want %v", avg, want)
	}
}

// TestWeekStartMonday verifies every day of an ISO week maps to the same Monday.
func TestWeekStartMonday(t *testing.T) {
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		ts := monday.AddDate(0, 0, d).Add(13*time.Hour + 7*time.Minute)
		if got := WeekStart(ts, time.UTC); !got.Equal(monday) {
			t.Errorf("WeekStart(%v) = %v, want %v", ts, got, monday)
		}
	}
	// Sunday belongs to the week that started six days earlier.
	sunday := time.Date(2024, 6, 16, 23, 59, 0, 0, time.UTC)
	if got := WeekStart(sunday, time.UTC); !got.Equal(monday) {
		t.Errorf("WeekStart(sunday) = %v, want %v", got, monday)
	}
	if got := WeekStart(sunday.Add(time.Minute), time.UTC); !got.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("WeekStart(next monday) = %v", got)
	}
}

// TestWeekStartTimezone verifies the bucket follows the configured location.
func TestWeekStartTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// Sunday 20:00 UTC is Monday 06:00 at UTC+10.
	ts := time.Date(2024, 6, 16, 20, 0, 0, 0, time.UTC)
	got := WeekStart(ts, loc)
	want := time.Date(2024, 6, 17, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("WeekStart = %v, want %v", got, want)
	}
}

// TestHasAchievement verifies lookup by id.
func TestHasAchievement(t *testing.T) {
	p := &UserProgress{Achievements: []Achievement{{ID: "first-session"}}}
	if !p.HasAchievement("first-session") {
		t.Error("expected first-session to be unlocked")
	}
	if p.HasAchievement("week-streak") {
		t.Error("week-streak should not be unlocked")
	}
}
