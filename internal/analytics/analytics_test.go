package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func at(month time.Month, d, hour int) time.Time {
	return time.Date(2026, month, d, hour, 0, 0, 0, time.UTC)
}

func completed(id string, created, done time.Time) model.Task {
	return model.Task{
		ID: id, Title: id, Status: model.StatusCompleted, DueDate: "2026-12-01",
		CreatedAt: created, UpdatedAt: done,
	}
}

func open(id string, status model.TaskStatus, created time.Time, due string) model.Task {
	return model.Task{
		ID: id, Title: id, Status: status, DueDate: due,
		CreatedAt: created, UpdatedAt: created,
	}
}

func TestStats(t *testing.T) {
	tasks := []model.Task{
		open("p1", model.StatusPending, at(10, 1, 0), "2026-10-17"),
		open("p2", model.StatusPending, at(10, 1, 0), "2026-10-30"),
		open("i1", model.StatusInProgress, at(10, 1, 0), "2026-10-18T09:59:00Z"),
		open("bad", model.StatusPending, at(10, 1, 0), "whenever"),
		completed("c1", at(10, 1, 0), at(10, 2, 0)),
	}

	got := Stats(tasks, testNow, time.UTC)
	assert.Equal(t, model.TaskStats{Total: 5, Pending: 3, InProgress: 1, Completed: 1, Overdue: 2}, got)
}

func TestCompute(t *testing.T) {
	tasks := []model.Task{
		completed("c1", at(10, 17, 9), at(10, 17, 21)),
		completed("c2", at(10, 10, 10), at(10, 18, 8)),
		completed("c3", at(9, 20, 0), at(9, 21, 0)),
		open("p1", model.StatusPending, at(10, 16, 0), "2026-10-17"),
		open("i1", model.StatusInProgress, at(10, 1, 0), "2026-10-25"),
	}

	r := Compute(tasks, testNow, time.UTC)

	assert.Equal(t, model.TaskStats{Total: 5, Pending: 1, InProgress: 1, Completed: 3, Overdue: 1}, r.TaskStats)
	assert.InDelta(t, 60.0, r.CompletionRate, 1e-9)
	assert.InDelta(t, 50.0, r.WeeklyCompletionRate, 1e-9)
	assert.InDelta(t, 100.0, r.MonthlyGrowth, 1e-9)
	assert.InDelta(t, (0.5+(7+22.0/24)+1)/3, r.AvgCompletionDays, 1e-9)
	assert.Equal(t, 1, r.ThisWeekCompleted)
	assert.Equal(t, 2, r.ThisMonthCompleted)

	require.Len(t, r.DailyPattern, 7)
	assert.Equal(t, at(10, 12, 0), r.DailyPattern[0].Date)
	assert.Equal(t, "Sun", r.DailyPattern[6].Weekday)
	counts := make([]int, 0, 7)
	for _, d := range r.DailyPattern {
		counts = append(counts, d.Completed)
	}
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1}, counts)

	assert.Equal(t, []StatusCount{
		{Label: "Completed", Count: 3},
		{Label: "In Progress", Count: 1},
		{Label: "Pending", Count: 1},
		{Label: "Overdue", Count: 1},
	}, r.Distribution)

	require.Len(t, r.Insights, 2)
	assert.Equal(t, "You have 1 overdue task. Prioritize these to get back on track.", r.Insights[0].Message)
	assert.Equal(t, "Great Progress!", r.Insights[1].Title)
	assert.Equal(t, "You've completed 100.0% more tasks this month compared to last month.", r.Insights[1].Message)
}

func TestComputeEmpty(t *testing.T) {
	r := Compute(nil, testNow, time.UTC)

	assert.Zero(t, r.Total)
	assert.Zero(t, r.CompletionRate)
	assert.Zero(t, r.AvgCompletionDays)
	assert.Len(t, r.DailyPattern, 7)
	assert.Empty(t, r.Insights)
}

func TestComputeInsights(t *testing.T) {
	t.Run("excellent and quick", func(t *testing.T) {
		r := Compute([]model.Task{completed("c", at(10, 18, 8), at(10, 18, 9))}, testNow, time.UTC)
		require.Len(t, r.Insights, 2)
		assert.Equal(t, "Excellent Productivity!", r.Insights[0].Title)
		assert.Equal(t, model.NotificationSuccess, r.Insights[0].Type)
		assert.Equal(t, "Quick Executor", r.Insights[1].Title)
		assert.Contains(t, r.Insights[1].Message, "avg: 0.0 days")
	})

	t.Run("room for improvement", func(t *testing.T) {
		r := Compute([]model.Task{
			completed("c", at(10, 1, 0), at(10, 5, 0)),
			open("a", model.StatusPending, at(10, 1, 0), "2026-11-01"),
			open("b", model.StatusPending, at(10, 1, 0), "2026-11-01"),
		}, testNow, time.UTC)
		require.Len(t, r.Insights, 1)
		assert.Equal(t, "Room for Improvement", r.Insights[0].Title)
		assert.Equal(t, "Your completion rate is 33.3%. Consider breaking down large tasks or adjusting deadlines.", r.Insights[0].Message)
	})
}

func TestComputeUsesLocationForDays(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 2026-10-18 20:00 UTC is 2026-10-19 05:00 in loc.
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	r := Compute([]model.Task{completed("c", at(10, 18, 8), at(10, 18, 10))}, now, loc)

	last := r.DailyPattern[6]
	assert.Equal(t, 19, last.Date.Day())
	assert.Zero(t, last.Completed)
	assert.Equal(t, 1, r.DailyPattern[5].Completed)
}
