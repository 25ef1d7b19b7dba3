// Package analytics computes completion statistics over a task list.
package analytics

import (
	"fmt"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

const day = 24 * time.Hour

// DayCount is the number of tasks completed on one calendar day.
type DayCount struct {
	Date      time.Time
	Weekday   string
	Completed int
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Label string
	Count int
}

// Insight is an observation about productivity.
type Insight struct {
	Type    model.NotificationType
	Title   string
	Message string
}

// Report holds everything Compute derives from a task list.
type Report struct {
	model.TaskStats

	// Percentages in [0, 100]. MonthlyGrowth may be negative or exceed 100.
	CompletionRate       float64
	WeeklyCompletionRate float64
	MonthlyGrowth        float64

	// AvgCompletionDays averages UpdatedAt-CreatedAt over completed tasks.
	AvgCompletionDays float64

	ThisWeekCompleted  int
	ThisMonthCompleted int

	// DailyPattern covers the last seven days, oldest first.
	DailyPattern []DayCount

	Distribution []StatusCount
	Insights     []Insight
}

// Stats counts tasks by status. A task is overdue when it is not completed
// and its due instant is before now; tasks with unreadable due dates are
// never overdue.
func Stats(tasks []model.Task, now time.Time, loc *time.Location) model.TaskStats {
	var s model.TaskStats
	s.Total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case model.StatusPending:
			s.Pending++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusCompleted:
			s.Completed++
			continue
		}
		if due, err := t.EffectiveDue(loc); err == nil && due.Before(now) {
			s.Overdue++
		}
	}
	return s
}

// Compute builds a Report. Calendar boundaries (month starts, the days of
// the daily pattern) are taken in loc. UpdatedAt of a completed task is
// treated as its completion time.
func Compute(tasks []model.Task, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)

	r := Report{TaskStats: Stats(tasks, now, loc)}

	weekAgo := now.Add(-7 * day)
	thisMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var weekTotal, lastMonthCompleted int
	var completionDays float64
	for _, t := range tasks {
		done := t.IsCompleted()
		created := t.CreatedAt
		if !created.Before(weekAgo) {
			weekTotal++
			if done {
				r.ThisWeekCompleted++
			}
		}
		if !done {
			continue
		}
		if !created.Before(thisMonth) {
			r.ThisMonthCompleted++
		} else if !created.Before(lastMonth) {
			lastMonthCompleted++
		}
		completionDays += t.UpdatedAt.Sub(created).Hours() / 24
	}

	if r.Total > 0 {
		r.CompletionRate = percent(r.Completed, r.Total)
	}
	if weekTotal > 0 {
		r.WeeklyCompletionRate = percent(r.ThisWeekCompleted, weekTotal)
	}
	if lastMonthCompleted > 0 {
		r.MonthlyGrowth = percent(r.ThisMonthCompleted-lastMonthCompleted, lastMonthCompleted)
	}
	if r.Completed > 0 {
		r.AvgCompletionDays = completionDays / float64(r.Completed)
	}

	r.DailyPattern = dailyPattern(tasks, local, loc)
	r.Distribution = []StatusCount{
		{Label: "Completed", Count: r.Completed},
		{Label: "In Progress", Count: r.InProgress},
		{Label: "Pending", Count: r.Pending},
		{Label: "Overdue", Count: r.Overdue},
	}
	r.Insights = insights(r)
	return r
}

func dailyPattern(tasks []model.Task, local time.Time, loc *time.Location) []DayCount {
	out := make([]DayCount, 0, 7)
	for i := 6; i >= 0; i-- {
		start := time.Date(local.Year(), local.Month(), local.Day()-i, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 0, 1)
		dc := DayCount{Date: start, Weekday: start.Format("Mon")}
		for _, t := range tasks {
			if t.IsCompleted() && !t.UpdatedAt.Before(start) && t.UpdatedAt.Before(end) {
				dc.Completed++
			}
		}
		out = append(out, dc)
	}
	return out
}

func insights(r Report) []Insight {
	var out []Insight

	switch {
	case r.Total == 0:
	case r.CompletionRate > 80:
		out = append(out, Insight{
			Type:    model.NotificationSuccess,
			Title:   "Excellent Productivity!",
			Message: fmt.Sprintf("You've completed %.1f%% of your tasks. Keep up the great work!", r.CompletionRate),
		})
	case r.CompletionRate < 50:
		out = append(out, Insight{
			Type:    model.NotificationWarning,
			Title:   "Room for Improvement",
			Message: fmt.Sprintf("Your completion rate is %.1f%%. Consider breaking down large tasks or adjusting deadlines.", r.CompletionRate),
		})
	}

	if r.Overdue > 0 {
		plural := ""
		if r.Overdue > 1 {
			plural = "s"
		}
		out = append(out, Insight{
			Type:    model.NotificationError,
			Title:   "Overdue Tasks Alert",
			Message: fmt.Sprintf("You have %d overdue task%s. Prioritize these to get back on track.", r.Overdue, plural),
		})
	}

	if r.MonthlyGrowth > 20 {
		out = append(out, Insight{
			Type:    model.NotificationSuccess,
			Title:   "Great Progress!",
			Message: fmt.Sprintf("You've completed %.1f%% more tasks this month compared to last month.", r.MonthlyGrowth),
		})
	}

	if r.Completed > 0 && r.AvgCompletionDays < 1 {
		out = append(out, Insight{
			Type:    model.NotificationInfo,
			Title:   "Quick Executor",
			Message: fmt.Sprintf("You complete tasks quickly (avg: %.1f days). Consider taking on more challenging projects.", r.AvgCompletionDays),
		})
	}

	return out
}

func percent(n, d int) float64 {
	return float64(n) / float64(d) * 100
}
