// Package ai produces task suggestions, insights and enhancements. The
// Heuristic suggester works offline from keyword rules; Claude asks the
// Claude Messages API and falls back to a Heuristic on failure.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nhle/taskflow/internal/model"
)

// MaxSuggestions caps the number of new-task suggestions returned.
const MaxSuggestions = 3

// Suggester proposes new tasks given the current task list.
type Suggester interface {
	Suggest(ctx context.Context, tasks []model.Task) ([]model.Suggestion, error)
}

type template struct {
	title       string
	description string
	priority    model.Priority
	duration    string
	category    string
}

var templates = []template{
	{
		title:       "Review weekly goals",
		description: "Take 15 minutes to review and adjust your weekly objectives based on current progress.",
		priority:    model.PriorityMedium,
		duration:    "15 minutes",
		category:    "Planning",
	},
	{
		title:       "Organize digital workspace",
		description: "Clean up desktop files, organize downloads folder, and update bookmarks.",
		priority:    model.PriorityLow,
		duration:    "30 minutes",
		category:    "Organization",
	},
	{
		title:       "Schedule important calls",
		description: "Block time for important calls and meetings for the upcoming week.",
		priority:    model.PriorityHigh,
		duration:    "20 minutes",
		category:    "Communication",
	},
	{
		title:       "Update project documentation",
		description: "Review and update project documentation to reflect recent changes.",
		priority:    model.PriorityMedium,
		duration:    "45 minutes",
		category:    "Documentation",
	},
	{
		title:       "Plan learning session",
		description: "Dedicate time to learn something new related to your field or interests.",
		priority:    model.PriorityMedium,
		duration:    "1 hour",
		category:    "Learning",
	},
}

// Organization bucket names, in display order.
const (
	BucketHighPriority = "High Priority"
	BucketDueSoon      = "Due Soon"
	BucketOverdue      = "Overdue"
	BucketCompleted    = "Completed"
	BucketOthers       = "Others"
)

var bucketOrder = []string{BucketHighPriority, BucketDueSoon, BucketOverdue, BucketCompleted, BucketOthers}

var organizationTips = []string{
	"Focus on overdue tasks first to get back on track",
	"Schedule specific time blocks for high-priority tasks",
	"Break down large tasks into smaller, manageable steps",
	"Set realistic deadlines to avoid future overdue tasks",
}

// Bucket is a named group of tasks.
type Bucket struct {
	Name  string
	Tasks []model.Task
}

// Organization groups tasks by urgency and carries general advice.
type Organization struct {
	Buckets []Bucket
	Tips    []string
}

// Bucket returns the tasks in the named bucket.
func (o Organization) Bucket(name string) []model.Task {
	for _, b := range o.Buckets {
		if b.Name == name {
			return b.Tasks
		}
	}
	return nil
}

// Heuristic is a rule-based suggester that needs no network access.
type Heuristic struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewHeuristic returns a Heuristic reading time from c and interpreting
// due dates in loc. Nil arguments select the real clock and time.Local.
func NewHeuristic(c clockwork.Clock, loc *time.Location) *Heuristic {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Heuristic{clock: c, loc: loc}
}

// Suggest returns up to MaxSuggestions template tasks whose leading word
// does not already appear in an existing task title.
func (h *Heuristic) Suggest(_ context.Context, tasks []model.Task) ([]model.Suggestion, error) {
	var out []model.Suggestion
	for _, tpl := range templates {
		if len(out) == MaxSuggestions {
			break
		}
		if coveredBy(tpl.title, tasks) {
			continue
		}
		out = append(out, model.Suggestion{
			Kind:              model.SuggestionNewTask,
			Title:             tpl.title,
			Message:           tpl.description,
			Priority:          tpl.priority,
			EstimatedDuration: tpl.duration,
			Category:          tpl.category,
		})
	}
	return out, nil
}

// coveredBy reports whether any task title contains the first word of title.
func coveredBy(title string, tasks []model.Task) bool {
	fields := strings.Fields(strings.ToLower(title))
	if len(fields) == 0 {
		return false
	}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), fields[0]) {
			return true
		}
	}
	return false
}

// Insights derives observations from the task list.
func (h *Heuristic) Insights(tasks []model.Task) []model.Suggestion {
	now := h.clock.Now()
	var overdue, completed, pending int
	for _, t := range tasks {
		switch t.Status {
		case model.StatusCompleted:
			completed++
			continue
		case model.StatusPending:
			pending++
		}
		if due, err := t.EffectiveDue(h.loc); err == nil && due.Before(now) {
			overdue++
		}
	}

	var out []model.Suggestion
	if overdue > 0 {
		plural := ""
		if overdue > 1 {
			plural = "s"
		}
		out = append(out, model.Suggestion{
			Kind:       model.SuggestionInsight,
			Insight:    model.InsightDeadline,
			Title:      "Overdue Tasks Alert",
			Message:    fmt.Sprintf("You have %d overdue task%s. Consider prioritizing these to stay on track.", overdue, plural),
			Actionable: true,
		})
	}
	if completed > pending && completed > 0 {
		out = append(out, model.Suggestion{
			Kind:    model.SuggestionInsight,
			Insight: model.InsightProductivity,
			Title:   "Great Progress!",
			Message: fmt.Sprintf("You've completed %d tasks. You're doing excellent work staying productive!", completed),
		})
	}
	if pending > 5 {
		out = append(out, model.Suggestion{
			Kind:       model.SuggestionInsight,
			Insight:    model.InsightOrganization,
			Title:      "Task Organization",
			Message:    fmt.Sprintf("You have %d pending tasks. Consider breaking down larger tasks or setting priorities.", pending),
			Actionable: true,
		})
	}
	if len(tasks) == 0 {
		out = append(out, model.Suggestion{
			Kind:       model.SuggestionInsight,
			Insight:    model.InsightSuggestion,
			Title:      "Get Started",
			Message:    "Start by adding your first task or let me suggest some tasks to help you get organized!",
			Actionable: true,
		})
	}
	return out
}

// Enhance proposes a priority, duration, tags and due date for a task
// being written. An empty description is replaced with a generated one.
func (h *Heuristic) Enhance(title, description string) model.Suggestion {
	lower := strings.ToLower(title)
	priority := model.PriorityMedium
	duration := "30 minutes"
	days := 3
	var tags []string

	switch {
	case containsAny(lower, "urgent", "asap", "important"):
		priority = model.PriorityHigh
		days = 1
	case containsAny(lower, "someday", "maybe", "consider"):
		priority = model.PriorityLow
		days = 7
	}

	switch {
	case containsAny(lower, "meeting", "call"):
		duration = "1 hour"
		tags = append(tags, "meeting")
	case containsAny(lower, "review", "check"):
		duration = "15 minutes"
		tags = append(tags, "review")
	case containsAny(lower, "project", "develop"):
		duration = "2-3 hours"
		tags = append(tags, "project")
	}

	if containsAny(lower, "email", "message") {
		tags = append(tags, "communication")
	}
	if containsAny(lower, "learn", "study") {
		tags = append(tags, "learning")
	}
	if containsAny(lower, "plan", "organize") {
		tags = append(tags, "planning")
	}

	if strings.TrimSpace(description) == "" {
		description = fmt.Sprintf("Complete: %s. Estimated time: %s. Priority: %s.", title, duration, priority)
	}

	now := h.clock.Now().In(h.loc)
	due := time.Date(now.Year(), now.Month(), now.Day()+days, 0, 0, 0, 0, h.loc)

	return model.Suggestion{
		Kind:              model.SuggestionEnhancement,
		Title:             title,
		Message:           description,
		Priority:          priority,
		EstimatedDuration: duration,
		Tags:              tags,
		SuggestedDue:      &due,
	}
}

// Organize sorts tasks into urgency buckets. Completed tasks come first,
// then overdue, then tasks due within three days, then titles flagged
// urgent or important.
func (h *Heuristic) Organize(tasks []model.Task) Organization {
	now := h.clock.Now()
	soon := now.AddDate(0, 0, 3)

	groups := make(map[string][]model.Task, len(bucketOrder))
	for _, t := range tasks {
		name := h.bucketFor(t, now, soon)
		groups[name] = append(groups[name], t)
	}

	org := Organization{Tips: append([]string(nil), organizationTips...)}
	for _, name := range bucketOrder {
		org.Buckets = append(org.Buckets, Bucket{Name: name, Tasks: groups[name]})
	}
	return org
}

func (h *Heuristic) bucketFor(t model.Task, now, soon time.Time) string {
	if t.IsCompleted() {
		return BucketCompleted
	}
	if due, err := t.EffectiveDue(h.loc); err == nil {
		if due.Before(now) {
			return BucketOverdue
		}
		if !due.After(soon) {
			return BucketDueSoon
		}
	}
	if containsAny(strings.ToLower(t.Title), "urgent", "important") {
		return BucketHighPriority
	}
	return BucketOthers
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
