package ai

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func newHeuristic() *Heuristic {
	return NewHeuristic(clockwork.NewFakeClockAt(testNow), time.UTC)
}

func task(id, title string, status model.TaskStatus, due time.Time) model.Task {
	return model.Task{ID: id, Title: title, Status: status, DueDate: due.Format(time.RFC3339)}
}

func titles(s []model.Suggestion) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		out = append(out, x.Title)
	}
	return out
}

func TestSuggestReturnsFirstThreeTemplates(t *testing.T) {
	got, err := newHeuristic().Suggest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Review weekly goals",
		"Organize digital workspace",
		"Schedule important calls",
	}, titles(got))
	assert.Equal(t, model.SuggestionNewTask, got[0].Kind)
	assert.Equal(t, model.PriorityHigh, got[2].Priority)
	assert.Equal(t, "Communication", got[2].Category)
}

func TestSuggestSkipsTemplatesCoveredByExistingTitles(t *testing.T) {
	existing := []model.Task{
		task("1", "Code REVIEW for auth", model.StatusPending, testNow),
		task("2", "organize garage", model.StatusCompleted, testNow),
	}
	got, err := newHeuristic().Suggest(context.Background(), existing)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Schedule important calls",
		"Update project documentation",
		"Plan learning session",
	}, titles(got))
}

func TestInsights(t *testing.T) {
	h := newHeuristic()

	t.Run("empty list", func(t *testing.T) {
		got := h.Insights(nil)
		require.Len(t, got, 1)
		assert.Equal(t, "Get Started", got[0].Title)
		assert.Equal(t, model.InsightSuggestion, got[0].Insight)
	})

	t.Run("overdue singular", func(t *testing.T) {
		got := h.Insights([]model.Task{task("1", "a", model.StatusPending, testNow.Add(-time.Hour))})
		require.Len(t, got, 1)
		assert.Equal(t, "You have 1 overdue task. Consider prioritizing these to stay on track.", got[0].Message)
		assert.True(t, got[0].Actionable)
	})

	t.Run("overdue plural and progress", func(t *testing.T) {
		got := h.Insights([]model.Task{
			task("1", "a", model.StatusInProgress, testNow.Add(-time.Hour)),
			task("2", "b", model.StatusInProgress, testNow.Add(-48*time.Hour)),
			task("3", "c", model.StatusCompleted, testNow.Add(-48*time.Hour)),
		})
		require.Len(t, got, 2)
		assert.Contains(t, got[0].Message, "2 overdue tasks")
		assert.Equal(t, "Great Progress!", got[1].Title)
		assert.False(t, got[1].Actionable)
	})

	t.Run("many pending", func(t *testing.T) {
		var tasks []model.Task
		for i := 0; i < 6; i++ {
			tasks = append(tasks, task(string(rune('a'+i)), "x", model.StatusPending, testNow.Add(72*time.Hour)))
		}
		got := h.Insights(tasks)
		require.Len(t, got, 1)
		assert.Equal(t, model.InsightOrganization, got[0].Insight)
		assert.Contains(t, got[0].Message, "6 pending tasks")
	})
}

func TestEnhance(t *testing.T) {
	h := newHeuristic()

	tests := []struct {
		name     string
		title    string
		priority model.Priority
		duration string
		tags     []string
		dueDay   int
	}{
		{"default", "Buy milk", model.PriorityMedium, "30 minutes", nil, 21},
		{"urgent meeting", "URGENT meeting with team", model.PriorityHigh, "1 hour", []string{"meeting"}, 19},
		{"someday study", "maybe study Go", model.PriorityLow, "30 minutes", []string{"learning"}, 25},
		{"review email", "review email drafts", model.PriorityMedium, "15 minutes", []string{"review", "communication"}, 21},
		{"project plan", "plan the project", model.PriorityMedium, "2-3 hours", []string{"project", "planning"}, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := h.Enhance(tt.title, "")
			assert.Equal(t, model.SuggestionEnhancement, got.Kind)
			assert.Equal(t, tt.priority, got.Priority)
			assert.Equal(t, tt.duration, got.EstimatedDuration)
			assert.Equal(t, tt.tags, got.Tags)
			require.NotNil(t, got.SuggestedDue)
			assert.Equal(t, time.Date(2026, 10, tt.dueDay, 0, 0, 0, 0, time.UTC), *got.SuggestedDue)
		})
	}
}

func TestEnhanceDescription(t *testing.T) {
	h := newHeuristic()

	got := h.Enhance("Buy milk", "")
	assert.Equal(t, "Complete: Buy milk. Estimated time: 30 minutes. Priority: medium.", got.Message)

	got = h.Enhance("Buy milk", "two litres")
	assert.Equal(t, "two litres", got.Message)
}

func TestOrganize(t *testing.T) {
	h := newHeuristic()
	tasks := []model.Task{
		task("done", "urgent thing", model.StatusCompleted, testNow.Add(-time.Hour)),
		task("late", "urgent thing", model.StatusPending, testNow.Add(-time.Hour)),
		task("soon", "call bank", model.StatusPending, testNow.Add(72*time.Hour)),
		task("high", "Important report", model.StatusPending, testNow.Add(96*time.Hour)),
		task("other", "water plants", model.StatusInProgress, testNow.Add(96*time.Hour)),
		{ID: "bad", Title: "broken date", Status: model.StatusPending, DueDate: "soon"},
	}

	org := h.Organize(tasks)

	names := make([]string, 0, len(org.Buckets))
	for _, b := range org.Buckets {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{BucketHighPriority, BucketDueSoon, BucketOverdue, BucketCompleted, BucketOthers}, names)

	ids := func(tasks []model.Task) []string {
		var out []string
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []string{"high"}, ids(org.Bucket(BucketHighPriority)))
	assert.Equal(t, []string{"soon"}, ids(org.Bucket(BucketDueSoon)))
	assert.Equal(t, []string{"late"}, ids(org.Bucket(BucketOverdue)))
	assert.Equal(t, []string{"done"}, ids(org.Bucket(BucketCompleted)))
	assert.Equal(t, []string{"other", "bad"}, ids(org.Bucket(BucketOthers)))
	assert.Len(t, org.Tips, 4)
}
