package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func dueAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		task        model.Task
		wantTitle   string
		wantType    model.NotificationType
		wantMessage string
	}{
		{
			name:        "overdue by two days",
			task:        model.Task{ID: "t1", Title: "File taxes", DueDate: dueAt(testNow.Add(-50 * time.Hour))},
			wantTitle:   TitleOverdue,
			wantType:    model.NotificationError,
			wantMessage: `"File taxes" was due 2 day(s) ago`,
		},
		{
			name:        "overdue by hours",
			task:        model.Task{ID: "t2", Title: "Call bank", DueDate: dueAt(testNow.Add(-3*time.Hour - 20*time.Minute))},
			wantTitle:   TitleOverdue,
			wantType:    model.NotificationError,
			wantMessage: `"Call bank" was due 3 hour(s) ago`,
		},
		{
			name:        "just overdue",
			task:        model.Task{ID: "t3", Title: "Stand-up", DueDate: dueAt(testNow.Add(-10 * time.Minute))},
			wantTitle:   TitleOverdue,
			wantType:    model.NotificationError,
			wantMessage: `"Stand-up" is now overdue`,
		},
		{
			name:        "due in thirty minutes rounds up to one hour",
			task:        model.Task{ID: "t4", Title: "Review PR", DueDate: dueAt(testNow.Add(30 * time.Minute))},
			wantTitle:   TitleDueSoon,
			wantType:    model.NotificationWarning,
			wantMessage: `"Review PR" is due in 1 hour(s)`,
		},
		{
			name:        "due in ninety minutes",
			task:        model.Task{ID: "t5", Title: "Lunch", DueDate: dueAt(testNow.Add(90 * time.Minute))},
			wantTitle:   TitleDueSoon,
			wantType:    model.NotificationWarning,
			wantMessage: `"Lunch" is due in 1 hour(s)`,
		},
		{
			name:        "due later today",
			task:        model.Task{ID: "t6", Title: "Gym", DueDate: "2026-10-18", DueTime: "20:00"},
			wantTitle:   TitleDueToday,
			wantType:    model.NotificationWarning,
			wantMessage: `"Gym" is due today at 8:00 PM`,
		},
		{
			name:        "due tomorrow at two",
			task:        model.Task{ID: "t7", Title: "Dentist", DueDate: "2026-10-19T00:00:00Z", DueTime: "14:00"},
			wantTitle:   TitleDueTomorrow,
			wantType:    model.NotificationInfo,
			wantMessage: `"Dentist" is due tomorrow at 2:00 PM`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, ok, err := Evaluate(tt.task, testNow, time.UTC)
			require.NoError(t, err)
			require.True(t, ok)

			assert.Equal(t, tt.wantTitle, draft.Title)
			assert.Equal(t, tt.wantType, draft.Type)
			assert.Equal(t, tt.wantMessage, draft.Message)
			assert.Equal(t, tt.task.ID, draft.TaskID)
			assert.True(t, draft.Persistent)
		})
	}
}

func TestEvaluateNoCandidate(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
	}{
		{"completed and overdue", model.Task{ID: "c", Status: model.StatusCompleted, DueDate: dueAt(testNow.Add(-72 * time.Hour))}},
		{"two days out", model.Task{ID: "far", DueDate: dueAt(testNow.Add(49 * time.Hour))}},
		{"next month", model.Task{ID: "month", DueDate: "2026-11-18"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := Evaluate(tt.task, testNow, time.UTC)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestEvaluateMalformedDueDate(t *testing.T) {
	_, ok, err := Evaluate(model.Task{ID: "bad", Title: "Broken", DueDate: "someday"}, testNow, time.UTC)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	task := model.Task{ID: "t1", Title: "Write report", DueDate: "2026-10-19", DueTime: "09:30"}

	first, ok1, err1 := Evaluate(task, testNow, time.UTC)
	second, ok2, err2 := Evaluate(task, testNow, time.UTC)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestEvaluateUsesLocationForTimeOfDay(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	task := model.Task{ID: "t1", Title: "Standup", DueDate: "2026-10-18", DueTime: "18:00"}

	draft, ok, err := Evaluate(task, testNow, berlin)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"Standup" is due today at 6:00 PM`, draft.Message)
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, int64(0), floorDiv(30*time.Minute, time.Hour))
	assert.Equal(t, int64(-1), floorDiv(-30*time.Minute, time.Hour))
	assert.Equal(t, int64(-2), floorDiv(-2*time.Hour, time.Hour))
	assert.Equal(t, int64(2), floorDiv(50*time.Hour, day))
}
