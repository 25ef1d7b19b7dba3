package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/kv"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/source"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Type() source.SourceType { return source.SourceTypeBackend }

func (m *mockSource) ValidateConnection(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSource) FetchTasks(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *mockSource) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	args := m.Called(ctx, task)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *mockSource) UpdateTask(ctx context.Context, id string, update source.TaskUpdate) (*model.Task, error) {
	args := m.Called(ctx, id, update)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *mockSource) DeleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingListener struct {
	calls [][]model.Task
}

func (l *recordingListener) TasksChanged(tasks []model.Task) {
	l.calls = append(l.calls, tasks)
}

var due = time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

func TestCreateOffline(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	l := &recordingListener{}
	svc := NewService(st, WithListener(l), WithLocation(time.UTC))

	created, err := svc.Create(ctx, NewTask{Title: "  Write report ", DueDate: "2026-10-20", DueTime: "09:00"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.False(t, svc.Online())

	require.Len(t, l.calls, 1)
	require.Len(t, l.calls[0], 1)
	assert.Equal(t, created.ID, l.calls[0][0].ID)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(testutil.NewTestStore(t))

	tests := []struct {
		name string
		in   NewTask
	}{
		{name: "empty title", in: NewTask{Title: "  ", DueDate: "2026-10-20"}},
		{name: "missing due date", in: NewTask{Title: "Report"}},
		{name: "bad due date", in: NewTask{Title: "Report", DueDate: "next week"}},
		{name: "bad due time", in: NewTask{Title: "Report", DueDate: "2026-10-20", DueTime: "noon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCreateOnlineCachesBackendRow(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	src := &mockSource{}
	saved := testutil.Task("remote-1", "Call bank", due)
	src.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "Call bank" && task.Status == model.StatusPending
	})).Return(&saved, nil)

	svc := NewService(st, WithSource(src), WithLocation(time.UTC))
	created, err := svc.Create(ctx, NewTask{Title: "Call bank", DueDate: "2026-10-20"})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", created.ID)

	cached, err := st.GetTaskByID(ctx, "remote-1")
	require.NoError(t, err)
	assert.Equal(t, "Call bank", cached.Title)
	src.AssertExpectations(t)
}

func TestCreateOnlineBackendFailure(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	src := &mockSource{}
	src.On("CreateTask", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	l := &recordingListener{}

	svc := NewService(st, WithSource(src), WithListener(l))
	_, err := svc.Create(ctx, NewTask{Title: "Call bank", DueDate: "2026-10-20"})
	require.Error(t, err)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, l.calls)
}

func TestToggleDoneOffline(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))
	svc := NewService(st)

	task, err := svc.Get(ctx, "t1")
	require.NoError(t, err)

	done, err := svc.ToggleDone(ctx, *task)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	undone, err := svc.ToggleDone(ctx, *done)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, undone.Status)
}

func TestSetStatusOnline(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))

	updated := testutil.Task("t1", "Report", due)
	updated.Status = model.StatusInProgress
	status := model.StatusInProgress
	src := &mockSource{}
	src.On("UpdateTask", mock.Anything, "t1", source.TaskUpdate{Status: &status}).Return(&updated, nil)
	l := &recordingListener{}

	svc := NewService(st, WithSource(src), WithListener(l))
	got, err := svc.SetStatus(ctx, "t1", model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	cached, err := st.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, cached.Status)
	require.Len(t, l.calls, 1)
	src.AssertExpectations(t)
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc := NewService(testutil.NewTestStore(t))
	_, err := svc.SetStatus(context.Background(), "t1", model.TaskStatus("archived"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("offline", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))
		svc := NewService(st)

		require.NoError(t, svc.Delete(ctx, "t1"))
		assert.ErrorIs(t, svc.Delete(ctx, "t1"), store.ErrNotFound)
	})

	t.Run("online tolerates uncached task", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		src := &mockSource{}
		src.On("DeleteTask", mock.Anything, "remote-9").Return(nil)
		l := &recordingListener{}
		svc := NewService(st, WithSource(src), WithListener(l))

		require.NoError(t, svc.Delete(ctx, "remote-9"))
		assert.Len(t, l.calls, 1)
		src.AssertExpectations(t)
	})

	t.Run("backend failure keeps cache", func(t *testing.T) {
		st := testutil.NewTestStore(t)
		testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))
		src := &mockSource{}
		src.On("DeleteTask", mock.Anything, "t1").Return(errors.New("offline"))
		svc := NewService(st, WithSource(src))

		require.Error(t, svc.Delete(ctx, "t1"))
		_, err := st.GetTaskByID(ctx, "t1")
		assert.NoError(t, err)
	})
}

func ptr[T any](v T) *T { return &v }

func TestUpdateOfflineReschedulesNotifications(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	overdue := testutil.Task("t1", "Report", time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	testutil.SeedTasks(t, st, overdue)

	engine := notify.New(notify.Options{
		KV:       kv.NewMemory(),
		Clock:    clockwork.NewFakeClockAt(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)),
		Location: time.UTC,
	})
	t.Cleanup(engine.Close)
	engine.TasksChanged([]model.Task{overdue})
	require.Len(t, engine.Notifications(), 1)
	require.Equal(t, notify.TitleOverdue, engine.Notifications()[0].Title)

	svc := NewService(st, WithListener(engine), WithLocation(time.UTC))
	got, err := svc.Update(ctx, "t1", source.TaskUpdate{
		Title:   ptr(" Quarterly report "),
		DueDate: ptr("2026-10-19"),
		DueTime: ptr("14:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly report", got.Title)
	assert.Equal(t, "2026-10-19", got.DueDate)
	assert.Equal(t, "14:00", got.DueTime)

	list := engine.Notifications()
	require.Len(t, list, 1)
	assert.Equal(t, notify.TitleDueTomorrow, list[0].Title)
	assert.Contains(t, list[0].Message, "Quarterly report")
}

func TestUpdateOnlineWritesThrough(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))

	edit := source.TaskUpdate{Description: ptr("with charts"), DueDate: ptr("2026-10-22")}
	saved := testutil.Task("t1", "Report", due)
	saved.Description = "with charts"
	saved.DueDate = "2026-10-22"
	src := &mockSource{}
	src.On("UpdateTask", mock.Anything, "t1", edit).Return(&saved, nil)
	l := &recordingListener{}

	svc := NewService(st, WithSource(src), WithListener(l), WithLocation(time.UTC))
	got, err := svc.Update(ctx, "t1", source.TaskUpdate{Description: ptr("with charts "), DueDate: ptr("2026-10-22")})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-22", got.DueDate)

	cached, err := st.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "with charts", cached.Description)
	assert.Equal(t, "2026-10-22", cached.DueDate)
	require.Len(t, l.calls, 1)
	src.AssertExpectations(t)
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	testutil.SeedTasks(t, st, testutil.Task("t1", "Report", due))
	l := &recordingListener{}
	svc := NewService(st, WithListener(l), WithLocation(time.UTC))

	cases := map[string]source.TaskUpdate{
		"nothing to change": {},
		"blank title":       {Title: ptr("   ")},
		"bad date":          {DueDate: ptr("next week")},
		"bad time":          {DueTime: ptr("25:99")},
		"unknown status":    {Status: ptr(model.TaskStatus("archived"))},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(ctx, "t1", u)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := svc.Update(ctx, "missing", source.TaskUpdate{Title: ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, l.calls)
}
