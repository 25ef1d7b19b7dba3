package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/source"
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
	mu    gosync.Mutex
	calls [][]model.Task
}

func (l *recordingListener) TasksChanged(tasks []model.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, tasks)
}

func (l *recordingListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

var due = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func TestSyncOnceStoresAndPublishes(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.SeedTasks(t, s, testutil.Task("old", "Gone upstream", due), testutil.Task("a", "A", due))

	src := &mockSource{}
	remote := []model.Task{testutil.Task("a", "A", due), testutil.Task("b", "B", due)}
	src.On("FetchTasks", mock.Anything).Return(remote, nil).Once()

	listener := &recordingListener{}
	p := New(s, src, WithListener(listener))

	res := p.SyncOnce(ctx)
	require.NoError(t, res.Error)
	assert.Equal(t, 1, res.NewTaskCount)
	assert.Len(t, res.Tasks, 2)

	cached, err := s.GetTasks(ctx, model.TaskFilters{SortBy: "title"})
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, "a", cached[0].ID)
	assert.Equal(t, "b", cached[1].ID)

	assert.Equal(t, 1, listener.count())
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())
	src.AssertExpectations(t)
}

func TestSyncOnceAuthError(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &mockSource{}
	src.On("FetchTasks", mock.Anything).
		Return(nil, &source.AuthError{SourceType: source.SourceTypeBackend, Message: "JWT expired"})

	listener := &recordingListener{}
	p := New(s, src, WithListener(listener))

	res := p.SyncOnce(context.Background())
	require.Error(t, res.Error)
	require.NotNil(t, res.AuthError)
	assert.Contains(t, res.AuthError.Message, "auth login")
	assert.Equal(t, SyncError, p.Status().State)
	assert.Zero(t, listener.count())
}

func TestSyncOnceFetchErrorKeepsCache(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.SeedTasks(t, s, testutil.Task("a", "A", due))

	src := &mockSource{}
	src.On("FetchTasks", mock.Anything).Return(nil, errors.New("connection reset"))

	res := New(s, src).SyncOnce(ctx)
	require.Error(t, res.Error)
	assert.Nil(t, res.AuthError)

	cached, err := s.GetTasks(ctx, model.TaskFilters{})
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestPollerStartRefreshStop(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &mockSource{}
	src.On("FetchTasks", mock.Anything).Return([]model.Task{testutil.Task("a", "A", due)}, nil)

	listener := &recordingListener{}
	p := New(s, src, WithListener(listener), WithInterval(time.Hour))

	cmd := p.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, p.Start(), "second Start is a no-op")

	msg, ok := cmd().(SyncResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.Error)
	assert.Equal(t, 1, msg.NewTaskCount)

	p.Refresh()
	msg, ok = p.WaitForNextResult()().(SyncResultMsg)
	require.True(t, ok)
	assert.Zero(t, msg.NewTaskCount)

	p.Stop()
	p.Stop()
	assert.Equal(t, 2, listener.count())
}
