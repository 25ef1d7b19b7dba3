package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/kv"
	"github.com/nhle/taskflow/internal/model"
)

func newTestStore(t *testing.T, store kv.Store) (*Store, *clockwork.FakeClock) {
	t.Helper()
	fake := clockwork.NewFakeClockAt(testNow)
	s := NewStore(store, WithClock(fake))
	t.Cleanup(s.Close)
	return s, fake
}

// pendingExpiries reports how many expiry timers s still holds.
func pendingExpiries(s *Store) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// waitFor polls cond; fake clock callbacks run on their own goroutines.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond, msg)
}

func overdueDraft(taskID, msg string) model.NotificationDraft {
	return model.NotificationDraft{
		Title:      TitleOverdue,
		Message:    msg,
		Type:       model.NotificationError,
		TaskID:     taskID,
		Persistent: true,
	}
}

func TestStoreUpsertPrependsNewest(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	first, created := s.Upsert(overdueDraft("t1", "one"))
	require.True(t, created)
	second, created := s.Upsert(overdueDraft("t2", "two"))
	require.True(t, created)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStoreUpsertReplacesSameSubject(t *testing.T) {
	s, fake := newTestStore(t, kv.NewMemory())

	original, _ := s.Upsert(overdueDraft("t1", `"A" was due 1 day(s) ago`))
	fake.Advance(time.Hour)
	updated, created := s.Upsert(overdueDraft("t1", `"A" was due 2 day(s) ago`))

	assert.False(t, created)
	assert.Equal(t, original.ID, updated.ID)
	assert.True(t, updated.Timestamp.After(original.Timestamp))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, `"A" was due 2 day(s) ago`, list[0].Message)

	// A different title for the same task is a separate subject.
	_, created = s.Upsert(model.NotificationDraft{
		Title: TitleDueToday, Type: model.NotificationWarning, TaskID: "t1", Persistent: true,
	})
	assert.True(t, created)
	assert.Len(t, s.List(), 2)
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	n, _ := s.Upsert(overdueDraft("t1", "x"))
	s.Remove(n.ID)
	s.Remove(n.ID)
	s.Remove("unknown")

	assert.Empty(t, s.List())
}

func TestStorePersistsOnlyPersistentEntries(t *testing.T) {
	store := kv.NewMemory()
	s, _ := newTestStore(t, store)

	kept, _ := s.Upsert(overdueDraft("t1", "kept"))
	s.Upsert(model.NotificationDraft{Title: "Saved", Message: "ok", Type: model.NotificationSuccess})

	raw, err := store.Get(PersistKey)
	require.NoError(t, err)

	var saved []model.Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, kept.ID, saved[0].ID)

	s.Remove(kept.ID)
	_, err = store.Get(PersistKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreRoundTrip(t *testing.T) {
	store := kv.NewMemory()
	s, _ := newTestStore(t, store)

	a, _ := s.Upsert(overdueDraft("t1", "a"))
	b, _ := s.Upsert(overdueDraft("t2", "b"))
	s.Upsert(model.NotificationDraft{Title: "Ephemeral", Type: model.NotificationInfo})

	reloaded, _ := newTestStore(t, store)
	list := reloaded.List()
	require.Len(t, list, 2)

	byID := map[string]model.Notification{}
	for _, n := range list {
		byID[n.ID] = n
	}
	for _, want := range []model.Notification{a, b} {
		got, ok := byID[want.ID]
		require.True(t, ok, want.ID)
		assert.Equal(t, want.Title, got.Title)
		assert.Equal(t, want.Message, got.Message)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.TaskID, got.TaskID)
		assert.True(t, got.Persistent)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
	}
}

func TestStoreDiscardsCorruptPersistedData(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(PersistKey, "{not json"))

	s, _ := newTestStore(t, store)
	assert.Empty(t, s.List())

	_, err := store.Get(PersistKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreNonPersistentExpiry(t *testing.T) {
	s, fake := newTestStore(t, kv.NewMemory())

	n, _ := s.Upsert(model.NotificationDraft{Title: "Saved", Type: model.NotificationSuccess})
	_, ok := s.Get(n.ID)
	require.True(t, ok)

	fake.Advance(DefaultExpiry - time.Millisecond)
	_, ok = s.Get(n.ID)
	assert.True(t, ok)

	fake.Advance(time.Millisecond)
	waitFor(t, func() bool {
		_, ok := s.Get(n.ID)
		return !ok
	}, "notification should expire")
	assert.Zero(t, pendingExpiries(s))
}

func TestStoreReupsertRestartsExpiry(t *testing.T) {
	s, fake := newTestStore(t, kv.NewMemory())
	draft := model.NotificationDraft{Title: "Synced", Type: model.NotificationInfo}

	n, _ := s.Upsert(draft)
	fake.Advance(3 * time.Second)
	s.Upsert(draft)
	fake.Advance(3 * time.Second)

	_, ok := s.Get(n.ID)
	assert.True(t, ok, "expiry should restart on re-upsert")

	fake.Advance(2 * time.Second)
	waitFor(t, func() bool {
		_, ok := s.Get(n.ID)
		return !ok
	}, "notification should expire after the restarted delay")
}

func TestStoreEarlyRemovalStopsTimer(t *testing.T) {
	s, fake := newTestStore(t, kv.NewMemory())

	n, _ := s.Upsert(model.NotificationDraft{Title: "Saved", Type: model.NotificationSuccess})
	require.Equal(t, 1, pendingExpiries(s))

	s.Remove(n.ID)
	assert.Zero(t, pendingExpiries(s))
	fake.Advance(DefaultExpiry)
	assert.Empty(t, s.List())
}

func TestStorePruneCompleted(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	s.Upsert(overdueDraft("t1", "a"))
	s.Upsert(model.NotificationDraft{Title: TitleDueToday, Type: model.NotificationWarning, TaskID: "t1"})
	s.Upsert(overdueDraft("t2", "b"))
	s.Upsert(model.NotificationDraft{Title: "General", Type: model.NotificationInfo, Persistent: true})

	s.PruneCompleted([]string{"t1"})

	list := s.List()
	require.Len(t, list, 2)
	for _, n := range list {
		assert.NotEqual(t, "t1", n.TaskID)
	}
}

func TestStoreClearAll(t *testing.T) {
	store := kv.NewMemory()
	s, _ := newTestStore(t, store)

	s.Upsert(overdueDraft("t1", "a"))
	s.Upsert(model.NotificationDraft{Title: "Saved", Type: model.NotificationSuccess})

	s.ClearAll()

	assert.Empty(t, s.List())
	assert.Zero(t, pendingExpiries(s))
	_, err := store.Get(PersistKey)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestStoreSubscribe(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	var seen []int
	unsubscribe := s.Subscribe(func(list []model.Notification) {
		seen = append(seen, len(list))
	})

	n, _ := s.Upsert(overdueDraft("t1", "a"))
	s.Upsert(overdueDraft("t2", "b"))
	s.Remove(n.ID)
	unsubscribe()
	s.ClearAll()

	assert.Equal(t, []int{1, 2, 1}, seen)
}

func TestStoreSubscribersSeeCommitOrder(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	var seen []int
	s.Subscribe(func(list []model.Notification) {
		seen = append(seen, len(list))
	})

	s.Upsert(overdueDraft("t1", "a"))
	s.mu.Lock()
	stale := s.commitLocked()
	s.items = append(s.items, model.Notification{ID: "extra", Persistent: true})
	fresh := s.commitLocked()
	s.mu.Unlock()

	// A goroutine that committed first may publish last.
	s.publish(fresh)
	s.publish(stale)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestStoreConcurrentMutationsEndOnLatestList(t *testing.T) {
	s, _ := newTestStore(t, kv.NewMemory())

	var (
		mu   sync.Mutex
		last []model.Notification
	)
	s.Subscribe(func(list []model.Notification) {
		mu.Lock()
		last = list
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Upsert(overdueDraft(fmt.Sprintf("t%d", i), "m"))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, last, 20)
	assert.Equal(t, s.List(), last)
}

func TestStoreCloseStopsTimers(t *testing.T) {
	s, fake := newTestStore(t, kv.NewMemory())

	n, _ := s.Upsert(model.NotificationDraft{Title: "Saved", Type: model.NotificationSuccess})
	s.Close()
	assert.Zero(t, pendingExpiries(s))

	fake.Advance(DefaultExpiry)
	_, ok := s.Get(n.ID)
	assert.True(t, ok, "Close leaves the list intact")
}
