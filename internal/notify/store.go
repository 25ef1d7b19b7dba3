package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/kv"
	"github.com/nhle/taskflow/internal/model"
)

// PersistKey is the key-value key holding the JSON array of persistent
// notifications.
const PersistKey = "taskflow_notifications"

// DefaultExpiry is how long non-persistent notifications stay active.
const DefaultExpiry = 5 * time.Second

// Store is the ordered list of active notifications, newest first.
// Persistent entries are mirrored to the key-value store after every
// mutation; non-persistent entries are removed after the expiry delay.
type Store struct {
	kv     kv.Store
	clock  clockwork.Clock
	expiry time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	items  []model.Notification
	timers map[string]*expiryTimer
	subs   []func([]model.Notification)
	closed bool
	newID  func() string

	// rev counts commits; pubMu serializes delivery so subscribers never
	// see a revision older than one already delivered.
	rev       uint64
	pubMu     sync.Mutex
	published uint64
}

// revision is the list as of one commit.
type revision struct {
	seq   uint64
	items []model.Notification
}

type expiryTimer struct {
	timer clockwork.Timer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used for timestamps and expiry timers.
func WithClock(c clockwork.Clock) StoreOption {
	return func(s *Store) { s.clock = c }
}

// WithExpiry sets the lifetime of non-persistent notifications.
func WithExpiry(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a Store backed by store and seeds it with previously
// persisted notifications. Corrupt persisted data is discarded.
func NewStore(store kv.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:     store,
		clock:  clockwork.NewRealClock(),
		expiry: DefaultExpiry,
		logger: zap.NewNop(),
		timers: make(map[string]*expiryTimer),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.items = s.load()
	return s
}

func (s *Store) load() []model.Notification {
	raw, err := s.kv.Get(PersistKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("reading saved notifications", zap.Error(err))
		}
		return nil
	}

	var saved []model.Notification
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		s.logger.Error("loading saved notifications", zap.Error(err))
		if err := s.kv.Remove(PersistKey); err != nil {
			s.logger.Warn("removing corrupt notifications", zap.Error(err))
		}
		return nil
	}

	items := make([]model.Notification, 0, len(saved))
	for _, n := range saved {
		if n.ID == "" {
			continue
		}
		n.Persistent = true
		items = append(items, n)
	}
	return items
}

// Upsert adds the notification described by d. If an active notification
// has the same (TaskID, Type, Title) it is replaced in place, keeping its ID.
// Otherwise a new notification is prepended. It returns the stored entry and
// whether it was newly created.
func (s *Store) Upsert(d model.NotificationDraft) (model.Notification, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Notification{}, false
	}

	n := model.Notification{
		Title:      d.Title,
		Message:    d.Message,
		Type:       d.Type,
		Timestamp:  s.clock.Now(),
		TaskID:     d.TaskID,
		Persistent: d.Persistent,
	}

	created := true
	idx := -1
	for i, existing := range s.items {
		if existing.SameSubject(d) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		n.ID = s.items[idx].ID
		s.items[idx] = n
		created = false
	} else {
		n.ID = s.newID()
		s.items = append([]model.Notification{n}, s.items...)
	}

	s.stopTimerLocked(n.ID)
	if !n.Persistent {
		s.scheduleExpiryLocked(n.ID)
	}

	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.publish(snapshot)
	return n, created
}

// Remove deletes the notification with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if !s.removeLocked(func(n model.Notification) bool { return n.ID == id }) {
		s.mu.Unlock()
		return
	}
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.publish(snapshot)
}

// PruneCompleted removes every notification that references one of the
// given task IDs, regardless of persistence.
func (s *Store) PruneCompleted(taskIDs []string) {
	if len(taskIDs) == 0 {
		return
	}
	done := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		done[id] = struct{}{}
	}

	s.mu.Lock()
	removed := s.removeLocked(func(n model.Notification) bool {
		if n.TaskID == "" {
			return false
		}
		_, ok := done[n.TaskID]
		return ok
	})
	if !removed {
		s.mu.Unlock()
		return
	}
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.publish(snapshot)
}

// ClearAll removes every notification and erases the persisted subset.
func (s *Store) ClearAll() {
	s.mu.Lock()
	for id := range s.timers {
		s.stopTimerLocked(id)
	}
	s.items = nil
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.publish(snapshot)
}

// List returns a copy of the active notifications, newest first.
func (s *Store) List() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Get returns the notification with the given id.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Subscribe registers fn to receive the notification list after every
// mutation. Lists are delivered in commit order; a list superseded before
// delivery is skipped. fn runs outside the store lock and may read the
// store, but must not mutate it. The returned function unregisters it.
func (s *Store) Subscribe(fn func([]model.Notification)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.subs) {
			s.subs[idx] = nil
		}
	}
}

// Close stops all pending expiry timers. Later mutations through Upsert are
// ignored; the list itself is left intact.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.timers {
		s.stopTimerLocked(id)
	}
	s.closed = true
}

func (s *Store) removeLocked(match func(model.Notification) bool) bool {
	kept := s.items[:0]
	removed := false
	for _, n := range s.items {
		if match(n) {
			s.stopTimerLocked(n.ID)
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	s.items = kept
	return removed
}

func (s *Store) scheduleExpiryLocked(id string) {
	et := &expiryTimer{}
	et.timer = s.clock.AfterFunc(s.expiry, func() {
		s.expire(id, et)
	})
	s.timers[id] = et
}

// expire removes id unless its timer was replaced or stopped since it was
// scheduled.
func (s *Store) expire(id string, et *expiryTimer) {
	s.mu.Lock()
	if s.timers[id] != et {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.removeLocked(func(n model.Notification) bool { return n.ID == id })
	snapshot := s.commitLocked()
	s.mu.Unlock()

	s.publish(snapshot)
}

func (s *Store) stopTimerLocked(id string) {
	if et, ok := s.timers[id]; ok {
		et.timer.Stop()
		delete(s.timers, id)
	}
}

// commitLocked rewrites the persisted subset and returns the new revision
// for subscribers.
func (s *Store) commitLocked() revision {
	if err := s.persistLocked(); err != nil {
		s.logger.Warn("saving notifications", zap.Error(err))
	}
	s.rev++
	return revision{seq: s.rev, items: slices.Clone(s.items)}
}

func (s *Store) persistLocked() error {
	var persistent []model.Notification
	for _, n := range s.items {
		if n.Persistent {
			persistent = append(persistent, n)
		}
	}

	if len(persistent) == 0 {
		if err := s.kv.Remove(PersistKey); err != nil {
			return fmt.Errorf("removing %s: %w", PersistKey, err)
		}
		return nil
	}

	data, err := json.Marshal(persistent)
	if err != nil {
		return fmt.Errorf("encoding notifications: %w", err)
	}
	if err := s.kv.Set(PersistKey, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", PersistKey, err)
	}
	return nil
}

func (s *Store) publish(r revision) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if r.seq <= s.published {
		return
	}
	s.published = r.seq

	s.mu.Lock()
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(r.items)
		}
	}
}
