package notify

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/kv"
)

// markerPrefix namespaces daily dedup markers in the key-value store.
const markerPrefix = "notification_"

// DayBucket returns the integer day index since the Unix epoch for t.
func DayBucket(t time.Time) int64 {
	ms := t.UnixMilli()
	bucket := ms / int64(day/time.Millisecond)
	if ms < 0 && ms%int64(day/time.Millisecond) != 0 {
		bucket--
	}
	return bucket
}

// MarkerKey returns the key-value key of the dedup marker for taskID on the
// day containing now.
func MarkerKey(taskID string, now time.Time) string {
	return markerPrefix + taskID + "-" + strconv.FormatInt(DayBucket(now), 10)
}

// Deduplicator suppresses repeat emissions for a task within one calendar day.
type Deduplicator struct {
	kv     kv.Store
	loc    *time.Location
	logger *zap.Logger
}

// NewDeduplicator creates a Deduplicator over store. Calendar-day
// comparisons are made in loc.
func NewDeduplicator(store kv.Store, loc *time.Location, logger *zap.Logger) *Deduplicator {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{kv: store, loc: loc, logger: logger}
}

// NotifiedToday reports whether a marker for taskID exists in today's bucket
// and records an instant on today's calendar date. Unreadable or corrupt
// markers count as absent.
func (d *Deduplicator) NotifiedToday(taskID string, now time.Time) bool {
	key := MarkerKey(taskID, now)

	raw, err := d.kv.Get(key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			d.logger.Warn("reading dedup marker", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	last, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		d.logger.Warn("parsing dedup marker", zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return false
	}

	return sameDate(last.In(d.loc), now.In(d.loc))
}

// Mark records that taskID was notified at now.
func (d *Deduplicator) Mark(taskID string, now time.Time) error {
	key := MarkerKey(taskID, now)
	if err := d.kv.Set(key, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("writing dedup marker %s: %w", key, err)
	}
	return nil
}

// Clear removes the marker for taskID on the day containing now.
func (d *Deduplicator) Clear(taskID string, now time.Time) error {
	key := MarkerKey(taskID, now)
	if err := d.kv.Remove(key); err != nil {
		return fmt.Errorf("removing dedup marker %s: %w", key, err)
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
