// Package notify implements the due-date notification engine: it classifies
// tasks against the current time, suppresses repeats within a calendar day,
// keeps the active notification list (mirroring persistent entries to a
// durable key-value store) and optionally mirrors new notifications to the
// platform's native notification surface.
package notify

import (
	"fmt"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// Titles used by the evaluator. Together with the task ID and type they
// identify a notification subject.
const (
	TitleOverdue     = "Task Overdue"
	TitleDueSoon     = "Task Due Soon"
	TitleDueToday    = "Task Due Today"
	TitleDueTomorrow = "Task Due Tomorrow"
)

const (
	day = 24 * time.Hour

	// clockLayout renders the time of day in 12-hour form, e.g. "2:00 PM".
	clockLayout = "3:04 PM"
)

// Evaluate classifies task relative to now and returns the notification it
// warrants. ok is false for completed tasks and tasks due two or more days
// out. A task whose due date cannot be parsed yields an error.
func Evaluate(task model.Task, now time.Time, loc *time.Location) (draft model.NotificationDraft, ok bool, err error) {
	if task.IsCompleted() {
		return model.NotificationDraft{}, false, nil
	}
	if loc == nil {
		loc = time.Local
	}

	due, err := task.EffectiveDue(loc)
	if err != nil {
		return model.NotificationDraft{}, false, err
	}

	diff := due.Sub(now)
	hoursDiff := floorDiv(diff, time.Hour)
	daysDiff := floorDiv(diff, day)

	draft = model.NotificationDraft{
		TaskID:     task.ID,
		Persistent: true,
	}

	switch {
	case diff < 0:
		overdue := -diff
		draft.Title = TitleOverdue
		draft.Type = model.NotificationError
		if days := int64(overdue / day); days > 0 {
			draft.Message = fmt.Sprintf(`"%s" was due %d day(s) ago`, task.Title, days)
		} else if hours := int64(overdue / time.Hour); hours > 0 {
			draft.Message = fmt.Sprintf(`"%s" was due %d hour(s) ago`, task.Title, hours)
		} else {
			draft.Message = fmt.Sprintf(`"%s" is now overdue`, task.Title)
		}
	case hoursDiff >= 0 && hoursDiff <= 1:
		draft.Title = TitleDueSoon
		draft.Type = model.NotificationWarning
		draft.Message = fmt.Sprintf(`"%s" is due in %d hour(s)`, task.Title, max(1, hoursDiff))
	case daysDiff == 0:
		draft.Title = TitleDueToday
		draft.Type = model.NotificationWarning
		draft.Message = fmt.Sprintf(`"%s" is due today at %s`, task.Title, due.In(loc).Format(clockLayout))
	case daysDiff == 1:
		draft.Title = TitleDueTomorrow
		draft.Type = model.NotificationInfo
		draft.Message = fmt.Sprintf(`"%s" is due tomorrow at %s`, task.Title, due.In(loc).Format(clockLayout))
	default:
		return model.NotificationDraft{}, false, nil
	}

	return draft, true, nil
}

// floorDiv divides d by unit rounding toward negative infinity.
func floorDiv(d, unit time.Duration) int64 {
	q := int64(d / unit)
	if d%unit != 0 && d < 0 {
		q--
	}
	return q
}
