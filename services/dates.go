package services

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateOnly maps t onto UTC midnight of its own calendar date so that ledger
// dates compare consistently across drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
	}
	return t, nil
}

// DaysInWindow counts calendar days in the inclusive window [start, end].
func DaysInWindow(start, end time.Time) int {
	s, e := DateOnly(start), DateOnly(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: DateOnly(start), End: DateOnly(end)}
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("%w: end date %s is before start date %s",
			ErrValidation, w.End.Format(dateLayout), w.Start.Format(dateLayout))
	}
	return w, nil
}

func (w Window) Days() int { return DaysInWindow(w.Start, w.End) }

func (w Window) String() string {
	return w.Start.Format(dateLayout) + ".." + w.End.Format(dateLayout)
}
