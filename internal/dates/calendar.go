package dates

import (
	"fmt"
	"time"
)

// ISODate is the wire format for all resolved dates.
const ISODate = "2006-01-02"

// Calendar converts semantic labels into concrete inclusive [start, end]
// ISO date pairs relative to a fixed reference date. Resolution is pure:
// the same label and reference date always produce the same range.
type Calendar struct {
	ref time.Time // reference "today", truncated to a UTC calendar date
}

// NewCalendar creates a calendar anchored at the given reference date.
// The time-of-day and location of ref are discarded.
func NewCalendar(ref time.Time) *Calendar {
	return &Calendar{
		ref: time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC),
	}
}

// Reference returns the calendar's reference date as an ISO string.
func (c *Calendar) Reference() string {
	return c.ref.Format(ISODate)
}

// Resolve converts a label into an inclusive (start, end) ISO date pair.
//
// explicit is consulted only for LabelExplicitDate and must be an ISO date.
// customDays is consulted only for LabelPastDays and must be positive.
// An error indicates a caller contract violation (unknown label or missing
// required metadata), never a calendar-arithmetic failure.
func (c *Calendar) Resolve(label Label, explicit string, customDays int) (string, string, error) {
	switch {
	case label == LabelExplicitDate:
		d, err := time.Parse(ISODate, explicit)
		if err != nil {
			return "", "", fmt.Errorf("label %q requires a valid ISO date, got %q: %w", label, explicit, err)
		}
		s := d.Format(ISODate)
		return s, s, nil

	case label == LabelPastDays:
		if customDays <= 0 {
			return "", "", fmt.Errorf("label %q requires a positive custom day count, got %d", label, customDays)
		}
		return c.pastDays(customDays)

	case label == LabelToday:
		s := c.ref.Format(ISODate)
		return s, s, nil

	case label == LabelYesterday:
		s := c.ref.AddDate(0, 0, -1).Format(ISODate)
		return s, s, nil

	case label == LabelThisWeek:
		return c.span(c.monday(), c.ref)

	case label == LabelLastWeek:
		monday := c.monday()
		return c.span(monday.AddDate(0, 0, -7), monday.AddDate(0, 0, -1))

	case label == LabelThisMonth, label == LabelMTD:
		first := time.Date(c.ref.Year(), c.ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return c.span(first, c.ref)

	case label == LabelLastMonth:
		firstThis := time.Date(c.ref.Year(), c.ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		lastPrev := firstThis.AddDate(0, 0, -1)
		firstPrev := time.Date(lastPrev.Year(), lastPrev.Month(), 1, 0, 0, 0, 0, time.UTC)
		return c.span(firstPrev, lastPrev)

	case label == LabelThisYear, label == LabelYTD:
		jan1 := time.Date(c.ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return c.span(jan1, c.ref)

	case label == LabelLastYear:
		y := c.ref.Year() - 1
		return fmt.Sprintf("%d-01-01", y), fmt.Sprintf("%d-12-31", y), nil

	case label == LabelDefault:
		// Trailing 7-day window that, unlike the past_* family, includes
		// the reference date itself.
		return c.span(c.ref.AddDate(0, 0, -7), c.ref)
	}

	if n, ok := pastDayCounts[label]; ok {
		return c.pastDays(n)
	}

	if month, ok := monthLabels[label]; ok {
		return c.monthRange(month)
	}

	if startMonth, ok := quarterStarts[label]; ok {
		return c.quarterRange(startMonth)
	}

	return "", "", fmt.Errorf("unknown date label: %q", label)
}

// pastDays resolves the strict "past N days" window: the N days ending the
// day before the reference date. The reference date is never included.
func (c *Calendar) pastDays(n int) (string, string, error) {
	return c.span(c.ref.AddDate(0, 0, -n), c.ref.AddDate(0, 0, -1))
}

// monthRange resolves a named month to its full calendar bounds in the
// nearest year where the month is not in the future. The reference month
// itself resolves to the current, in-progress month.
func (c *Calendar) monthRange(month time.Month) (string, string, error) {
	year := c.ref.Year()
	if month > c.ref.Month() {
		year--
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return c.span(first, last)
}

// quarterRange resolves a quarter to its full calendar bounds in the
// nearest year whose quarter start is not in the future.
func (c *Calendar) quarterRange(startMonth time.Month) (string, string, error) {
	year := c.ref.Year()
	if startMonth > c.ref.Month() {
		year--
	}
	first := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 3, -1)
	return c.span(first, last)
}

// monday returns the most recent Monday on or before the reference date.
func (c *Calendar) monday() time.Time {
	offset := (int(c.ref.Weekday()) + 6) % 7
	return c.ref.AddDate(0, 0, -offset)
}

func (c *Calendar) span(start, end time.Time) (string, string, error) {
	return start.Format(ISODate), end.Format(ISODate), nil
}
