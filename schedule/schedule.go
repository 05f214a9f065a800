// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a UTC wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "H:M" (e.g. "16:00", "9:30").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q: expected H:M", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ParseWeekday parses an English weekday name, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Trigger fires Action once a week at the given UTC day and time of day.
// The underlying timer ticks daily at the time of day; gating the tick on
// the weekday converts it into a weekly trigger.
type Trigger struct {
	Name   string
	Day    time.Weekday
	At     TimeOfDay
	Action func()

	now func() time.Time // test override
}

// Run blocks, firing Action at each matching instant, until ctx is
// canceled. A tick that arrives while the process is down is not replayed.
func (t *Trigger) Run(ctx context.Context) {
	slog.Info("trigger scheduled", "name", t.Name, "day", t.Day.String(), "at", t.At.String())
	for {
		now := t.timeNow()
		timer := time.NewTimer(nextDaily(now, t.At).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if !t.shouldFire(t.timeNow()) {
				continue
			}
			slog.Info("trigger fired", "name", t.Name)
			t.Action()
		}
	}
}

// shouldFire is the weekday gate applied to each daily tick.
func (t *Trigger) shouldFire(now time.Time) bool {
	return now.UTC().Weekday() == t.Day
}

func (t *Trigger) timeNow() time.Time {
	if t.now != nil {
		return t.now().UTC()
	}
	return time.Now().UTC()
}

// NextOccurrence returns the next instant strictly after now that falls on
// day at the given UTC time of day. Used both for scheduling and for the
// round-end instant quoted in announcements, so the two can never disagree.
func NextOccurrence(now time.Time, day time.Weekday, at TimeOfDay) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, time.UTC)
	next = next.AddDate(0, 0, (int(day)-int(now.Weekday())+7)%7)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func nextDaily(now time.Time, at TimeOfDay) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// FormatRemaining renders a duration as "N days, N hours, and N minutes".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%d days, %d hours, and %d minutes", days, hours, minutes)
}
