// Package timeparse converts user-entered event dates and times into
// absolute UTC instants. Input is local to a configured location; the
// conversion happens once at link creation so later reminder arithmetic is
// immune to timezone and DST drift.
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrBadFormat reports input that is not DD.MM(.YYYY) / HH:MM.
	ErrBadFormat = errors.New("unrecognized date or time format")
	// ErrPastTime reports an explicit date and time that already passed.
	ErrPastTime = errors.New("event time is in the past")
)

var dateLayouts = []string{"02.01", "02.01.2006", "02.01.06"}

// ParseEvent parses timeStr ("HH:MM") with an optional dateStr ("DD.MM",
// "DD.MM.YYYY" or "DD.MM.YY") interpreted in loc, relative to now.
//
// Rules carried over from the bot's input conventions:
//   - no date and the time already passed today: the event is tomorrow
//   - "DD.MM" on a date already past this year: the event is next year
//   - an explicit full date in the past is rejected with ErrPastTime
//
// Returns the UTC instant and the display string shown back to users.
func ParseEvent(dateStr, timeStr string, now time.Time, loc *time.Location) (time.Time, string, error) {
	parsedTime, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: time %q", ErrBadFormat, timeStr)
	}

	nowLocal := now.In(loc)
	year, month, day := nowLocal.Date()
	explicitDate := false

	if dateStr != "" {
		normalized := strings.ReplaceAll(dateStr, " ", ".")
		var parsedDate time.Time
		var layout string
		for _, l := range dateLayouts {
			parsedDate, err = time.Parse(l, normalized)
			if err == nil {
				layout = l
				break
			}
		}
		if layout == "" {
			return time.Time{}, "", fmt.Errorf("%w: date %q", ErrBadFormat, dateStr)
		}

		month = parsedDate.Month()
		day = parsedDate.Day()
		if layout == "02.01" {
			// Day and month only: assume this year, roll to the next one
			// if the date has already passed.
			startOfToday := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)
			candidate := time.Date(nowLocal.Year(), month, day, 0, 0, 0, 0, loc)
			if candidate.Before(startOfToday) {
				year = nowLocal.Year() + 1
			}
		} else {
			year = parsedDate.Year()
			explicitDate = true
		}
	}

	event := time.Date(year, month, day, parsedTime.Hour(), parsedTime.Minute(), 0, 0, loc)

	if !explicitDate && dateStr == "" && !event.After(nowLocal) {
		// Time of day already passed: the event is tomorrow.
		event = event.AddDate(0, 0, 1)
	}
	if !event.After(nowLocal) {
		return time.Time{}, "", fmt.Errorf("%w: %s", ErrPastTime, event.Format("02.01.2006 15:04"))
	}

	display := timeStr
	if dateStr != "" {
		display = dateStr + " " + timeStr
	} else {
		display = event.Format("02.01") + " " + timeStr
	}

	return event.UTC(), display, nil
}
