package timeparse

import (
	"errors"
	"testing"
	"time"
)

var loc = mustLoadLocation()

func mustLoadLocation() *time.Location {
	l, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		panic(err)
	}
	return l
}

// now is 15.06.2025 12:00 Moscow time in all tests.
func testNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, loc).UTC()
}

func TestParseEvent_TimeOnlyLaterToday(t *testing.T) {
	event, display, err := ParseEvent("", "18:30", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 6, 15, 18, 30, 0, 0, loc).UTC()
	if !event.Equal(want) {
		t.Fatalf("event %v, want %v", event, want)
	}
	if display != "15.06 18:30" {
		t.Fatalf("display %q", display)
	}
}

func TestParseEvent_TimeOnlyPassedRollsToTomorrow(t *testing.T) {
	event, display, err := ParseEvent("", "09:00", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 6, 16, 9, 0, 0, 0, loc).UTC()
	if !event.Equal(want) {
		t.Fatalf("event %v, want %v", event, want)
	}
	if display != "16.06 09:00" {
		t.Fatalf("display %q", display)
	}
}

func TestParseEvent_ShortDatePassedRollsToNextYear(t *testing.T) {
	event, _, err := ParseEvent("01.03", "10:00", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, loc).UTC()
	if !event.Equal(want) {
		t.Fatalf("event %v, want %v", event, want)
	}
}

func TestParseEvent_ShortDateToday(t *testing.T) {
	// Today's date with a time still ahead stays today.
	event, _, err := ParseEvent("15.06", "23:00", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 6, 15, 23, 0, 0, 0, loc).UTC()
	if !event.Equal(want) {
		t.Fatalf("event %v, want %v", event, want)
	}
}

func TestParseEvent_FullDate(t *testing.T) {
	event, display, err := ParseEvent("31.12.2025", "23:45", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 12, 31, 23, 45, 0, 0, loc).UTC()
	if !event.Equal(want) {
		t.Fatalf("event %v, want %v", event, want)
	}
	if display != "31.12.2025 23:45" {
		t.Fatalf("display %q", display)
	}
}

func TestParseEvent_ExplicitPastDateRejected(t *testing.T) {
	_, _, err := ParseEvent("01.01.2020", "10:00", testNow(), loc)
	if !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected ErrPastTime, got %v", err)
	}
}

func TestParseEvent_BadInput(t *testing.T) {
	cases := []struct {
		date string
		time string
	}{
		{"", "25:70"},
		{"", "noon"},
		{"2025-12-31", "10:00"},
		{"31/12", "10:00"},
	}
	for _, tc := range cases {
		_, _, err := ParseEvent(tc.date, tc.time, testNow(), loc)
		if !errors.Is(err, ErrBadFormat) {
			t.Fatalf("date=%q time=%q: expected ErrBadFormat, got %v", tc.date, tc.time, err)
		}
	}
}

func TestParseEvent_ResultIsUTC(t *testing.T) {
	event, _, err := ParseEvent("", "18:00", testNow(), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Location() != time.UTC {
		t.Fatalf("event location %v, want UTC", event.Location())
	}
}
