// Package timeline groups memory records by calendar month and lays them out
// for the grid, list and timeline views.
//
// Everything in this package is pure: no I/O, no shared state. Callers fetch
// a snapshot of records, build a Timeline from it, and rebuild when the
// snapshot or the view mode changes.
package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Type selects which content branch a record renders with.
type Type string

const (
	TypePhoto Type = "photo"
	TypeVoice Type = "voice"
	TypeText  Type = "text"
)

// Known reports whether t is one of the three renderable types.
func (t Type) Known() bool {
	switch t {
	case TypePhoto, TypeVoice, TypeText:
		return true
	}
	return false
}

// Filter is a cosmetic styling tag for photo content.
type Filter string

const (
	FilterNone     Filter = "none"
	FilterPolaroid Filter = "polaroid"
	FilterSepia    Filter = "sepia"
	FilterVintage  Filter = "vintage"
)

// Record is a single journal entry as the engine sees it.
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"` // YYYY-MM-DD
	Type        Type     `json:"type"`
	Content     string   `json:"content"`
	Location    string   `json:"location,omitempty"`
	People      []string `json:"people,omitempty"`
	Filter      Filter   `json:"filter,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// InvalidDate is the label given to anything that does not parse as a date.
const InvalidDate = "Invalid Date"

const dateLayout = "2006-01-02"

// ParseDate reads a record date. Full timestamps are accepted and reduced to
// the calendar date as written, ignoring the zone. Anything after the date
// must start with 'T' or a space.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if len(s) > len(dateLayout) && (s[len(dateLayout)] == 'T' || s[len(dateLayout)] == ' ') {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// KeyOf returns the month a date string falls in.
func KeyOf(date string) (MonthKey, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return MonthKey{}, false
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, true
}

// Label formats the key the way the timeline headings read, e.g. "June 2023".
func (k MonthKey) Label() string {
	return fmt.Sprintf("%s %d", k.Month, k.Year)
}

// After reports whether k is a later month than o.
func (k MonthKey) After(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year > o.Year
	}
	return k.Month > o.Month
}

// LongDate formats a record date as "June 15, 2023".
func LongDate(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return InvalidDate
	}
	return t.Format("January 2, 2006")
}

// DayOfMonth returns the day number used as the timeline marker, or 0 when
// the date is invalid.
func DayOfMonth(date string) int {
	t, err := ParseDate(date)
	if err != nil {
		return 0
	}
	return t.Day()
}
