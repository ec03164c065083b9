// Package dashboard assembles the landing page for patients and family
// members from a snapshot of memories and the activity feed.
package dashboard

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/memobloom/memobloom/internal/timeline"
)

// RecentLimit is how many memories the dashboard features.
const RecentLimit = 3

// Profile is who the dashboard is for.
type Profile struct {
	Name          string
	Role          string
	PatientName   string
	Relation      string
	FamilyMembers int
	// RoutinesCompleted counts the patient's finished daily routines.
	RoutinesCompleted int
	// LastActive is the patient's most recent activity; zero if never.
	LastActive time.Time
}

// Activity is one feed entry.
type Activity struct {
	Kind  string
	Title string
	At    time.Time
}

type Stats struct {
	Total         int `json:"total"`
	Photos        int `json:"photos"`
	Voices        int `json:"voices"`
	Texts         int `json:"texts"`
	People        int `json:"people"`
	Months        int `json:"months"`
	FamilyMembers int `json:"family_members"`
	Routines      int `json:"routines_completed"`
}

type ActivityItem struct {
	Kind  string    `json:"kind"`
	Title string    `json:"title"`
	When  string    `json:"when"`
	At    time.Time `json:"at"`
}

type Summary struct {
	Greeting    string          `json:"greeting"`
	Name        string          `json:"name"`
	Role        string          `json:"role"`
	PatientName string          `json:"patient_name,omitempty"`
	Relation    string          `json:"relation,omitempty"`
	LastActive  string          `json:"last_active,omitempty"`
	Stats       Stats           `json:"stats"`
	Recent      []timeline.Card `json:"recent"`
	Activities  []ActivityItem  `json:"activities"`
}

// Greeting picks the salutation for the hour of day.
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good morning!"
	case hour < 18:
		return "Good afternoon!"
	default:
		return "Good evening!"
	}
}

// Build computes the dashboard at now.
func Build(now time.Time, p Profile, recs []timeline.Record, acts []Activity) Summary {
	s := Summary{
		Greeting:    Greeting(now.Hour()),
		Name:        p.Name,
		Role:        p.Role,
		PatientName: p.PatientName,
		Relation:    p.Relation,
		Stats:       stats(recs),
		Recent:      recent(recs, RecentLimit),
		Activities:  make([]ActivityItem, 0, len(acts)),
	}
	s.Stats.FamilyMembers = p.FamilyMembers
	s.Stats.Routines = p.RoutinesCompleted

	if p.Role == "family" {
		if p.LastActive.IsZero() {
			s.LastActive = "never"
		} else {
			s.LastActive = relative(p.LastActive, now)
		}
	}
	for _, a := range acts {
		s.Activities = append(s.Activities, ActivityItem{
			Kind:  a.Kind,
			Title: a.Title,
			When:  relative(a.At, now),
			At:    a.At,
		})
	}
	return s
}

func relative(then, now time.Time) string {
	if now.Sub(then) < time.Second && then.Sub(now) < time.Second {
		return "just now"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

func stats(recs []timeline.Record) Stats {
	st := Stats{Total: len(recs)}
	people := make(map[string]bool)
	for _, r := range recs {
		switch r.Type {
		case timeline.TypePhoto:
			st.Photos++
		case timeline.TypeVoice:
			st.Voices++
		case timeline.TypeText:
			st.Texts++
		}
		for _, n := range r.People {
			people[n] = true
		}
	}
	st.People = len(people)
	for label := range timeline.GroupByMonth(recs) {
		if label != timeline.InvalidDate {
			st.Months++
		}
	}
	return st
}

// recent returns cards for the n latest-dated records. Ties keep input
// order; undated records come last.
func recent(recs []timeline.Record, n int) []timeline.Card {
	type dated struct {
		rec timeline.Record
		at  time.Time
		ok  bool
	}
	ds := make([]dated, len(recs))
	for i, r := range recs {
		t, err := timeline.ParseDate(r.Date)
		ds[i] = dated{rec: r, at: t, ok: err == nil}
	}
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].ok != ds[j].ok {
			return ds[i].ok
		}
		return ds[i].at.After(ds[j].at)
	})
	if len(ds) > n {
		ds = ds[:n]
	}
	cards := make([]timeline.Card, len(ds))
	for i, d := range ds {
		cards[i] = timeline.RenderCard(d.rec)
	}
	return cards
}
