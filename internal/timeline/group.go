package timeline

import (
	"sort"
	"time"
)

// MonthGroup holds the records of one calendar month in source order.
type MonthGroup struct {
	Label   string   `json:"label"`
	Key     MonthKey `json:"-"`
	Records []Record `json:"records"`

	// valid is false only for the InvalidDate group.
	valid bool
}

// Groups maps a month label to its group.
type Groups map[string]*MonthGroup

// GroupByMonth buckets records by the month of their date. Records keep
// their input order within a month. Records with an unparseable date are
// collected under InvalidDate rather than dropped.
func GroupByMonth(records []Record) Groups {
	groups := make(Groups)
	for _, r := range records {
		key, ok := KeyOf(r.Date)
		label := InvalidDate
		if ok {
			label = key.Label()
		}
		g, exists := groups[label]
		if !exists {
			g = &MonthGroup{Label: label, Key: key, valid: ok}
			groups[label] = g
		}
		g.Records = append(g.Records, r)
	}
	return groups
}

// Labels returns the group labels in no particular order.
func (g Groups) Labels() []string {
	labels := make([]string, 0, len(g))
	for l := range g {
		labels = append(labels, l)
	}
	return labels
}

// Len returns the total number of records across all groups.
func (g Groups) Len() int {
	n := 0
	for _, grp := range g {
		n += len(grp.Records)
	}
	return n
}

// Ordered returns the groups newest month first, using the month key kept
// at grouping time. The InvalidDate group, if any, comes last.
func (g Groups) Ordered() []MonthGroup {
	out := make([]MonthGroup, 0, len(g))
	for _, grp := range g {
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].valid != out[j].valid {
			return out[i].valid
		}
		return out[i].Key.After(out[j].Key)
	})
	return out
}

// OrderGroups sorts month labels newest first by parsing each label back
// into a date. Labels that fail to parse keep their relative order after
// all parseable ones.
//
// Groups.Ordered is the production path; this one exists so the label
// round-trip stays checked against it.
func OrderGroups(labels []string) []string {
	type parsed struct {
		label string
		t     time.Time
		ok    bool
	}
	ps := make([]parsed, len(labels))
	for i, l := range labels {
		t, err := time.Parse("January 2006", l)
		ps[i] = parsed{label: l, t: t, ok: err == nil}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].ok != ps[j].ok {
			return ps[i].ok
		}
		if !ps[i].ok {
			return false
		}
		return ps[i].t.After(ps[j].t)
	})
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.label
	}
	return out
}
