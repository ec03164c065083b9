package timeline

import (
	"fmt"
	"strings"
)

// ViewMode is the layout applied to each month group.
type ViewMode string

const (
	ViewGrid     ViewMode = "grid"
	ViewList     ViewMode = "list"
	ViewTimeline ViewMode = "timeline"
)

// DefaultView is used when no mode is requested.
const DefaultView = ViewGrid

// EmptyMessage is shown instead of any groups when there are no records.
const EmptyMessage = "No memories found. Start creating your memory journal!"

// ParseViewMode accepts grid, list or timeline (case-insensitive). An empty
// string selects DefaultView.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DefaultView, nil
	case ViewGrid, ViewList, ViewTimeline:
		return m, nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// PlanItem is one card in a rendered group. Marker is the day of month and
// is only set in timeline mode.
type PlanItem struct {
	Card   Card `json:"card"`
	Marker int  `json:"marker,omitempty"`
}

// RenderPlan is the layout envelope for one month group.
type RenderPlan struct {
	Label     string     `json:"label"`
	Mode      ViewMode   `json:"mode"`
	Columns   int        `json:"columns"`
	Connector bool       `json:"connector"`
	Items     []PlanItem `json:"items"`
}

// gridColumns matches the three-across card grid on wide screens.
const gridColumns = 3

// SelectView lays out a group for the given mode. The order of records is
// never changed; modes differ only in the envelope.
func SelectView(mode ViewMode, group MonthGroup) RenderPlan {
	plan := RenderPlan{
		Label:   group.Label,
		Mode:    mode,
		Columns: 1,
		Items:   make([]PlanItem, len(group.Records)),
	}
	switch mode {
	case ViewGrid:
		plan.Columns = gridColumns
	case ViewTimeline:
		plan.Connector = true
	}
	for i, r := range group.Records {
		item := PlanItem{Card: RenderCard(r)}
		if mode == ViewTimeline {
			item.Marker = DayOfMonth(r.Date)
		}
		plan.Items[i] = item
	}
	return plan
}

// Timeline is the full render-ready result for a snapshot of records.
type Timeline struct {
	View    ViewMode     `json:"view"`
	Empty   bool         `json:"empty"`
	Message string       `json:"message,omitempty"`
	Total   int          `json:"total"`
	Groups  []RenderPlan `json:"groups,omitempty"`
}

// Build groups records by month, orders the months newest first and lays
// each one out with mode. An empty snapshot yields Empty with a message and
// no groups at all.
func Build(records []Record, mode ViewMode) Timeline {
	t := Timeline{View: mode, Total: len(records)}
	if len(records) == 0 {
		t.Empty = true
		t.Message = EmptyMessage
		return t
	}
	ordered := GroupByMonth(records).Ordered()
	t.Groups = make([]RenderPlan, len(ordered))
	for i, g := range ordered {
		t.Groups[i] = SelectView(mode, g)
	}
	return t
}
