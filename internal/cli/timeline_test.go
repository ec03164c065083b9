package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/memobloom/memobloom/internal/timeline"
)

func TestPrintTimeline(t *testing.T) {
	recs := []timeline.Record{
		{ID: "1", Title: "Garden", Date: "2024-03-05", Type: timeline.TypeText, Content: "Tulips came up.\nAll red."},
		{ID: "2", Title: "Beach", Date: "2024-02-11", Type: timeline.TypePhoto, Content: "https://example.com/b.jpg", People: []string{"Tom"}},
	}

	var buf bytes.Buffer
	printTimeline(&buf, timeline.Build(recs, timeline.ViewTimeline))
	out := buf.String()

	for _, want := range []string{
		"## March 2024 (1 memory)",
		"## February 2024 (1 memory)",
		"   5 | Garden, March 5, 2024",
		"      Tulips came up.\n",
		"1 person",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "All red.") {
		t.Error("only the first line of text content should print")
	}
	if strings.Index(out, "March") > strings.Index(out, "February") {
		t.Error("months should print newest first")
	}
}

func TestPrintTimelineEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTimeline(&buf, timeline.Build(nil, timeline.ViewGrid))
	if got := strings.TrimSpace(buf.String()); got != timeline.EmptyMessage {
		t.Errorf("output = %q, want %q", got, timeline.EmptyMessage)
	}
}
