package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/timeline"
)

var (
	timelineUser string
	timelineView string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Print a patient's memories grouped by month",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := timeline.ParseViewMode(timelineView)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		actor, err := ownerOf(db, timelineUser)
		if err != nil {
			return err
		}
		sb, err := supabaseClient(cfg)
		if err != nil {
			return err
		}
		memories, err := openMemories(cmd.Context(), cfg, db, sb)
		if err != nil {
			return err
		}
		defer memories.Close()

		recs, err := memories.List(cmd.Context(), actor.PatientID)
		if err != nil {
			return err
		}
		printTimeline(cmd.OutOrStdout(), timeline.Build(memory.Snapshot(recs), mode))
		return nil
	},
}

func printTimeline(w io.Writer, tl timeline.Timeline) {
	if tl.Empty {
		fmt.Fprintln(w, tl.Message)
		return
	}
	for _, g := range tl.Groups {
		fmt.Fprintf(w, "## %s (%s)\n\n", g.Label, english.Plural(len(g.Items), "memory", "memories"))
		for _, it := range g.Items {
			prefix := "  -"
			if g.Mode == timeline.ViewTimeline {
				prefix = fmt.Sprintf("  %2d |", it.Marker)
			}
			labels := make([]string, len(it.Card.Chips))
			for i, c := range it.Card.Chips {
				labels[i] = c.Label
			}
			fmt.Fprintf(w, "%s %s, %s [%s]\n", prefix, it.Card.Title, it.Card.DateLabel, strings.Join(labels, ", "))
			if t, ok := it.Card.Content.(timeline.Text); ok && t.Body != "" {
				fmt.Fprintf(w, "      %s\n", firstLine(t.Body))
			}
		}
		fmt.Fprintln(w)
	}
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return s
}

func init() {
	timelineCmd.Flags().StringVarP(&timelineUser, "user", "u", "", "Email of the patient or family member")
	timelineCmd.Flags().StringVar(&timelineView, "view", string(timeline.DefaultView), "grid, list or timeline")
}
