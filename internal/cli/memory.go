package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memobloom/memobloom/internal/media"
	"github.com/memobloom/memobloom/internal/memory"
	"github.com/memobloom/memobloom/internal/store"
	"github.com/memobloom/memobloom/internal/timeline"
)

var memoryUser string

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Add, list and delete memories",
}

var (
	memoryDraft memory.Draft
	memoryFile  string
)

var memoryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a memory to a patient's journal",
	Long: "Add a memory. Photo and voice memories take --file, which is stored in the\n" +
		"media directory, or --content with an existing URL.",
	RunE: runMemoryAdd,
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	actor, err := ownerOf(db, memoryUser)
	if err != nil {
		return err
	}

	d, err := prepareDraft(memoryDraft, memoryFile, func(kind media.Kind, path string) (string, error) {
		return saveMediaFile(cmd, cfg.Media.Dir, cfg.BaseURL(), cfg.Media.MaxBytes, kind, path)
	})
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

	rec, err := memories.Create(cmd.Context(), memory.Record{
		Record:    d.Record(),
		OwnerID:   actor.PatientID,
		CreatedBy: actor.ID,
	})
	if err != nil {
		return err
	}
	if err := db.AddActivity(actor.PatientID, actor.ID, store.ActivityMemoryAdded,
		fmt.Sprintf("Added a new %s: %s", rec.Type, rec.Title)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record activity: %v\n", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s %q on %s (%s)\n", rec.Type, rec.Title, timeline.LongDate(rec.Date), rec.ID)
	return nil
}

// prepareDraft validates d and, when file is set, stores it with save and
// uses the returned reference as the content. Nothing is stored for a draft
// that fails validation.
func prepareDraft(d memory.Draft, file string, save func(media.Kind, string) (string, error)) (memory.Draft, error) {
	if file == "" {
		err := memory.Validate(&d)
		return d, err
	}

	d.Normalize()
	check := d
	check.Content = file
	if err := memory.Validate(&check); err != nil {
		return d, err
	}
	ref, err := save(media.Kind(d.Type), file)
	if err != nil {
		return d, err
	}
	d.Content = ref
	err = memory.Validate(&d)
	return d, err
}

func saveMediaFile(cmd *cobra.Command, dir, base string, max int64, kind media.Kind, path string) (string, error) {
	if kind != media.KindPhoto && kind != media.KindVoice {
		return "", errors.New("--file is only for photo and voice memories")
	}
	lib, err := media.New(media.Options{Dir: dir, PublicBaseURL: base, MaxBytes: max})
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	saved, err := lib.Save(cmd.Context(), f, kind)
	if err != nil {
		return "", err
	}
	return saved.Ref, nil
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a patient's memories, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		actor, err := ownerOf(db, memoryUser)
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
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), timeline.EmptyMessage)
			return nil
		}
		for _, r := range recs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %-5s %s\n", r.ID, r.Date, r.Type, r.Title)
		}
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		actor, err := ownerOf(db, memoryUser)
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

		if err := memories.Delete(cmd.Context(), actor.PatientID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memoryUser, "user", "u", "", "Email of the patient or family member")

	f := memoryAddCmd.Flags()
	f.StringVar(&memoryDraft.Title, "title", "", "Title")
	f.StringVar(&memoryDraft.Date, "date", "", "Date, YYYY-MM-DD")
	f.StringVar(&memoryDraft.Type, "type", "text", "photo, voice or text")
	f.StringVar(&memoryDraft.Content, "content", "", "Text, or a media URL")
	f.StringVar(&memoryFile, "file", "", "Photo or recording to upload")
	f.StringVar(&memoryDraft.Location, "location", "", "Where it happened")
	f.StringSliceVar(&memoryDraft.People, "people", nil, "People in the memory")
	f.StringVar(&memoryDraft.Filter, "filter", "", "Photo filter: none, polaroid, sepia or vintage")
	f.StringVar(&memoryDraft.Description, "description", "", "Longer description")
	f.StringSliceVar(&memoryDraft.Tags, "tags", nil, "Tags")

	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
}
