package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/memobloom/memobloom/internal/auth"
	"github.com/memobloom/memobloom/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage local patient and family accounts",
}

var userAdd auth.NewAccount
var userAddRole, userAddPatient string

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a local account",
	Long: "Register a patient, or a family member linked to an existing patient.\n" +
		"Family members are linked with --patient <patient email>.",
	RunE: runUserAdd,
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	na := userAdd
	na.Role = auth.Role(userAddRole)
	if na.Role == auth.RoleFamily {
		patient, err := ownerOf(db, userAddPatient)
		if err != nil {
			return fmt.Errorf("--patient: %w", err)
		}
		na.PatientID = patient.ID
	}

	id, err := auth.NewLocalProvider(db).Register(cmd.Context(), na)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", id.Role, id.Email, id.UserID)
	return nil
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
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

		accounts, err := db.ListAccounts()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No accounts yet. Add one with 'memobloom user add'.")
			return nil
		}
		for _, a := range accounts {
			line := fmt.Sprintf("%-8s %-28s %s", a.Role, a.Email, a.Name)
			if a.Relation != "" {
				line += " (" + a.Relation + ")"
			}
			created := humanize.Time(time.UnixMilli(a.CreatedAt))
			fmt.Fprintf(cmd.OutOrStdout(), "%s, joined %s\n", line, created)
		}
		return nil
	},
}

var sessionsUser string
var sessionsLimit int

var userSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show an account's recent sign-ins",
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

		a, err := ownerOf(db, sessionsUser)
		if err != nil {
			return err
		}
		sessions, err := db.GetRecentSessions(a.ID, sessionsLimit)
		if err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), sessions, time.Now())
		return nil
	},
}

func printSessions(w io.Writer, sessions []store.AuthSession, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sign-ins yet.")
		return
	}
	for _, s := range sessions {
		started := humanize.RelTime(time.UnixMilli(s.StartedAt), now, "ago", "from now")
		line := fmt.Sprintf("%-7s signed in %s", s.Status, started)
		if s.EndedAt != nil {
			line += ", ended " + humanize.RelTime(time.UnixMilli(*s.EndedAt), now, "ago", "from now")
		} else {
			line += ", last seen " + humanize.RelTime(time.UnixMilli(s.LastSeenAt), now, "ago", "from now")
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	f := userAddCmd.Flags()
	f.StringVar(&userAdd.Email, "email", "", "Sign-in email")
	f.StringVar(&userAdd.Password, "password", "", "Sign-in password")
	f.StringVar(&userAdd.Name, "name", "", "Display name")
	f.StringVar(&userAdd.Phone, "phone", "", "Mobile number")
	f.StringVar(&userAddRole, "role", string(auth.RolePatient), "patient or family")
	f.StringVar(&userAddPatient, "patient", "", "Email of the patient a family member is linked to")
	f.StringVar(&userAdd.Relation, "relation", "", "Relationship to the patient, e.g. daughter")
	userAddCmd.MarkFlagRequired("email")
	userAddCmd.MarkFlagRequired("password")
	userAddCmd.MarkFlagRequired("name")

	userCmd.AddCommand(userAddCmd)
	userSessionsCmd.Flags().StringVar(&sessionsUser, "user", "", "Email of the account")
	userSessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 10, "How many sessions to show")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSessionsCmd)
}
