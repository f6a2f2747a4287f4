package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/session"
)

var journalOrder = []session.EventType{
	session.EventCreated,
	session.EventNotebook,
	session.EventDownload,
	session.EventTokenFail,
	session.EventExpired,
	session.EventEvicted,
	session.EventDeleted,
}

type sessionsOutput struct {
	Path   string          `json:"path"`
	Events []session.Event `json:"events,omitempty"`
	Tally  session.Tally   `json:"tally"`
}

func newSessionsCommand(a *app) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Summarize the server's session journal",
		Long: `Summarize the session journal written by "slmgen serve --session-log".

Counts lifecycle events and generated notebooks per model. With --session the
events for one session are listed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.config().Paths.Uploads, session.JournalFile)
			events, tally, err := session.ReadJournal(path, sessionID)
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no session journal at %s; start the server with --session-log", path)
			}
			if err != nil {
				return err
			}

			out := sessionsOutput{Path: path, Tally: tally}
			if sessionID != "" {
				out.Events = events
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Session journal: %s\n%s\n", path, rule)
			for _, typ := range journalOrder {
				fmt.Fprintf(w, "  %s  %d\n", padRight(string(typ), 24), tally.Events[typ])
			}
			if models := tally.Models(); len(models) > 0 {
				fmt.Fprintln(w, "\nNotebooks by model:")
				for _, id := range models {
					fmt.Fprintf(w, "  %s  %d\n", padRight(id, 40), tally.Notebooks[id])
				}
			}
			for _, ev := range out.Events {
				fmt.Fprintf(w, "%s  %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Type)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Only count events for this session ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}
