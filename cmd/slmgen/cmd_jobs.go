package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/jobs"
)

func newJobsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "View and manage the local job history",
		Long: `View and manage the local job history.

Every notebook generated by 'slmgen generate' is recorded in the SQLite
database at jobs.db_path (default slmgen-jobs.db).`,
	}

	cmd.AddCommand(newJobsListCommand(a))
	cmd.AddCommand(newJobsShowCommand(a))
	cmd.AddCommand(newJobsDeleteCommand(a))

	return cmd
}

func (a *app) openJobs() (*jobs.Store, error) {
	store, err := jobs.Open(a.config().Jobs.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening job history: %w", err)
	}
	return store, nil
}

func newJobsListCommand(a *app) *cobra.Command {
	var (
		limit, offset int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openJobs()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			list, err := store.List(cmd.Context(), cliUser, limit, offset)
			if err != nil {
				return fmt.Errorf("listing jobs: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, "No jobs recorded.")
				return nil
			}
			fmt.Fprintf(w, "%s %s %s %s %s\n",
				padRight("ID", 38), padRight("Model", 24), padRight("Dataset", 20), padRight("Status", 15), "Created")
			fmt.Fprintln(w, rule)
			for _, j := range list {
				fmt.Fprintf(w, "%s %s %s %s %s\n",
					padRight(j.ID, 38),
					padRight(truncate(j.ModelName, 24), 24),
					padRight(truncate(j.DatasetFilename, 20), 20),
					padRight(j.Status, 15),
					j.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", jobs.DefaultListLimit, "Maximum number of jobs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of jobs to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newJobsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one job as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openJobs()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			j, err := store.Get(cmd.Context(), cliUser, args[0])
			if errors.Is(err, jobs.ErrJobNotFound) {
				return fmt.Errorf("job %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), j)
		},
	}
}

func newJobsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a job from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openJobs()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			err = store.Delete(cmd.Context(), cliUser, args[0])
			if errors.Is(err, jobs.ErrJobNotFound) {
				return fmt.Errorf("job %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
			return nil
		},
	}
}
