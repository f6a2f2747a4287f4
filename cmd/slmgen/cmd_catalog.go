package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the models SLMGen can fine-tune",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := catalog.Default().All()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), specs)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s %s %s %s\n",
				padRight("Key", 12), padRight("Model", 24), padRight("Size", 6), padRight("Context", 8), "Tasks")
			fmt.Fprintln(w, rule)
			for _, m := range specs {
				name := m.Name
				if m.IsGated {
					name += " 🔒"
				}
				tasks := make([]string, len(m.GoodForTasks))
				for i, t := range m.GoodForTasks {
					tasks[i] = string(t)
				}
				fmt.Fprintf(w, "%s %s %s %s %s\n",
					padRight(m.Key, 12),
					padRight(truncate(name, 24), 24),
					padRight(m.Size, 6),
					padRight(fmt.Sprintf("%dk", m.ContextWindow/1024), 8),
					strings.Join(tasks, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
