package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/discovery"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/template"
)

type ingestOutput struct {
	File         string              `json:"file"`
	Stats        models.DatasetStats `json:"stats"`
	SkippedLines []string            `json:"skipped_lines,omitempty"`
}

func newIngestCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Parse a JSONL dataset and report its statistics and quality",
		Long: `Parse a JSONL chat dataset and report its statistics and quality.

Each line must be a {"messages": [...]} object. Malformed lines are skipped
and listed. Files ending in .jsonl.gz or .jsonl.zst are decompressed.

When FILE is a directory, every dataset below it is ingested and summarized.

Exits with code 1 when a dataset has too few valid examples.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
				return ingestDir(cmd.OutOrStdout(), args[0], asJSON)
			}
			l, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			out := ingestOutput{File: args[0], Stats: *l.Result.Stats, SkippedLines: l.Result.Errors}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printStats(cmd.OutOrStdout(), out.File, out.Stats)
			if len(out.SkippedLines) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSkipped %d line(s):\n", len(out.SkippedLines))
				for _, e := range out.SkippedLines {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

type dirEntry struct {
	File         string               `json:"file"`
	Stats        *models.DatasetStats `json:"stats,omitempty"`
	SkippedLines int                  `json:"skipped_lines"`
	Error        string               `json:"error,omitempty"`
}

// ingestDir ingests every dataset discovered under root.
func ingestDir(w io.Writer, root string, asJSON bool) error {
	found, err := discovery.Discover(root)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("no .jsonl datasets found under %s", root)
	}

	entries := make([]dirEntry, 0, len(found))
	rejected := 0
	for _, d := range found {
		e := dirEntry{File: d.Name}
		l, err := loadDataset(d.Path)
		var rej *RejectedError
		switch {
		case errors.As(err, &rej):
			rejected++
			e.Error = rej.Message
		case err != nil:
			return err
		default:
			e.Stats = l.Result.Stats
			e.SkippedLines = len(l.Result.Errors)
		}
		entries = append(entries, e)
	}

	if asJSON {
		if err := printJSON(w, entries); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%s %s %s %s\n", padRight("File", 36), padRight("Examples", 9), padRight("Quality", 8), "Skipped")
		fmt.Fprintln(w, rule)
		for _, e := range entries {
			if e.Stats == nil {
				fmt.Fprintf(w, "%s rejected: %s\n", padRight(truncate(e.File, 36), 36), e.Error)
				continue
			}
			fmt.Fprintf(w, "%s %s %s %d\n",
				padRight(truncate(e.File, 36), 36),
				padRight(template.Thousands(e.Stats.TotalExamples), 9),
				padRight(fmt.Sprintf("%.2f", e.Stats.QualityScore), 8),
				e.SkippedLines)
		}
	}

	if rejected > 0 {
		return &RejectedError{Message: fmt.Sprintf("%d of %d datasets rejected", rejected, len(entries))}
	}
	return nil
}

func printStats(w io.Writer, file string, s models.DatasetStats) {
	fmt.Fprintf(w, "Dataset: %s\n", file)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s %s\n", padRight("Examples", 22), template.Thousands(s.TotalExamples))
	fmt.Fprintf(w, "%s %s\n", padRight("Tokens", 22), template.Thousands(s.TotalTokens))
	fmt.Fprintf(w, "%s %d\n", padRight("Avg tokens/example", 22), s.AvgTokensPerExample)
	fmt.Fprintf(w, "%s %d%% single / %d%% multi\n", padRight("Turns", 22), s.SingleTurnPct, s.MultiTurnPct)
	fmt.Fprintf(w, "%s %s\n", padRight("System prompts", 22), yesNo(s.HasSystemPrompts))
	fmt.Fprintf(w, "%s %.2f\n", padRight("Quality score", 22), s.QualityScore)
	for _, issue := range issueLines(s.QualityIssues) {
		fmt.Fprintf(w, "  %s\n", issue)
	}
}
