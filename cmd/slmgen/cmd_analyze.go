package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/models"
)

type analyzeOutput struct {
	File            string                        `json:"file"`
	Stats           models.DatasetStats           `json:"stats"`
	Characteristics models.DatasetCharacteristics `json:"characteristics"`
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var asJSON, useCache bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Report dataset statistics and characteristics",
		Long: `Report dataset statistics and the characteristics the recommender uses:
multilingual content, average response length, JSON output, multi-turn
structure, system prompts and the dominant language.

With --cache, characteristics are stored in the cache directory keyed by the
file's contents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			out := analyzeOutput{
				File:            args[0],
				Stats:           *l.Result.Stats,
				Characteristics: l.characteristics(a.openCache(useCache)),
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			printStats(w, out.File, out.Stats)
			c := out.Characteristics
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Characteristics")
			fmt.Fprintln(w, rule)
			fmt.Fprintf(w, "%s %s\n", padRight("Multilingual", 22), yesNo(c.IsMultilingual))
			if c.DominantLanguage != "" {
				fmt.Fprintf(w, "%s %s\n", padRight("Dominant language", 22), c.DominantLanguage)
			}
			fmt.Fprintf(w, "%s %d chars\n", padRight("Avg response length", 22), c.AvgResponseLength)
			fmt.Fprintf(w, "%s %s\n", padRight("JSON output", 22), yesNo(c.LooksLikeJSON))
			fmt.Fprintf(w, "%s %s\n", padRight("Multi-turn", 22), yesNo(c.IsMultiTurn))
			fmt.Fprintf(w, "%s %s\n", padRight("System prompts", 22), yesNo(c.HasSystemPrompts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Cache analysis results (also enabled by cache.enabled in .slmgen.yaml)")
	return cmd
}
