package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/insights"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/spinner"
	"github.com/vedanthq/SLMGen/internal/template"
)

func newPreviewCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Preview how a model tuned on the dataset is likely to behave",
		Long: `Estimate dataset confidence, hallucination risk and personality, list
likely failure modes, infer the system prompt the responses imply and
profile the languages used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			stop := spinner.Start(cmd.ErrOrStderr(), "Building insights")
			report, err := insights.Build(cmd.Context(), l.Result.Records)
			stop()
			if err != nil {
				return fmt.Errorf("building insights: %w", err)
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}
			printInsights(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func printInsights(w io.Writer, r *models.InsightsReport) {
	fmt.Fprintf(w, "%s %.2f (%s)\n", padRight("Confidence", 16), r.Confidence.Score, r.Confidence.Level)
	if r.Confidence.Explanation != "" {
		fmt.Fprintf(w, "  %s\n", r.Confidence.Explanation)
	}

	fmt.Fprintf(w, "%s %.2f (%s)\n", padRight("Hallucination", 16), r.Risk.Score, r.Risk.Level)
	for _, f := range r.Risk.Factors {
		fmt.Fprintf(w, "  • %s\n", f)
	}
	if r.Risk.Recommendation != "" {
		fmt.Fprintf(w, "  → %s\n", r.Risk.Recommendation)
	}

	p := r.Personality
	fmt.Fprintf(w, "%s %s\n", padRight("Personality", 16), p.Summary)
	fmt.Fprintf(w, "  tone=%s verbosity=%s technicality=%s strictness=%s\n", p.Tone, p.Verbosity, p.Technicality, p.Strictness)

	fmt.Fprintf(w, "%s mean %.0f chars, %s CI [%.0f, %.0f]\n", padRight("Response length", 16),
		r.Length.Mean, template.Percent(r.Length.ConfidenceLevel), r.Length.Lower, r.Length.Upper)

	if len(r.Languages) > 0 {
		fmt.Fprintf(w, "%s", padRight("Languages", 16))
		for _, lang := range r.Languages {
			fmt.Fprintf(w, " %s %s", lang.Code, template.Percent(lang.Share))
		}
		fmt.Fprintln(w)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w, "\nLikely failures")
		fmt.Fprintln(w, rule)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "[%s] %s\n", f.Likelihood, f.Category)
			fmt.Fprintf(w, "  user: %s\n", truncate(f.UserPrompt, 72))
			fmt.Fprintf(w, "  bad:  %s\n", truncate(f.BadResponse, 72))
			fmt.Fprintf(w, "  why:  %s\n", f.WhyItFails)
		}
	}

	fmt.Fprintln(w, "\nInferred system prompt")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, r.Prompt.SuggestedPrompt)
	fmt.Fprintf(w, "(structure=%s style=%s intent=%s confidence=%.2f)\n",
		r.Prompt.OutputStructure, r.Prompt.PromptStyle, r.Prompt.TaskIntent, r.Prompt.Confidence)
}
