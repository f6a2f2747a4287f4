package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/cache"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/wizard"
)

// selection holds the task and deployment flags shared by recommend and generate.
type selection struct {
	task   string
	deploy string
}

func (s *selection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.task, "task", "", "Task type: classify, qa, conversation, generation, extraction")
	cmd.Flags().StringVar(&s.deploy, "deploy", "", "Deployment target: cloud, mobile, edge, browser, desktop, server")
}

// resolve parses the flags. When either is missing and stdin is a terminal,
// the wizard asks for them.
func (s *selection) resolve(in io.Reader, out io.Writer) (models.TaskType, models.DeploymentTarget, error) {
	if (s.task == "" || s.deploy == "") && wizard.IsInteractive(in) {
		initial := wizard.Choices{Task: models.TaskType(s.task), Deployment: models.DeploymentTarget(s.deploy)}
		c, err := wizard.RunRecommendWizard(in, out, initial)
		if err != nil {
			return "", "", err
		}
		if summary, err := wizard.Summary(c); err == nil {
			fmt.Fprint(out, summary)
		}
		return c.Task, c.Deployment, nil
	}
	if s.task == "" || s.deploy == "" {
		return "", "", fmt.Errorf("--task and --deploy are required when not running interactively")
	}
	task, err := models.ParseTaskType(s.task)
	if err != nil {
		return "", "", err
	}
	deploy, err := models.ParseDeploymentTarget(s.deploy)
	if err != nil {
		return "", "", err
	}
	return task, deploy, nil
}

func newRecommendCommand(a *app) *cobra.Command {
	var (
		sel             selection
		explain, asJSON bool
		useCache        bool
	)

	cmd := &cobra.Command{
		Use:   "recommend FILE",
		Short: "Recommend a model for a dataset, task and deployment target",
		Long: `Score every catalog model against the dataset, task and deployment target
and print the best match with up to three alternatives.

When --task or --deploy is missing and stdin is a terminal, an interactive
picker asks for them. --explain adds the per-model score breakdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, deploy, err := sel.resolve(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			l, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			c := a.openCache(useCache)
			resp, err := a.recommend(l, c, task, deploy, explain)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printRecommendation(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	sel.addFlags(cmd)
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the score breakdown for every model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Cache analysis and recommendation results")
	return cmd
}

// recommend runs the engine, consulting the cache when c is non-nil.
func (a *app) recommend(l *loaded, c *cache.Cache, task models.TaskType, deploy models.DeploymentTarget, explain bool) (*models.RecommendationResponse, error) {
	var key string
	if c != nil {
		k, err := cache.FileKey(cache.KindRecommendation, l.Path, string(task), string(deploy), strconv.FormatBool(explain))
		if err == nil {
			key = k
			var cached models.RecommendationResponse
			if c.Get(key, &cached) {
				slog.Debug("Recommendation cache hit", "path", l.Path)
				return &cached, nil
			}
		}
	}

	engine := a.newEngine()
	chars := l.characteristics(c)
	run := engine.Recommend
	if explain {
		run = engine.Explain
	}
	resp, err := run(task, deploy, *l.Result.Stats, chars)
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := c.Put(key, resp); err != nil {
			slog.Warn("Failed to cache recommendation", "error", err)
		}
	}
	return resp, nil
}

func printRecommendation(w io.Writer, resp *models.RecommendationResponse) {
	p := resp.Primary
	fmt.Fprintf(w, "Recommended: %s (%s, %s) score %.0f\n", p.ModelName, p.ModelID, p.Size, p.Score)
	for _, r := range p.Reasons {
		fmt.Fprintf(w, "  • %s\n", r)
	}
	if p.IsGated {
		fmt.Fprintln(w, "  Requires accepting the model license on Hugging Face.")
	}

	if len(resp.Alternatives) > 0 {
		fmt.Fprintln(w, "\nAlternatives")
		fmt.Fprintln(w, rule)
		for _, alt := range resp.Alternatives {
			fmt.Fprintf(w, "%s %s %5.0f\n", padRight(truncate(alt.ModelName, 28), 28), padRight(alt.Size, 6), alt.Score)
		}
	}

	if len(resp.Breakdown) > 0 {
		fmt.Fprintln(w, "\nScore breakdown")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s %4s %5s %6s %4s %5s %8s %5s\n",
			padRight("Model", 36), "Rank", "Task", "Deploy", "Data", "Bonus", "Override", "Total")
		for _, b := range resp.Breakdown {
			fmt.Fprintf(w, "%s %4d %5d %6d %4d %5d %8d %5d\n",
				padRight(truncate(b.ModelID, 36), 36), b.Rank, b.TaskFit, b.DeployFit, b.DataFit, b.Bonus, b.Override, b.Total)
		}
	}
}
