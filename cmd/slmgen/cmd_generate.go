package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/insights"
	"github.com/vedanthq/SLMGen/internal/jobs"
	"github.com/vedanthq/SLMGen/internal/modelcard"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/notebook"
	"github.com/vedanthq/SLMGen/internal/projectconfig"
	"github.com/vedanthq/SLMGen/internal/publish"
	"github.com/vedanthq/SLMGen/internal/spinner"
	"github.com/vedanthq/SLMGen/internal/webapi"
)

// cliUser owns jobs recorded from the command line.
const cliUser = webapi.LocalDevUser

type generateOptions struct {
	sel       selection
	modelID   string
	outputDir string
	modelCard bool
	publish   bool
	noHistory bool
	asJSON    bool
}

type generateOutput struct {
	Notebook  string `json:"notebook"`
	ModelCard string `json:"model_card,omitempty"`
	ModelID   string `json:"model_id"`
	Score     int    `json:"score"`
	ColabURL  string `json:"colab_url,omitempty"`
	JobID     string `json:"job_id,omitempty"`
}

func newGenerateCommand(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Generate a Colab fine-tuning notebook for a dataset",
		Long: `Recommend a model (or use --model) and write a self-contained Colab notebook
that fine-tunes it on the dataset with LoRA.

--model-card also writes README.md for the fine-tuned model. --publish uploads
the notebook to the Azure Blob container in .slmgen.yaml. Each run is
recorded in the local job history unless --no-history is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, args[0], opts)
		},
	}

	opts.sel.addFlags(cmd)
	cmd.Flags().StringVar(&opts.modelID, "model", "", "Hugging Face model ID or catalog key (default: top recommendation)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (default: paths.output from .slmgen.yaml)")
	cmd.Flags().BoolVar(&opts.modelCard, "model-card", false, "Also write README.md model card")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Upload the notebook to Azure Blob Storage")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the job history")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print a JSON summary instead of text")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, path string, opts generateOptions) error {
	cfg := a.config()
	w := cmd.OutOrStdout()
	if opts.asJSON {
		w = io.Discard
	}
	task, deploy, err := opts.sel.resolve(cmd.InOrStdin(), w)
	if err != nil {
		return err
	}
	l, err := loadDataset(path)
	if err != nil {
		return err
	}

	rec, err := a.recommend(l, a.openCache(false), task, deploy, true)
	if err != nil {
		return err
	}
	spec, err := pickModel(opts.modelID, rec.Primary.ModelID)
	if err != nil {
		return err
	}
	score := scoreFor(rec, spec.ModelID)

	stop := spinner.Start(cmd.ErrOrStderr(), "Building notebook for "+spec.Name)
	nb, err := notebook.Generate(notebook.Options{
		Model:    spec,
		Task:     task,
		Examples: l.Result.Stats.TotalExamples,
		Dataset:  l.Result.Raw,
	})
	stop()
	if err != nil {
		return fmt.Errorf("generating notebook: %w", err)
	}

	outDir := opts.outputDir
	if outDir == "" {
		outDir = cfg.Paths.Output
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	runID := uuid.NewString()
	filename := notebook.Filename(spec.Name, runID)
	out := generateOutput{
		Notebook: filepath.Join(outDir, filename),
		ModelID:  spec.ModelID,
		Score:    score,
	}
	if err := os.WriteFile(out.Notebook, nb, 0o644); err != nil {
		return fmt.Errorf("writing notebook: %w", err)
	}
	fmt.Fprintf(w, "Notebook written: %s (%s)\n", out.Notebook, spec.Name)

	if opts.modelCard {
		out.ModelCard, err = writeModelCard(outDir, spec, task, l)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Model card written: %s\n", out.ModelCard)
	}

	status := jobs.StatusNotebookReady
	if opts.publish {
		if !cfg.Publish.AzureBlob.Enabled() {
			return fmt.Errorf("--publish needs publish.azure_blob.account_url and container in %s", projectconfig.FileName)
		}
		pub, err := publish.NewAzureBlobPublisher(cfg.Publish.AzureBlob.AccountURL, cfg.Publish.AzureBlob.Container)
		if err != nil {
			return err
		}
		out.ColabURL, err = pub.Publish(cmd.Context(), filename, nb, notebook.MediaType)
		if err != nil {
			return fmt.Errorf("publishing notebook: %w", err)
		}
		status = jobs.StatusPublished
		fmt.Fprintf(w, "Published: %s\n", out.ColabURL)
	}

	if !opts.noHistory {
		out.JobID = a.recordRun(cmd.Context(), jobs.Job{
			UserID:           cliUser,
			SessionID:        runID,
			DatasetFilename:  filepath.Base(path),
			TotalExamples:    l.Result.Stats.TotalExamples,
			TotalTokens:      l.Result.Stats.TotalTokens,
			QualityScore:     l.Result.Stats.QualityScore,
			Task:             string(task),
			Deployment:       string(deploy),
			ModelID:          spec.ModelID,
			ModelName:        spec.Name,
			ModelScore:       score,
			NotebookFilename: filename,
			ColabURL:         out.ColabURL,
			Status:           status,
		})
	}
	if opts.asJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return nil
}

// pickModel resolves --model as a model ID or catalog key, defaulting to
// the recommended model.
func pickModel(requested, recommended string) (catalog.ModelSpec, error) {
	cat := catalog.Default()
	if requested == "" {
		requested = recommended
	}
	if spec, ok := cat.ByModelID(requested); ok {
		return spec, nil
	}
	if spec, ok := cat.Get(requested); ok {
		return spec, nil
	}
	return catalog.ModelSpec{}, fmt.Errorf("unknown model %q; run 'slmgen catalog' to list models", requested)
}

// scoreFor returns the model's score in rec. Models outside the shown four
// are looked up in the breakdown; 0 means the model was not ranked.
func scoreFor(rec *models.RecommendationResponse, modelID string) int {
	if rec.Primary.ModelID == modelID {
		return int(rec.Primary.Score)
	}
	for _, alt := range rec.Alternatives {
		if alt.ModelID == modelID {
			return int(alt.Score)
		}
	}
	for _, b := range rec.Breakdown {
		if b.ModelID == modelID {
			return b.Total
		}
	}
	return 0
}

func writeModelCard(dir string, spec catalog.ModelSpec, task models.TaskType, l *loaded) (string, error) {
	records := l.Result.Records
	card, err := modelcard.Generate(modelcard.Input{
		Model:        spec,
		Task:         task,
		Examples:     l.Result.Stats.TotalExamples,
		QualityScore: l.Result.Stats.QualityScore,
		Personality:  insights.Personality(records).Summary,
		RiskLevel:    insights.Risk(records).Level,
	})
	if err != nil {
		return "", fmt.Errorf("generating model card: %w", err)
	}
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte(card.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing model card: %w", err)
	}
	return path, nil
}

// recordRun stores j in the job history. Failures only warn.
func (a *app) recordRun(ctx context.Context, j jobs.Job) string {
	store, err := jobs.Open(a.config().Jobs.DBPath)
	if err != nil {
		slog.Warn("Failed to open job history", "path", a.config().Jobs.DBPath, "error", err)
		return ""
	}
	defer store.Close() //nolint:errcheck

	created, err := store.Create(ctx, j)
	if err != nil {
		slog.Warn("Failed to record job", "error", err)
		return ""
	}
	slog.Debug("Recorded job", "id", created.ID)
	return created.ID
}
