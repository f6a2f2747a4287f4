// Package notebook builds self-contained Colab notebooks that fine-tune a
// catalog model on an embedded dataset with Unsloth and LoRA.
package notebook

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/template"
)

//go:embed cells/*.tmpl
var cellFS embed.FS

// Training hyperparameters baked into the generated notebook.
const (
	MaxSeqLength = 2048
	LoRARank     = 16
	LoRAAlpha    = 16
	Epochs       = 3
)

// MediaType is the content type of a serialized notebook.
const MediaType = "application/x-ipynb+json"

// Options describes the notebook to generate.
type Options struct {
	Model    catalog.ModelSpec
	Task     models.TaskType
	Examples int
	// Dataset is the JSONL training data, embedded base64-encoded.
	Dataset []byte
	// Now stamps the title cell. Zero means time.Now.
	Now time.Time
}

type cellData struct {
	ModelName       string
	ModelID         string
	Task            string
	Examples        int
	Generated       string
	TrainingMinutes int
	DatasetB64      string
	MaxSeqLength    int
	LoRARank        int
	LoRAAlpha       int
	Epochs          int
	LoRATargets     []string
}

// Generate renders the notebook as indented nbformat 4 JSON.
func Generate(opts Options) ([]byte, error) {
	if opts.Model.ModelID == "" {
		return nil, errors.New("notebook: model is required")
	}
	if len(opts.Dataset) == 0 {
		return nil, errors.New("notebook: dataset is empty")
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	task := string(opts.Task)
	if task == "" {
		task = "general"
	}

	slog.Info("Generating notebook", "model", opts.Model.Name, "examples", opts.Examples)

	data := cellData{
		ModelName:       opts.Model.Name,
		ModelID:         opts.Model.ModelID,
		Task:            task,
		Examples:        opts.Examples,
		Generated:       now.Format("2006-01-02 15:04"),
		TrainingMinutes: EstimateTrainingMinutes(opts.Model.Size, opts.Examples),
		DatasetB64:      base64.StdEncoding.EncodeToString(opts.Dataset),
		MaxSeqLength:    MaxSeqLength,
		LoRARank:        LoRARank,
		LoRAAlpha:       LoRAAlpha,
		Epochs:          Epochs,
		LoRATargets:     LoRATargets(opts.Model.ModelID),
	}

	cells, err := renderCells(data, opts.Model.IsGated)
	if err != nil {
		return nil, err
	}

	nb := Notebook{
		NBFormat:      4,
		NBFormatMinor: 0,
		Metadata:      defaultMetadata(),
		Cells:         cells,
	}
	out, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("notebook: encode: %w", err)
	}
	slog.Info("Notebook generated", "bytes", len(out), "cells", len(cells))
	return out, nil
}

// renderCells executes the embedded cell templates in file-name order. The
// file extension selects the cell type; HuggingFace login cells are only
// emitted for gated models.
func renderCells(data cellData, gated bool) ([]Cell, error) {
	entries, err := fs.ReadDir(cellFS, "cells")
	if err != nil {
		return nil, fmt.Errorf("notebook: read cells: %w", err)
	}

	cells := make([]Cell, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, "_hf_login.") && !gated {
			continue
		}
		raw, err := cellFS.ReadFile(path.Join("cells", name))
		if err != nil {
			return nil, fmt.Errorf("notebook: read %s: %w", name, err)
		}
		text, err := template.Render(strings.TrimSuffix(string(raw), "\n"), data)
		if err != nil {
			return nil, fmt.Errorf("notebook: %s: %w", name, err)
		}

		switch {
		case strings.HasSuffix(name, ".md.tmpl"):
			cells = append(cells, MarkdownCell(text))
		case strings.HasSuffix(name, ".py.tmpl"):
			cells = append(cells, CodeCell(text))
		default:
			return nil, fmt.Errorf("notebook: unknown cell kind %s", name)
		}
	}
	return cells, nil
}

// Filename is the download name for a notebook generated in a session.
func Filename(modelName, sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("finetune_%s_%s.ipynb", strings.ReplaceAll(strings.ToLower(modelName), " ", "_"), short)
}
