// Package modelcard writes the README that ships with a fine-tuned adapter.
package modelcard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/notebook"
	"github.com/vedanthq/SLMGen/internal/template"
)

//go:embed card.md.tmpl
var cardTemplate string

const frontMatterDelim = "---\n"

// Input describes the fine-tuning run the card documents.
type Input struct {
	Model        catalog.ModelSpec
	Task         models.TaskType
	Examples     int
	QualityScore float64
	// Personality is an optional one-line behavioral summary.
	Personality string
	// RiskLevel adds a warning when it is high.
	RiskLevel models.Level
	Now       time.Time
}

// Card is a generated model card.
type Card struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Markdown    string `json:"markdown"`
}

type frontMatter struct {
	BaseModel   string   `yaml:"base_model"`
	Library     string   `yaml:"library_name"`
	PipelineTag string   `yaml:"pipeline_tag"`
	Tags        []string `yaml:"tags"`
}

type cardData struct {
	Title       string
	Description string
	Generated   string
	ModelID     string
	ModelName   string
	Task        string
	Examples    int
	Quality     float64
	Personality string
	Strengths   []string
	HighRisk    bool
	Rank        int
	Alpha       int
	Epochs      int
}

// Generate renders the card markdown with Hugging Face front matter.
func Generate(in Input) (Card, error) {
	if in.Model.ModelID == "" {
		return Card{}, errors.New("modelcard: model is required")
	}
	slog.Info("Generating model card", "model", in.Model.Name)

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	task := string(in.Task)
	if task == "" {
		task = "general"
	}

	data := cardData{
		Title:       "Fine-tuned " + in.Model.Name,
		Description: fmt.Sprintf("A fine-tuned version of %s for %s tasks.", in.Model.Name, task),
		Generated:   now.Format("2006-01-02"),
		ModelID:     in.Model.ModelID,
		ModelName:   in.Model.Name,
		Task:        task,
		Examples:    in.Examples,
		Quality:     in.QualityScore,
		Personality: in.Personality,
		Strengths:   strengths(in.Task),
		HighRisk:    in.RiskLevel == models.LevelHigh,
		Rank:        notebook.LoRARank,
		Alpha:       notebook.LoRAAlpha,
		Epochs:      notebook.Epochs,
	}
	body, err := template.Render(cardTemplate, data)
	if err != nil {
		return Card{}, fmt.Errorf("modelcard: %w", err)
	}

	fm, err := yaml.Marshal(frontMatter{
		BaseModel:   in.Model.ModelID,
		Library:     "peft",
		PipelineTag: "text-generation",
		Tags:        []string{"slmgen", "lora", "unsloth", task},
	})
	if err != nil {
		return Card{}, fmt.Errorf("modelcard: front matter: %w", err)
	}

	md := frontMatterDelim + string(fm) + frontMatterDelim + "\n" + strings.TrimRight(body, "\n") + "\n"
	slog.Info("Model card generated", "chars", len(md))
	return Card{Title: data.Title, Description: data.Description, Markdown: md}, nil
}

func strengths(task models.TaskType) []string {
	var out []string
	switch task {
	case models.TaskQA, models.TaskGeneration:
		out = append(out, "Follows instructions accurately", "Provides helpful, relevant responses")
	case models.TaskConversation:
		out = append(out, "Natural conversational flow", "Maintains context across turns")
	case models.TaskClassify:
		out = append(out, "Consistent classification behavior", "Clear category assignments")
	}
	return append(out, "Trained on quality-checked data")
}

// SplitFrontMatter separates a leading YAML front matter block from the
// markdown body. Markdown without front matter is returned unchanged.
func SplitFrontMatter(markdown string) (meta string, body string) {
	if !strings.HasPrefix(markdown, frontMatterDelim) {
		return "", markdown
	}
	rest := markdown[len(frontMatterDelim):]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return "", markdown
	}
	return rest[:end+1], strings.TrimLeft(rest[end+1+len(frontMatterDelim):], "\n")
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts card markdown to an HTML fragment, dropping the front
// matter.
func RenderHTML(markdown string) ([]byte, error) {
	_, body := SplitFrontMatter(markdown)
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("modelcard: render html: %w", err)
	}
	return buf.Bytes(), nil
}
