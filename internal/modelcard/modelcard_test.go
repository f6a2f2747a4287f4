package modelcard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/models"
	"gopkg.in/yaml.v3"
)

func input(t *testing.T, key string, task models.TaskType) Input {
	t.Helper()
	spec, ok := catalog.Default().Get(key)
	require.True(t, ok)
	return Input{
		Model:        spec,
		Task:         task,
		Examples:     2500,
		QualityScore: 0.857,
		Now:          time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	card, err := Generate(input(t, "qwen25", models.TaskExtraction))
	require.NoError(t, err)

	require.Equal(t, "Fine-tuned Qwen 2.5 3B", card.Title)
	require.Equal(t, "A fine-tuned version of Qwen 2.5 3B for extraction tasks.", card.Description)

	md := card.Markdown
	require.Contains(t, md, "# Fine-tuned Qwen 2.5 3B\n\n> A fine-tuned version of Qwen 2.5 3B for extraction tasks.")
	require.Contains(t, md, "**Generated on:** 2026-01-02")
	require.Contains(t, md, "**Base Model:** [Qwen/Qwen2.5-3B-Instruct](https://huggingface.co/Qwen/Qwen2.5-3B-Instruct)")
	require.Contains(t, md, "**Task:** Extraction")
	require.Contains(t, md, "**Training Examples:** 2,500")
	require.Contains(t, md, "| Dataset Quality | 85% |\n\n## ✅ Strengths\n\n- Trained on quality-checked data\n\n## ⚠️ Limitations")
	require.Contains(t, md, "- Not suitable for high-stakes decisions without human review\n\n## 🚀 Usage")
	require.Contains(t, md, `base_model = AutoModelForCausalLM.from_pretrained("Qwen/Qwen2.5-3B-Instruct")`)
	require.Contains(t, md, "  rank: 16\n  alpha: 16\n  epochs: 3\n")
	require.NotContains(t, md, "Model Personality")
	require.NotContains(t, md, "elevated hallucination risk")
	require.True(t, strings.HasSuffix(md, "*Generated by [SLMGEN](https://github.com/vedanthq/SLMGen)*\n"))
}

func TestGenerate_FrontMatter(t *testing.T) {
	card, err := Generate(input(t, "phi4", models.TaskClassify))
	require.NoError(t, err)

	meta, body := SplitFrontMatter(card.Markdown)
	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(meta), &fm))
	require.Equal(t, "microsoft/Phi-4-mini-instruct", fm.BaseModel)
	require.Equal(t, "peft", fm.Library)
	require.Equal(t, []string{"slmgen", "lora", "unsloth", "classify"}, fm.Tags)
	require.True(t, strings.HasPrefix(body, "# Fine-tuned Phi-4 Mini"))
}

func TestGenerate_OptionalSections(t *testing.T) {
	in := input(t, "llama32", models.TaskConversation)
	in.Personality = "Your dataset behaves like a helpful all-rounder."
	in.RiskLevel = models.LevelHigh

	card, err := Generate(in)
	require.NoError(t, err)
	md := card.Markdown
	require.Contains(t, md, "## 🎭 Model Personality\n\nYour dataset behaves like a helpful all-rounder.\n\n## ✅ Strengths")
	require.Contains(t, md, "- Natural conversational flow\n- Maintains context across turns\n- Trained on quality-checked data")
	require.Contains(t, md, "human review\n- **Note:** Training data has elevated hallucination risk indicators\n\n## 🚀 Usage")
}

func TestStrengths(t *testing.T) {
	require.Equal(t, []string{"Follows instructions accurately", "Provides helpful, relevant responses", "Trained on quality-checked data"}, strengths(models.TaskQA))
	require.Equal(t, []string{"Consistent classification behavior", "Clear category assignments", "Trained on quality-checked data"}, strengths(models.TaskClassify))
	require.Equal(t, []string{"Trained on quality-checked data"}, strengths(models.TaskExtraction))
}

func TestGenerate_RequiresModel(t *testing.T) {
	_, err := Generate(Input{})
	require.Error(t, err)
}

func TestSplitFrontMatter(t *testing.T) {
	meta, body := SplitFrontMatter("---\na: 1\n---\n\n# Title\n")
	require.Equal(t, "a: 1\n", meta)
	require.Equal(t, "# Title\n", body)

	meta, body = SplitFrontMatter("# No front matter\n")
	require.Empty(t, meta)
	require.Equal(t, "# No front matter\n", body)

	meta, body = SplitFrontMatter("---\nunterminated\n")
	require.Empty(t, meta)
	require.Equal(t, "---\nunterminated\n", body)
}

func TestRenderHTML(t *testing.T) {
	card, err := Generate(input(t, "phi4", models.TaskQA))
	require.NoError(t, err)

	html, err := RenderHTML(card.Markdown)
	require.NoError(t, err)
	s := string(html)
	require.Contains(t, s, "<h1>Fine-tuned Phi-4 Mini</h1>")
	require.Contains(t, s, "<table>")
	require.Contains(t, s, `<a href="https://huggingface.co/microsoft/Phi-4-mini-instruct">`)
	require.NotContains(t, s, "base_model:")
}
