// Package wizard collects recommendation inputs interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"github.com/vedanthq/SLMGen/internal/models"
	"golang.org/x/term"
)

// Choices holds the fields collected during the interactive wizard.
type Choices struct {
	Task       models.TaskType
	Deployment models.DeploymentTarget
}

var taskLabels = map[models.TaskType]string{
	models.TaskClassify:     "Classify: sort inputs into labels",
	models.TaskQA:           "Q&A: answer questions from context",
	models.TaskConversation: "Conversation: multi-turn assistant",
	models.TaskGeneration:   "Generation: write longer free-form text",
	models.TaskExtraction:   "Extraction: pull structured fields out of text",
}

var deploymentLabels = map[models.DeploymentTarget]string{
	models.DeployCloud:   "Cloud GPU",
	models.DeployMobile:  "Mobile device",
	models.DeployEdge:    "Edge / embedded",
	models.DeployBrowser: "In the browser",
	models.DeployDesktop: "Desktop app",
	models.DeployServer:  "Self-hosted server",
}

const summaryTemplate = `Task:       {{ .Task }} ({{ taskLabel .Task }})
Deployment: {{ .Deployment }} ({{ deploymentLabel .Deployment }})
{{- if .Deployment.IsEdgeClass }}
Note: small models will be favoured for this target.
{{- end }}
`

// TaskOptions returns the select options for every task.
func TaskOptions() []huh.Option[models.TaskType] {
	opts := make([]huh.Option[models.TaskType], 0, len(models.AllTasks))
	for _, t := range models.AllTasks {
		opts = append(opts, huh.NewOption(taskLabels[t], t))
	}
	return opts
}

// DeploymentOptions returns the select options for every deployment target.
func DeploymentOptions() []huh.Option[models.DeploymentTarget] {
	opts := make([]huh.Option[models.DeploymentTarget], 0, len(models.AllDeployments))
	for _, d := range models.AllDeployments {
		opts = append(opts, huh.NewOption(deploymentLabels[d], d))
	}
	return opts
}

// RunRecommendWizard asks for the task and deployment target. Non-empty
// fields of initial pre-select the matching option.
func RunRecommendWizard(in io.Reader, out io.Writer, initial Choices) (*Choices, error) {
	task := initial.Task
	if task == "" {
		task = models.TaskConversation
	}
	deployment := initial.Deployment
	if deployment == "" {
		deployment = models.DeployCloud
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.TaskType]().
				Title("What will the model do?").
				Options(TaskOptions()...).
				Value(&task),
			huh.NewSelect[models.DeploymentTarget]().
				Title("Where will it run?").
				Options(DeploymentOptions()...).
				Value(&deployment),
		),
	).
		WithInput(in).
		WithOutput(out)

	if !IsInteractive(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	c := &Choices{Task: task, Deployment: deployment}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks both fields are known values.
func (c *Choices) Validate() error {
	if !c.Task.Valid() {
		return fmt.Errorf("invalid task %q", c.Task)
	}
	if !c.Deployment.Valid() {
		return fmt.Errorf("invalid deployment %q", c.Deployment)
	}
	return nil
}

// IsInteractive reports whether in is a terminal.
func IsInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Summary renders a short description of the choices.
func Summary(c *Choices) (string, error) {
	tmpl, err := template.New("summary").Funcs(template.FuncMap{
		"taskLabel":       func(t models.TaskType) string { return labelText(taskLabels[t]) },
		"deploymentLabel": func(d models.DeploymentTarget) string { return deploymentLabels[d] },
	}).Parse(summaryTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// labelText drops the "Name: " prefix from a task label.
func labelText(label string) string {
	if _, rest, ok := strings.Cut(label, ": "); ok {
		return rest
	}
	return label
}
