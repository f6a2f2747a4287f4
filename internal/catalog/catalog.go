// Package catalog holds the fixed list of fine-tunable model checkpoints.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"

	"github.com/vedanthq/SLMGen/internal/models"
	"gopkg.in/yaml.v3"
)

// Keys of catalog entries the recommender treats specially.
const (
	KeyPhi4   = "phi4"
	KeyGemma2 = "gemma2"
	KeyQwen25 = "qwen25"
)

//go:embed models.yaml
var defaultCatalogYAML []byte

var sizeRe = regexp.MustCompile(`^\d+(\.\d+)?B$`)

// ModelSpec describes one checkpoint. GoodForTasks is ordered by priority.
type ModelSpec struct {
	Key           string                    `yaml:"key" json:"key"`
	ModelID       string                    `yaml:"model_id" json:"model_id"`
	Name          string                    `yaml:"name" json:"name"`
	Size          string                    `yaml:"size" json:"size"`
	ContextWindow int                       `yaml:"context_window" json:"context_window"`
	IsGated       bool                      `yaml:"is_gated" json:"is_gated"`
	Strengths     []string                  `yaml:"strengths" json:"strengths"`
	GoodForTasks  []models.TaskType         `yaml:"good_for_tasks" json:"good_for_tasks"`
	GoodForDeploy []models.DeploymentTarget `yaml:"good_for_deploy" json:"good_for_deploy"`
	MinExamples   int                       `yaml:"min_examples" json:"min_examples"`
}

// TaskPriority returns the position of task in the model's ordered task list.
func (m ModelSpec) TaskPriority(task models.TaskType) (int, bool) {
	i := slices.Index(m.GoodForTasks, task)
	return i, i >= 0
}

// SupportsDeploy reports whether the model lists d as a good fit.
func (m ModelSpec) SupportsDeploy(d models.DeploymentTarget) bool {
	return slices.Contains(m.GoodForDeploy, d)
}

func (m ModelSpec) clone() ModelSpec {
	m.Strengths = slices.Clone(m.Strengths)
	m.GoodForTasks = slices.Clone(m.GoodForTasks)
	m.GoodForDeploy = slices.Clone(m.GoodForDeploy)
	return m
}

func (m ModelSpec) validate() error {
	var errs []error
	if m.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if m.ModelID == "" {
		errs = append(errs, errors.New("model_id is required"))
	}
	if !sizeRe.MatchString(m.Size) {
		errs = append(errs, fmt.Errorf("size %q must look like 3B or 3.8B", m.Size))
	}
	if m.ContextWindow <= 0 {
		errs = append(errs, errors.New("context_window must be positive"))
	}
	if m.MinExamples <= 0 {
		errs = append(errs, errors.New("min_examples must be positive"))
	}
	if len(m.Strengths) == 0 {
		errs = append(errs, errors.New("at least one strength is required"))
	}
	if len(m.GoodForTasks) == 0 {
		errs = append(errs, errors.New("good_for_tasks must not be empty"))
	}
	for i, t := range m.GoodForTasks {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("unknown task %q", t))
		}
		if slices.Index(m.GoodForTasks, t) != i {
			errs = append(errs, fmt.Errorf("task %q listed twice", t))
		}
	}
	for _, d := range m.GoodForDeploy {
		if !d.Valid() {
			errs = append(errs, fmt.Errorf("unknown deployment %q", d))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("catalog entry %q: %w", m.Key, err)
	}
	return nil
}

// Catalog is an immutable, ordered set of model specs.
type Catalog struct {
	specs []ModelSpec
	byKey map[string]int
	byID  map[string]int
}

// Load parses and validates a YAML catalog. Order is preserved.
func Load(r io.Reader) (*Catalog, error) {
	var specs []ModelSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&specs); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(specs) == 0 {
		return nil, errors.New("catalog: no models defined")
	}

	c := &Catalog{
		specs: specs,
		byKey: make(map[string]int, len(specs)),
		byID:  make(map[string]int, len(specs)),
	}
	for i, m := range specs {
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if _, dup := c.byKey[m.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", m.Key)
		}
		if _, dup := c.byID[m.ModelID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model_id %q", m.ModelID)
		}
		c.byKey[m.Key] = i
		c.byID[m.ModelID] = i
	}
	return c, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(r io.Reader) *Catalog {
	c, err := Load(r)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCatalog = MustLoad(bytes.NewReader(defaultCatalogYAML))

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Len returns the number of models.
func (c *Catalog) Len() int { return len(c.specs) }

// All returns a copy of every spec in catalog order.
func (c *Catalog) All() []ModelSpec {
	out := make([]ModelSpec, len(c.specs))
	for i, m := range c.specs {
		out[i] = m.clone()
	}
	return out
}

// Get looks a spec up by catalog key.
func (c *Catalog) Get(key string) (ModelSpec, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return ModelSpec{}, false
	}
	return c.specs[i].clone(), true
}

// ByModelID looks a spec up by its Hugging Face model ID.
func (c *Catalog) ByModelID(id string) (ModelSpec, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ModelSpec{}, false
	}
	return c.specs[i].clone(), true
}
