package notebook

import (
	"encoding/json"
	"strings"
)

// Notebook is the subset of nbformat 4 the generator emits.
type Notebook struct {
	NBFormat      int      `json:"nbformat"`
	NBFormatMinor int      `json:"nbformat_minor"`
	Metadata      Metadata `json:"metadata"`
	Cells         []Cell   `json:"cells"`
}

type Metadata struct {
	Colab        ColabMetadata  `json:"colab"`
	KernelSpec   KernelSpec     `json:"kernelspec"`
	LanguageInfo map[string]any `json:"language_info"`
	Accelerator  string         `json:"accelerator"`
}

type ColabMetadata struct {
	Provenance []any  `json:"provenance"`
	GPUType    string `json:"gpuType"`
}

type KernelSpec struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func defaultMetadata() Metadata {
	return Metadata{
		Colab:        ColabMetadata{Provenance: []any{}, GPUType: "T4"},
		KernelSpec:   KernelSpec{Name: "python3", DisplayName: "Python 3"},
		LanguageInfo: map[string]any{"name": "python"},
		Accelerator:  "GPU",
	}
}

// Cell types.
const (
	CellMarkdown = "markdown"
	CellCode     = "code"
)

// Cell is one notebook cell. Source holds the lines of the cell, each but the
// last terminated by a newline.
type Cell struct {
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

// MarshalJSON adds the empty outputs and null execution count that nbformat
// requires on code cells.
func (c Cell) MarshalJSON() ([]byte, error) {
	type plain Cell
	if c.CellType != CellCode {
		return json.Marshal(plain(c))
	}
	return json.Marshal(struct {
		plain
		Outputs        []any `json:"outputs"`
		ExecutionCount *int  `json:"execution_count"`
	}{plain: plain(c), Outputs: []any{}})
}

// Text joins the cell source back into a single string.
func (c Cell) Text() string {
	return strings.Join(c.Source, "")
}

func MarkdownCell(text string) Cell {
	return Cell{CellType: CellMarkdown, Metadata: map[string]any{}, Source: sourceLines(text)}
}

func CodeCell(text string) Cell {
	return Cell{CellType: CellCode, Metadata: map[string]any{}, Source: sourceLines(text)}
}

func sourceLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines[:len(lines)-1] {
		lines[i] += "\n"
	}
	return lines
}
