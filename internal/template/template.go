// Package template renders the text templates behind generated notebooks and
// model cards.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

// Funcs is the function map available to every template.
var Funcs = template.FuncMap{
	"title":     Title,
	"thousands": Thousands,
	"json":      toJSON,
	"percent":   Percent,
}

// Title turns an identifier such as "question_answering" into
// "Question Answering".
func Title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// Thousands formats n with comma grouping.
func Thousands(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent renders a 0..1 fraction as a truncated whole percentage.
func Percent(f float64) string {
	return fmt.Sprintf("%d%%", int(f*100))
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Render resolves template expressions in tmpl against data.
// Returns the input unchanged if it contains no template delimiters.
func Render(tmpl string, data any) (string, error) {
	// Fast path: no template delimiters means no work to do.
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(Funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("template: parse: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template: render: %w", err)
	}

	return buf.String(), nil
}
