package quality

import (
	"log/slog"

	"github.com/vedanthq/SLMGen/internal/models"
)

// Assessment headlines, chosen by score band.
const (
	HeadlineGreat       = "✅ Dataset looks great!"
	HeadlineGood        = "👍 Dataset is good, with some minor issues"
	HeadlineIssues      = "⚠️ Dataset has some issues that may affect quality"
	HeadlineSignificant = "❌ Dataset has significant issues"
	IssueEmptyDataset   = "❌ Empty dataset"
)

// Report is the full validator output, including per-check results.
type Report struct {
	Score   float64  `json:"score"`
	Issues  []string `json:"issues"`
	Results []Result `json:"checks"`
}

// Validator runs a fixed list of checks.
type Validator struct {
	Checks []Check
}

// NewValidator returns a validator running the default checks with th.
func NewValidator(th Thresholds) *Validator {
	return &Validator{Checks: DefaultChecks(th)}
}

// Validate scores records with the default thresholds.
func Validate(records []models.Conversation) (float64, []string) {
	r := NewValidator(DefaultThresholds()).Assess(records)
	return r.Score, r.Issues
}

// Assess runs every check and returns the score, the issue list led by an
// overall headline, and the individual results. An empty dataset scores 0.
func (v *Validator) Assess(records []models.Conversation) Report {
	if len(records) == 0 {
		return Report{Score: 0.0, Issues: []string{IssueEmptyDataset}}
	}

	total := 0.0
	issues := []string{""}
	results := make([]Result, 0, len(v.Checks))
	for _, c := range v.Checks {
		r := c.Run(records)
		results = append(results, r)
		total += r.Penalty
		if r.Issue != "" {
			issues = append(issues, r.Issue)
		}
	}

	score := max(0.0, 1.0-total)
	issues[0] = headline(score)

	slog.Info("Quality score", "score", score, "issues", len(issues)-1)
	return Report{Score: score, Issues: issues, Results: results}
}

func headline(score float64) string {
	switch {
	case score >= 0.9:
		return HeadlineGreat
	case score >= 0.7:
		return HeadlineGood
	case score >= 0.5:
		return HeadlineIssues
	}
	return HeadlineSignificant
}
