package quality

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedanthq/SLMGen/internal/models"
)

func pair(user, assistant string) models.Conversation {
	return models.Conversation{Messages: []models.Message{
		{Role: models.RoleUser, Content: user},
		{Role: models.RoleAssistant, Content: assistant},
	}}
}

func withSystem(user, assistant string) models.Conversation {
	c := pair(user, assistant)
	c.Messages = append([]models.Message{{Role: models.RoleSystem, Content: "You are helpful."}}, c.Messages...)
	return c
}

// unique builds n distinct records with long-enough answers.
func unique(n int) []models.Conversation {
	out := make([]models.Conversation, n)
	for i := range out {
		out[i] = pair(fmt.Sprintf("question %d", i), fmt.Sprintf("a detailed answer for question %d", i))
	}
	return out
}

func TestValidate_Empty(t *testing.T) {
	score, issues := Validate(nil)
	require.Equal(t, 0.0, score)
	require.Equal(t, []string{IssueEmptyDataset}, issues)
}

func TestValidate_Great(t *testing.T) {
	score, issues := Validate(unique(1000))
	require.Equal(t, 1.0, score)
	require.Equal(t, []string{HeadlineGreat}, issues)
}

func TestValidate_ScoreBands(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.Conversation
		score    float64
		headline string
	}{
		{"decent size", unique(200), 0.9, HeadlineGreat},
		{"small size", unique(60), 0.8, HeadlineGood},
		{"tiny size", unique(10), 0.5, HeadlineIssues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, issues := Validate(tt.records)
			require.InDelta(t, tt.score, score, 1e-9)
			require.Equal(t, tt.headline, issues[0])
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	records := append(unique(70), pair("q", ""), pair("q", ""), withSystem("a", "b"))
	s1, i1 := Validate(records)
	s2, i2 := Validate(records)
	require.Equal(t, s1, s2)
	require.Equal(t, i1, i2)
}

func TestValidate_ScoreNeverNegative(t *testing.T) {
	var records []models.Conversation
	for i := range 5 {
		q := fmt.Sprint(i)
		records = append(records, pair(q, ""), pair(q, ""), withSystem(q, ""), withSystem(q, ""))
	}
	score, issues := Validate(records)
	require.Equal(t, 0.0, score)
	require.Equal(t, HeadlineSignificant, issues[0])
}

func TestDuplicateChecker(t *testing.T) {
	c := &DuplicateChecker{Thresholds: DefaultThresholds()}

	require.Equal(t, Result{Name: "duplicates"}, c.Run(unique(100)))

	// 25 distinct hashes repeated, out of 100 records = 25%.
	records := unique(50)
	records = append(records, records[:25]...)
	records = append(records, unique(25)...)
	r := c.Run(records)
	require.Equal(t, 0.3, r.Penalty)
	require.Contains(t, r.Issue, "High duplication: 25.0%")

	records = append(unique(88), unique(12)...)
	r = c.Run(records)
	require.Equal(t, 0.15, r.Penalty)
	require.Contains(t, r.Issue, "12.0% duplicated")

	records = append(unique(94), unique(6)...)
	r = c.Run(records)
	require.Equal(t, 0.05, r.Penalty)
	require.Equal(t, "A few duplicates: 6.0%", r.Issue)

	// role is part of the hash
	a := pair("x", "y")
	b := models.Conversation{Messages: []models.Message{{Role: models.RoleSystem, Content: "x"}, {Role: models.RoleAssistant, Content: "y"}}}
	require.NotEqual(t, hashConversation(a), hashConversation(b))
}

func TestSizeChecker(t *testing.T) {
	c := &SizeChecker{Thresholds: DefaultThresholds()}
	tests := []struct {
		n       int
		penalty float64
		issue   string
	}{
		{49, 0.5, "❌ Too few examples - need at least 50"},
		{50, 0.2, "⚠️ Small dataset - 100+ examples recommended"},
		{100, 0.1, "Dataset is decent, but 500+ examples would be better"},
		{500, 0.05, ""},
		{1000, 0, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			r := c.Run(make([]models.Conversation, tt.n))
			assert.Equal(t, tt.penalty, r.Penalty)
			assert.Equal(t, tt.issue, r.Issue)
		})
	}
}

func TestResponseChecker(t *testing.T) {
	c := &ResponseChecker{Thresholds: DefaultThresholds()}

	r := c.Run(append(unique(20), pair("q", "   ")))
	require.Equal(t, 0.2, r.Penalty)
	require.Equal(t, "❌ Found 1 empty assistant responses", r.Issue)

	// 3 short out of 20 records is over 10%
	records := append(unique(17), pair("q", "ok"), pair("q", "yes"), pair("q", "好的好的"))
	r = c.Run(records)
	require.Equal(t, 0.1, r.Penalty)
	require.Equal(t, "⚠️ Many very short responses (3)", r.Issue)

	// both fire, penalty capped
	records = append(records, pair("q", ""))
	r = c.Run(records)
	require.Equal(t, 0.2, r.Penalty)
	require.Equal(t, "❌ Found 1 empty assistant responses | ⚠️ Many very short responses (3)", r.Issue)

	// exactly 10% is tolerated
	r = c.Run(append(unique(18), pair("q", "ok"), pair("q", "no")))
	require.Zero(t, r.Penalty)
}

func TestSystemConsistencyChecker(t *testing.T) {
	c := &SystemConsistencyChecker{Thresholds: DefaultThresholds()}

	var all []models.Conversation
	for range 10 {
		all = append(all, withSystem("a", "b"))
	}
	require.Zero(t, c.Run(all).Penalty)

	mixed := append(append([]models.Conversation{}, all...), unique(5)...)
	r := c.Run(mixed)
	require.Equal(t, 0.1, r.Penalty)
	require.Contains(t, r.Issue, "Inconsistent system prompt usage")

	// 3/10 is not above 0.3
	barely := append(append([]models.Conversation{}, all...), unique(3)...)
	require.Zero(t, c.Run(barely).Penalty)
}

func TestValidator_Assess_Results(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	report := v.Assess(unique(60))
	require.Len(t, report.Results, 4)
	names := make([]string, len(report.Results))
	for i, r := range report.Results {
		names[i] = r.Name
	}
	require.Equal(t, []string{"duplicates", "size", "responses", "system-consistency"}, names)
	require.Equal(t, []string{HeadlineGood, "⚠️ Small dataset - 100+ examples recommended"}, report.Issues)
}

func TestValidator_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.SizeSmall = 10
	th.SizeDecent = 20
	th.SizeGood = 30
	report := (&Validator{Checks: DefaultChecks(th)}).Assess(unique(60))
	require.Equal(t, 1.0, report.Score)
	require.Equal(t, []string{HeadlineGreat}, report.Issues)
}
