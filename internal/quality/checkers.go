package quality

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vedanthq/SLMGen/internal/models"
)

// DuplicateChecker penalizes repeated conversations.
type DuplicateChecker struct{ Thresholds Thresholds }

var _ Check = (*DuplicateChecker)(nil)

func (*DuplicateChecker) Name() string { return "duplicates" }

// Run counts distinct conversation hashes that occur more than once, as a
// percentage of all records.
func (c *DuplicateChecker) Run(records []models.Conversation) Result {
	res := Result{Name: c.Name()}
	if len(records) == 0 {
		return res
	}
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		counts[hashConversation(rec)]++
	}
	dupes := 0
	for _, n := range counts {
		if n > 1 {
			dupes++
		}
	}
	pct := float64(dupes) / float64(len(records)) * 100

	th := c.Thresholds
	switch {
	case pct > th.DupHighPct:
		res.Penalty = th.DupHighPenalty
		res.Issue = fmt.Sprintf("⚠️ High duplication: %.1f%% of examples are duplicates", pct)
	case pct > th.DupSomePct:
		res.Penalty = th.DupSomePenalty
		res.Issue = fmt.Sprintf("⚠️ Some duplicates found: %.1f%% duplicated", pct)
	case pct > th.DupFewPct:
		res.Penalty = th.DupFewPenalty
		res.Issue = fmt.Sprintf("A few duplicates: %.1f%%", pct)
	}
	return res
}

func hashConversation(rec models.Conversation) string {
	parts := make([]string, len(rec.Messages))
	for i, m := range rec.Messages {
		parts[i] = string(m.Role) + ":" + m.Content
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// SizeChecker penalizes small datasets.
type SizeChecker struct{ Thresholds Thresholds }

var _ Check = (*SizeChecker)(nil)

func (*SizeChecker) Name() string { return "size" }

func (c *SizeChecker) Run(records []models.Conversation) Result {
	res := Result{Name: c.Name()}
	th := c.Thresholds
	n := len(records)
	switch {
	case n < th.SizeTiny:
		res.Penalty = th.TinyPenalty
		res.Issue = fmt.Sprintf("❌ Too few examples - need at least %d", th.SizeTiny)
	case n < th.SizeSmall:
		res.Penalty = th.SmallPenalty
		res.Issue = fmt.Sprintf("⚠️ Small dataset - %d+ examples recommended", th.SizeSmall)
	case n < th.SizeDecent:
		res.Penalty = th.DecentPenalty
		res.Issue = fmt.Sprintf("Dataset is decent, but %d+ examples would be better", th.SizeDecent)
	case n < th.SizeGood:
		// small penalty, nothing worth reporting
		res.Penalty = th.GoodPenalty
	}
	return res
}

// ResponseChecker penalizes empty and very short assistant responses.
type ResponseChecker struct{ Thresholds Thresholds }

var _ Check = (*ResponseChecker)(nil)

func (*ResponseChecker) Name() string { return "responses" }

func (c *ResponseChecker) Run(records []models.Conversation) Result {
	res := Result{Name: c.Name()}
	th := c.Thresholds
	empty, short := 0, 0
	for _, rec := range records {
		for _, m := range rec.Messages {
			if m.Role != models.RoleAssistant {
				continue
			}
			content := strings.TrimSpace(m.Content)
			switch {
			case content == "":
				empty++
			case utf8.RuneCountInString(content) < th.ShortResponseChars:
				short++
			}
		}
	}

	var issues []string
	penalty := 0.0
	if empty > 0 {
		penalty += th.EmptyPenalty
		issues = append(issues, fmt.Sprintf("❌ Found %d empty assistant responses", empty))
	}
	if float64(short) > float64(len(records))*th.ShortResponseShare {
		penalty += th.ShortPenalty
		issues = append(issues, fmt.Sprintf("⚠️ Many very short responses (%d)", short))
	}
	res.Penalty = min(penalty, th.ResponsePenaltyLimit)
	res.Issue = strings.Join(issues, " | ")
	return res
}

// SystemConsistencyChecker penalizes datasets where a significant share of
// records have a system prompt and the rest do not.
type SystemConsistencyChecker struct{ Thresholds Thresholds }

var _ Check = (*SystemConsistencyChecker)(nil)

func (*SystemConsistencyChecker) Name() string { return "system-consistency" }

func (c *SystemConsistencyChecker) Run(records []models.Conversation) Result {
	res := Result{Name: c.Name()}
	with, without := 0, 0
	for _, rec := range records {
		if rec.HasRole(models.RoleSystem) {
			with++
		} else {
			without++
		}
	}
	if with == 0 || without == 0 {
		return res
	}
	ratio := float64(min(with, without)) / float64(max(with, without))
	if ratio > c.Thresholds.SystemMixRatio {
		res.Penalty = c.Thresholds.SystemPenalty
		res.Issue = "⚠️ Inconsistent system prompt usage - some have it, some don't"
	}
	return res
}
