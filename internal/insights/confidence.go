package insights

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/statistics"
)

// ConfidenceWeights sets how much each component contributes to the overall
// dataset confidence. Redundancy is applied inverted.
type ConfidenceWeights struct {
	Coverage   float64
	Redundancy float64
	Diversity  float64
	Balance    float64
}

// DefaultConfidenceWeights are the stock confidence weights.
var DefaultConfidenceWeights = ConfidenceWeights{Coverage: 0.3, Redundancy: 0.25, Diversity: 0.25, Balance: 0.2}

const minConfidenceExamples = 50

// Confidence estimates how reliable fine-tuning on records will be, using
// the default weights.
func Confidence(records []models.Conversation) models.DatasetConfidence {
	return ConfidenceWith(records, DefaultConfidenceWeights)
}

// ConfidenceWith is Confidence with explicit weights.
func ConfidenceWith(records []models.Conversation, w ConfidenceWeights) models.DatasetConfidence {
	slog.Info("Calculating confidence", "examples", len(records))

	if len(records) < minConfidenceExamples {
		return models.DatasetConfidence{
			Score:       0.3,
			Level:       models.LevelLow,
			Coverage:    0.3,
			Redundancy:  0.0,
			Diversity:   0.5,
			Explanation: "Too few examples for confident training. Add at least 50 examples.",
		}
	}

	coverage, covNote := measureCoverage(records)
	redundancy, redNote := measureRedundancy(records)
	diversity, divNote := measureDiversity(records)
	balance, balNote := measureBalance(records)

	score := coverage*w.Coverage +
		(1-redundancy)*w.Redundancy +
		diversity*w.Diversity +
		balance*w.Balance

	level := models.LevelLow
	switch {
	case score > 0.75:
		level = models.LevelHigh
	case score > 0.5:
		level = models.LevelMedium
	}

	var notes []string
	for _, n := range []string{covNote, redNote, divNote, balNote} {
		if n != "" {
			notes = append(notes, n)
		}
	}
	explanation := "Dataset looks well-structured for training."
	if len(notes) > 0 {
		explanation = strings.Join(notes, ". ") + "."
	}

	slog.Info("Dataset confidence", "level", level, "score", score)
	return models.DatasetConfidence{
		Score:       statistics.Round(score, 2),
		Level:       level,
		Coverage:    statistics.Round(coverage, 2),
		Redundancy:  statistics.Round(redundancy, 2),
		Diversity:   statistics.Round(diversity, 2),
		Explanation: explanation,
	}
}

// measureCoverage approximates vocabulary breadth from lowercase ASCII words
// of four or more letters.
func measureCoverage(records []models.Conversation) (float64, string) {
	var texts []string
	for _, rec := range records {
		for _, m := range rec.Messages {
			texts = append(texts, m.Content)
		}
	}
	unique := map[string]struct{}{}
	total := 0
	for _, w := range words(joinLower(texts)) {
		if !isLongASCIIWord(w) {
			continue
		}
		total++
		unique[w] = struct{}{}
	}
	if total == 0 {
		return 0.3, "No text content found"
	}

	richness := float64(len(unique)) / math.Sqrt(float64(total))
	coverage := min(1.0, richness/50)
	switch {
	case coverage > 0.7:
		return coverage, "Excellent vocabulary coverage"
	case coverage > 0.4:
		return coverage, "Good topic coverage"
	}
	return coverage, "Limited vocabulary breadth"
}

func isLongASCIIWord(w string) bool {
	if len(w) < 4 {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

// measureRedundancy returns the share of records that repeat an earlier one
// once each message is cut to 100 characters and case is ignored.
func measureRedundancy(records []models.Conversation) (float64, string) {
	counts := map[string]int{}
	for _, rec := range records {
		parts := make([]string, len(rec.Messages))
		for i, m := range rec.Messages {
			parts[i] = headRunes(m.Content, 100)
		}
		key := strings.TrimSpace(strings.ToLower(strings.Join(parts, "|")))
		sum := md5.Sum([]byte(key))
		counts[hex.EncodeToString(sum[:])[:16]]++
	}
	extra := 0
	for _, c := range counts {
		if c > 1 {
			extra += c - 1
		}
	}
	redundancy := float64(extra) / float64(max(len(records), 1))
	switch {
	case redundancy > 0.2:
		return redundancy, fmt.Sprintf("High redundancy: ~%d%% duplicates", int(redundancy*100))
	case redundancy > 0.05:
		return redundancy, "Some duplicate examples found"
	}
	return redundancy, ""
}

// measureDiversity scores how varied assistant openings, endings and lengths are.
func measureDiversity(records []models.Conversation) (float64, string) {
	var responses []string
	for _, rec := range records {
		for _, m := range rec.Messages {
			if m.Role == models.RoleAssistant {
				responses = append(responses, m.Content)
			}
		}
	}
	if len(responses) < 10 {
		return 0.5, "Too few responses for diversity analysis"
	}

	lengths := map[int]struct{}{}
	openings := map[string]struct{}{}
	endings := map[string]struct{}{}
	long := 0
	for _, r := range responses {
		n := runeLen(r)
		lengths[n] = struct{}{}
		if n > 30 {
			long++
			openings[strings.TrimSpace(strings.ToLower(headRunes(r, 30)))] = struct{}{}
			endings[strings.TrimSpace(strings.ToLower(tailRunes(r, 30)))] = struct{}{}
		}
	}
	uniqueOpenings := float64(len(openings)) / float64(max(long, 1))
	uniqueEndings := float64(len(endings)) / float64(max(long, 1))
	diversity := (uniqueOpenings + uniqueEndings + min(1.0, float64(len(lengths))/20)) / 3

	switch {
	case diversity > 0.7:
		return diversity, "High response diversity"
	case diversity > 0.4:
		return diversity, "Moderate response diversity"
	}
	return diversity, "Low response diversity - responses are very similar"
}

func measureBalance(records []models.Conversation) (float64, string) {
	users, assistants := 0, 0
	for _, rec := range records {
		for _, m := range rec.Messages {
			switch m.Role {
			case models.RoleUser:
				users++
			case models.RoleAssistant:
				assistants++
			}
		}
	}
	if users == 0 || assistants == 0 {
		return 0.2, "Missing user or assistant messages"
	}
	ratio := float64(min(users, assistants)) / float64(max(users, assistants))
	switch {
	case ratio > 0.8:
		return 1.0, ""
	case ratio > 0.5:
		return 0.7, "Slightly imbalanced message distribution"
	}
	return 0.4, "Imbalanced dataset - check message distribution"
}
