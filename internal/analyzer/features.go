// Package analyzer extracts the dataset characteristics that drive model
// selection.
package analyzer

import (
	"regexp"
	"strings"

	"github.com/vedanthq/SLMGen/internal/models"
)

// Sample prefixes. Large datasets are only partially scanned.
const (
	multilingualSample = 500
	jsonSample         = 200
	languageSample     = 100
)

// Non-ASCII ratio thresholds.
const (
	multilingualRatio   = 0.30
	someNonEnglishRatio = 0.10
)

// Language hints returned by MultilingualRatio.
const (
	HintMultilingual   = "multilingual"
	HintSomeNonEnglish = "some_non_english"
	HintEnglish        = "en"
)

func sample(records []models.Conversation, n int) []models.Conversation {
	if len(records) > n {
		return records[:n]
	}
	return records
}

// MultilingualRatio measures the share of non-ASCII characters in the first
// 500 records. Accented English and emoji count as non-ASCII, and romanized
// scripts do not, so this is a rough signal rather than language detection.
func MultilingualRatio(records []models.Conversation) (bool, string) {
	nonASCII, total := 0, 0
	for _, rec := range sample(records, multilingualSample) {
		for _, m := range rec.Messages {
			for _, r := range m.Content {
				total++
				if r > 127 {
					nonASCII++
				}
			}
		}
	}
	if total == 0 {
		return false, HintEnglish
	}
	ratio := float64(nonASCII) / float64(total)
	switch {
	case ratio > multilingualRatio:
		return true, HintMultilingual
	case ratio > someNonEnglishRatio:
		return true, HintSomeNonEnglish
	}
	return false, HintEnglish
}

// AvgResponseLength is the mean character length of every assistant message,
// truncated to an integer.
func AvgResponseLength(records []models.Conversation) int {
	sum, n := 0, 0
	for _, rec := range records {
		for _, m := range rec.Messages {
			if m.Role == models.RoleAssistant {
				sum += len([]rune(m.Content))
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// LooksLikeJSON reports whether more than half of the sampled assistant
// responses start with '{' or '['.
func LooksLikeJSON(records []models.Conversation) bool {
	jsonLike, total := 0, 0
	for _, rec := range sample(records, jsonSample) {
		for _, m := range rec.Messages {
			if m.Role != models.RoleAssistant {
				continue
			}
			total++
			c := strings.TrimSpace(m.Content)
			if c != "" && (c[0] == '{' || c[0] == '[') {
				jsonLike++
			}
		}
	}
	if total == 0 {
		return false
	}
	return float64(jsonLike)/float64(total) > 0.5
}

// IsMultiTurn reports whether more than half of the records have more than
// two non-system messages.
func IsMultiTurn(records []models.Conversation) bool {
	if len(records) == 0 {
		return false
	}
	multi := 0
	for _, rec := range records {
		if rec.NonSystemCount() > 2 {
			multi++
		}
	}
	return float64(multi)/float64(len(records)) > 0.5
}

// HasSystemPrompts reports whether any record carries a system message.
func HasSystemPrompts(records []models.Conversation) bool {
	for _, rec := range records {
		if rec.HasRole(models.RoleSystem) {
			return true
		}
	}
	return false
}

type langPattern struct {
	code     string
	keywords map[string]struct{}
	script   *regexp.Regexp
}

func words(ws ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return set
}

// languagePatterns is evaluated in order; earlier entries win ties.
var languagePatterns = []langPattern{
	{code: "en", keywords: words("the", "is", "are", "was", "were", "have", "has", "been", "will", "would", "could", "should")},
	{code: "es", keywords: words("el", "la", "los", "las", "un", "una", "es", "son", "está", "están", "para", "con", "por")},
	{code: "fr", keywords: words("le", "la", "les", "un", "une", "est", "sont", "dans", "pour", "avec", "sur")},
	{code: "de", keywords: words("der", "die", "das", "ein", "eine", "ist", "sind", "für", "mit", "auf", "von")},
	{code: "zh", script: regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)},
	{code: "ja", script: regexp.MustCompile(`[\x{3040}-\x{309f}\x{30a0}-\x{30ff}]`)},
	{code: "ko", script: regexp.MustCompile(`[\x{ac00}-\x{d7af}]`)},
}

// wordRe splits text into Unicode word tokens, so keyword matches respect
// boundaries around accented letters.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// LanguageScores counts keyword or script matches per language over the
// lower-cased, space-joined content of the first 100 records.
func LanguageScores(records []models.Conversation) map[string]int {
	var parts []string
	for _, rec := range sample(records, languageSample) {
		for _, m := range rec.Messages {
			parts = append(parts, m.Content)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))
	tokens := wordRe.FindAllString(text, -1)

	scores := make(map[string]int, len(languagePatterns))
	for _, p := range languagePatterns {
		if p.script != nil {
			scores[p.code] = len(p.script.FindAllStringIndex(text, -1))
			continue
		}
		n := 0
		for _, tok := range tokens {
			if _, ok := p.keywords[tok]; ok {
				n++
			}
		}
		scores[p.code] = n
	}
	return scores
}

// DominantLanguage returns the language with the most matches, but only if
// it beats English by more than 2x; otherwise "en".
func DominantLanguage(records []models.Conversation) string {
	scores := LanguageScores(records)
	best := languagePatterns[0].code
	for _, p := range languagePatterns[1:] {
		if scores[p.code] > scores[best] {
			best = p.code
		}
	}
	if best != "en" && scores[best] > scores["en"]*2 {
		return best
	}
	return "en"
}
