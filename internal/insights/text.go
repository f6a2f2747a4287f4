// Package insights derives heuristic previews of how a model fine-tuned on a
// dataset is likely to behave. Every function is deterministic for a given
// input and degrades to a low-confidence default on small datasets.
package insights

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vedanthq/SLMGen/internal/models"
)

// wordRe matches Unicode word tokens.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// wordPattern matches an expression only where both ends sit on a word
// boundary, with letters, numbers and underscore from any script counting as
// word characters. Go's \b only knows ASCII word characters.
type wordPattern struct {
	re *regexp.Regexp
}

func mustWordPattern(expr string) wordPattern {
	return wordPattern{re: regexp.MustCompile(expr)}
}

// Count returns the number of non-overlapping bounded matches in text.
// Alternatives in expr must not be prefixes of each other.
func (p wordPattern) Count(text string) int {
	n := 0
	for pos := 0; pos < len(text); {
		loc := p.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && atWordBoundary(text, start) && atWordBoundary(text, end) {
			n++
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + max(size, 1)
	}
	return n
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func atWordBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

// nonEmptyResponses returns trimmed assistant responses, skipping blanks.
func nonEmptyResponses(records []models.Conversation) []string {
	var out []string
	for _, rec := range records {
		for _, m := range rec.Messages {
			if m.Role != models.RoleAssistant {
				continue
			}
			if c := strings.TrimSpace(m.Content); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

func words(text string) []string {
	return wordRe.FindAllString(text, -1)
}

func joinLower(texts []string) string {
	return strings.ToLower(strings.Join(texts, " "))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// headRunes returns the first n characters of s.
func headRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// tailRunes returns the last n characters of s.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func firstRecords(records []models.Conversation, n int) []models.Conversation {
	if len(records) > n {
		return records[:n]
	}
	return records
}

func stringSet(ws ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return set
}
