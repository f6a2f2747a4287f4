package insights

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/vedanthq/SLMGen/internal/models"
)

const minPersonalityResponses = 20

var (
	formalMarkers = stringSet(
		"therefore", "consequently", "furthermore", "moreover", "however",
		"nevertheless", "whereas", "accordingly", "subsequently", "thus",
		"hereby", "henceforth", "notwithstanding", "pursuant", "regarding",
	)
	casualMarkers = stringSet(
		"hey", "cool", "awesome", "gonna", "wanna", "kinda", "sorta", "yeah",
		"nope", "ok", "okay", "sure", "yep", "btw", "lol", "haha", "omg",
	)
	technicalPatterns = []wordPattern{
		mustWordPattern(`(?i)api|sdk|cli|gui|http|tcp|udp|sql|nosql|orm|mvc|crud`),
		mustWordPattern(`(?i)algorithm|function|variable|parameter|argument|instance`),
		mustWordPattern(`(?i)deploy|compile|debug|refactor|optimize|integrate|implement`),
		mustWordPattern(`(?i)tensor|gradient|epoch|batch|layer|neural|vector|matrix`),
		mustWordPattern(`(?i)kubernetes|docker|aws|gcp|azure|terraform|ansible`),
	}
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

	personalityTemplates = map[[2]string]string{
		{"formal", "expert"}:        "a professional technical specialist who communicates precisely",
		{"formal", "intermediate"}:  "a knowledgeable professional who explains things clearly",
		{"formal", "layman"}:        "a polite assistant who keeps things simple",
		{"casual", "expert"}:        "a friendly tech expert who makes complex topics approachable",
		{"casual", "intermediate"}:  "a helpful buddy who knows their stuff",
		{"casual", "layman"}:        "a casual conversationalist who keeps it simple",
		{"neutral", "expert"}:       "a balanced technical assistant",
		{"neutral", "intermediate"}: "a helpful all-rounder",
		{"neutral", "layman"}:       "a straightforward helper",
	}
)

// Personality infers tone, verbosity, technicality and strictness from the
// assistant responses.
func Personality(records []models.Conversation) models.DatasetPersonality {
	slog.Info("Detecting personality", "examples", len(records))

	responses := nonEmptyResponses(records)
	if len(responses) < minPersonalityResponses {
		slog.Warn("Too few responses for reliable personality detection")
		return models.DatasetPersonality{
			Tone:         "neutral",
			Verbosity:    "moderate",
			Technicality: "intermediate",
			Strictness:   "moderate",
			Confidence:   0.3,
			Summary: "Not enough data for reliable personality analysis. " +
				"Consider adding more examples for a better assessment.",
		}
	}

	tone, toneConf := analyzeTone(responses)
	verbosity, verbConf := analyzeVerbosity(responses)
	technicality, techConf := analyzeTechnicality(responses)
	strictness, strictConf := analyzeStrictness(responses)
	overall := (toneConf + verbConf + techConf + strictConf) / 4

	slog.Info("Personality detected",
		"tone", tone, "verbosity", verbosity, "technicality", technicality, "strictness", strictness,
		"confidence", overall)
	return models.DatasetPersonality{
		Tone:         tone,
		Verbosity:    verbosity,
		Technicality: technicality,
		Strictness:   strictness,
		Confidence:   overall,
		Summary:      personalitySummary(tone, verbosity, technicality, strictness),
	}
}

func analyzeTone(responses []string) (string, float64) {
	text := joinLower(responses)
	seen := map[string]struct{}{}
	for _, w := range words(text) {
		seen[w] = struct{}{}
	}
	formal, casual := 0, 0
	for w := range seen {
		if _, ok := formalMarkers[w]; ok {
			formal++
		}
		if _, ok := casualMarkers[w]; ok {
			casual++
		}
	}

	sentences := sentenceSplitRe.Split(text, -1)
	wordsInSentences := 0
	for _, s := range sentences {
		wordsInSentences += len(strings.Fields(s))
	}
	avgSentence := float64(wordsInSentences) / float64(max(len(sentences), 1))

	formalScore := formal * 2
	if avgSentence > 15 {
		formalScore++
	}
	casualScore := casual * 2
	if avgSentence < 10 {
		casualScore++
	}

	switch {
	case formalScore > casualScore+2:
		return "formal", min(0.9, 0.5+float64(formalScore)*0.1)
	case casualScore > formalScore+2:
		return "casual", min(0.9, 0.5+float64(casualScore)*0.1)
	}
	return "neutral", 0.6
}

func analyzeVerbosity(responses []string) (string, float64) {
	if len(responses) == 0 {
		return "moderate", 0.3
	}
	total := 0
	for _, r := range responses {
		total += runeLen(r)
	}
	avg := float64(total) / float64(len(responses))
	switch {
	case avg < 150:
		return "concise", 0.8
	case avg < 500:
		return "moderate", 0.7
	}
	return "verbose", 0.8
}

func analyzeTechnicality(responses []string) (string, float64) {
	text := joinLower(responses)
	total := len(words(text))
	if total == 0 {
		return "layman", 0.3
	}
	tech := 0
	for _, re := range technicalPatterns {
		tech += re.Count(text)
	}
	density := float64(tech) / (float64(total) / 100)
	switch {
	case density > 3:
		return "expert", 0.85
	case density > 1:
		return "intermediate", 0.75
	}
	return "layman", 0.7
}

// analyzeStrictness treats templated openings and low length variation as
// signs of a strict, predictable dataset.
func analyzeStrictness(responses []string) (string, float64) {
	if len(responses) < 10 {
		return "moderate", 0.4
	}
	lengths := make([]float64, len(responses))
	sum := 0.0
	for i, r := range responses {
		lengths[i] = float64(runeLen(r))
		sum += lengths[i]
	}
	avg := sum / float64(len(lengths))
	variance := 0.0
	for _, l := range lengths {
		variance += (l - avg) * (l - avg)
	}
	variance /= float64(len(lengths))
	cv := 0.0
	if avg > 0 {
		cv = math.Sqrt(variance) / avg
	}

	if len(responses) > 20 {
		prefixes := map[string]int{}
		top := 0
		for _, r := range responses {
			if runeLen(r) > 50 {
				p := headRunes(r, 50)
				prefixes[p]++
				top = max(top, prefixes[p])
			}
		}
		if float64(top) > float64(len(responses))*0.1 {
			return "strict", 0.8
		}
	}

	switch {
	case cv < 0.3:
		return "strict", 0.75
	case cv < 0.6:
		return "moderate", 0.7
	}
	return "flexible", 0.75
}

func personalitySummary(tone, verbosity, technicality, strictness string) string {
	base, ok := personalityTemplates[[2]string{tone, technicality}]
	if !ok {
		base = "a capable assistant"
	}
	switch verbosity {
	case "concise":
		base += " who gets straight to the point"
	case "verbose":
		base += " who provides thorough explanations"
	}
	switch strictness {
	case "strict":
		base += " with consistent, predictable responses"
	case "flexible":
		base += " who adapts to different questions"
	}
	return fmt.Sprintf("Your dataset behaves like %s.", base)
}
