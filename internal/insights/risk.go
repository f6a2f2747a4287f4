package insights

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/statistics"
)

// RiskWeights sets how much each signal contributes to hallucination risk.
type RiskWeights struct {
	Abstraction    float64
	Grounding      float64
	Variance       float64
	Overconfidence float64
}

// DefaultRiskWeights are the stock risk weights.
var DefaultRiskWeights = RiskWeights{Abstraction: 0.3, Grounding: 0.3, Variance: 0.2, Overconfidence: 0.2}

const minRiskResponses = 20

var (
	groundingMarkers = []string{
		"according to", "based on", "research shows", "studies indicate",
		"data suggests", "evidence shows", "it is proven", "documented",
		"verified", "confirmed", "established", "measured", "recorded",
	}
	abstractMarkers = []string{
		"probably", "possibly", "might", "could", "perhaps", "seemingly",
		"apparently", "presumably", "supposedly", "allegedly", "virtually",
		"essentially", "basically", "generally", "typically", "usually",
	}
	overconfidentPatterns = []wordPattern{
		mustWordPattern(`definitely|certainly|absolutely|without doubt|100%`),
		mustWordPattern(`always|never|everyone|no one|impossible`),
		mustWordPattern(`the best|the worst|the only|the first|the last`),
	}
)

// Risk estimates how likely a tuned model is to fabricate, using the
// default weights.
func Risk(records []models.Conversation) models.HallucinationRisk {
	return RiskWith(records, DefaultRiskWeights)
}

// RiskWith is Risk with explicit weights.
func RiskWith(records []models.Conversation, w RiskWeights) models.HallucinationRisk {
	slog.Info("Estimating hallucination risk", "examples", len(records))

	responses := nonEmptyResponses(records)
	if len(responses) < minRiskResponses {
		return models.HallucinationRisk{
			Score:          0.5,
			Level:          models.LevelMedium,
			Factors:        []string{"Insufficient data for reliable risk assessment"},
			Recommendation: "Add more training examples for a more accurate estimate.",
		}
	}

	text := joinLower(responses)
	totalWords := len(words(text))

	var factors []string
	absScore, absNote := abstractionDensity(text, totalWords)
	if absNote != "" {
		factors = append(factors, absNote)
	}
	groundScore, groundNote := grounding(text, len(responses))
	if groundNote != "" && groundScore > 0.5 {
		factors = append(factors, groundNote)
	}
	varScore, varNote := lengthVariance(responses)
	if varNote != "" {
		factors = append(factors, varNote)
	}
	overScore, overNote := overconfidence(text, totalWords)
	if overNote != "" {
		factors = append(factors, overNote)
	}

	overall := absScore*w.Abstraction +
		groundScore*w.Grounding +
		varScore*w.Variance +
		overScore*w.Overconfidence

	risk := models.HallucinationRisk{Score: statistics.Round(overall, 2), Factors: factors}
	switch {
	case overall < 0.35:
		risk.Level = models.LevelLow
		risk.Recommendation = "Your dataset has good grounding. The model should be relatively reliable."
	case overall < 0.6:
		risk.Level = models.LevelMedium
		risk.Recommendation = "Consider adding more factual references and reducing vague language."
	default:
		risk.Level = models.LevelHigh
		risk.Recommendation = "This dataset may produce unreliable outputs. Consider adding grounded examples with citations."
	}
	if len(risk.Factors) == 0 {
		risk.Factors = []string{"No significant risk factors detected"}
	}

	slog.Info("Hallucination risk", "level", risk.Level, "score", overall)
	return risk
}

func countMarkers(text string, markers []string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(text, m)
	}
	return n
}

func abstractionDensity(text string, totalWords int) (float64, string) {
	if totalWords == 0 {
		return 0.5, ""
	}
	density := float64(countMarkers(text, abstractMarkers)) / float64(totalWords) * 100
	switch {
	case density > 5:
		return 0.8, "High use of uncertain language (might, probably, etc.)"
	case density > 2:
		return 0.5, "Moderate use of qualifying language"
	}
	return 0.2, ""
}

func grounding(text string, responses int) (float64, string) {
	numbers := 0
	for _, w := range words(text) {
		if isDigits(w) {
			numbers++
		}
	}
	perResponse := (float64(countMarkers(text, groundingMarkers)) + float64(numbers)/10) / float64(max(responses, 1))
	switch {
	case perResponse < 0.1:
		return 0.7, "Responses lack factual grounding or citations"
	case perResponse < 0.5:
		return 0.4, ""
	}
	return 0.2, "Good use of factual references"
}

func isDigits(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}

func lengthVariance(responses []string) (float64, string) {
	if len(responses) < 10 {
		return 0.5, ""
	}
	cv, ok := statistics.CoefficientOfVariation(statistics.Lengths(responses))
	if !ok {
		return 0.5, ""
	}
	switch {
	case cv > 1.0:
		return 0.7, "High variance in response lengths (inconsistent behavior)"
	case cv > 0.5:
		return 0.4, ""
	}
	return 0.2, ""
}

func overconfidence(text string, totalWords int) (float64, string) {
	if totalWords == 0 {
		return 0.5, ""
	}
	n := 0
	for _, re := range overconfidentPatterns {
		n += re.Count(text)
	}
	if float64(n)/float64(totalWords)*100 > 1 {
		return 0.6, "Frequent use of absolute claims"
	}
	return 0.2, ""
}
