package analyzer

import (
	"log/slog"

	"github.com/vedanthq/SLMGen/internal/models"
)

// Analyze runs every extractor once. The dominant language is only probed
// when the non-ASCII ratio flags the dataset as multilingual.
func Analyze(records []models.Conversation) models.DatasetCharacteristics {
	slog.Info("Analyzing dataset", "examples", len(records))

	isMulti, _ := MultilingualRatio(records)
	chars := models.DatasetCharacteristics{
		IsMultilingual:    isMulti,
		AvgResponseLength: AvgResponseLength(records),
		LooksLikeJSON:     LooksLikeJSON(records),
		IsMultiTurn:       IsMultiTurn(records),
		HasSystemPrompts:  HasSystemPrompts(records),
		DominantLanguage:  "en",
	}
	if isMulti {
		chars.DominantLanguage = DominantLanguage(records)
	}

	slog.Info("Analysis complete",
		"multilingual", chars.IsMultilingual,
		"json_output", chars.LooksLikeJSON,
		"multi_turn", chars.IsMultiTurn,
	)
	return chars
}
