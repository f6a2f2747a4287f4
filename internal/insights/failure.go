package insights

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/vedanthq/SLMGen/internal/models"
)

// DefaultMaxFailureCases is how many failure cases FailurePreview returns.
const DefaultMaxFailureCases = 3

const (
	minFailureExamples = 20
	failureSample      = 200
)

var refusalPhrases = []string{"i can't", "i cannot", "i'm unable", "i won't"}

type datasetPatterns struct {
	topics         []string
	hasRefusals    bool
	avgResponseLen int
}

func collectPatterns(records []models.Conversation) datasetPatterns {
	var p datasetPatterns
	total, n := 0, 0
	for _, rec := range firstRecords(records, failureSample) {
		for _, m := range rec.Messages {
			switch m.Role {
			case models.RoleUser:
				fields := strings.Fields(m.Content)
				p.topics = append(p.topics, strings.Join(fields[:min(5, len(fields))], " "))
			case models.RoleAssistant:
				total += runeLen(m.Content)
				n++
				lower := strings.ToLower(m.Content)
				for _, phrase := range refusalPhrases {
					if strings.Contains(lower, phrase) {
						p.hasRefusals = true
					}
				}
			}
		}
	}
	if n > 0 {
		p.avgResponseLen = total / n
	}
	return p
}

// topicIndex derives a stable index from the record count and average
// response length so the same dataset always previews the same topics.
func topicIndex(records int, avgResponseLen int) uint64 {
	sum := md5.Sum([]byte(strconv.Itoa(records) + strconv.Itoa(avgResponseLen)))
	idx, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
	return idx
}

func pickTopic(topics []string, idx uint64, fallback string) string {
	if len(topics) == 0 {
		return fallback
	}
	return topics[idx%uint64(len(topics))]
}

func hallucinationCase(p datasetPatterns, idx uint64) models.FailureCase {
	topic := pickTopic(p.topics, idx, "this subject")
	likelihood := models.LevelHigh
	if p.avgResponseLen < 200 {
		likelihood = models.LevelMedium
	}
	return models.FailureCase{
		Category:   "hallucination",
		UserPrompt: fmt.Sprintf("Tell me the exact statistics about %s", topic),
		BadResponse: fmt.Sprintf("According to the 2023 Global Report, %s accounts for "+
			"precisely 47.3%% of all instances, with a 12%% increase year-over-year. "+
			"The International Committee confirmed these numbers in their March publication.", topic),
		WhyItFails: "The model invents specific statistics and fake sources. " +
			"This happens when training data lacks factual grounding.",
		Likelihood: likelihood,
	}
}

func refusalCase(p datasetPatterns) models.FailureCase {
	likelihood := models.LevelLow
	if p.hasRefusals {
		likelihood = models.LevelHigh
	}
	return models.FailureCase{
		Category:   "refusal",
		UserPrompt: "Can you help me write a story about a difficult situation?",
		BadResponse: "I'm sorry, but I can't help with that request. " +
			"Writing about difficult situations could be harmful. " +
			"Is there something else I can assist you with?",
		WhyItFails: "The model becomes overly cautious and refuses benign requests. " +
			"This can happen if training data has many refusal examples.",
		Likelihood: likelihood,
	}
}

func inconsistencyCase() models.FailureCase {
	return models.FailureCase{
		Category:   "inconsistency",
		UserPrompt: "What's the best approach for this problem?",
		BadResponse: "The best approach is to use method A because it's faster. " +
			"However, you should always use method B as it's more reliable. " +
			"Actually, method C is what most experts recommend.",
		WhyItFails: "The model contradicts itself within a single response. " +
			"This indicates conflicting examples in the training data.",
		Likelihood: models.LevelMedium,
	}
}

func offTopicCase(p datasetPatterns, idx uint64) models.FailureCase {
	topic := pickTopic(p.topics, idx+1, "this")
	return models.FailureCase{
		Category:   "off-topic",
		UserPrompt: fmt.Sprintf("How does %s work in practice?", topic),
		BadResponse: "That's a great question! Speaking of great things, " +
			"have you heard about the latest developments in AI? " +
			"There's so much happening in the field right now...",
		WhyItFails: "The model drifts off-topic instead of addressing the question. " +
			"This can happen with datasets that have tangential responses.",
		Likelihood: models.LevelLow,
	}
}

var likelihoodOrder = map[models.Level]int{models.LevelHigh: 0, models.LevelMedium: 1, models.LevelLow: 2}

// FailurePreview synthesizes up to maxCases plausible failure modes, most
// likely first. A maxCases of zero or less uses DefaultMaxFailureCases.
func FailurePreview(records []models.Conversation, maxCases int) []models.FailureCase {
	slog.Info("Generating failure previews", "examples", len(records))
	if maxCases <= 0 {
		maxCases = DefaultMaxFailureCases
	}

	if len(records) < minFailureExamples {
		return []models.FailureCase{{
			Category:    "insufficient_data",
			UserPrompt:  "Any question",
			BadResponse: "[Model may produce random or incoherent output]",
			WhyItFails:  "With fewer than 20 examples, the model has too little to learn from.",
			Likelihood:  models.LevelHigh,
		}}
	}

	p := collectPatterns(records)
	idx := topicIndex(len(records), p.avgResponseLen)

	cases := []models.FailureCase{hallucinationCase(p, idx), inconsistencyCase()}
	if p.hasRefusals {
		cases = append(cases, refusalCase(p))
	} else {
		cases = append(cases, offTopicCase(p, idx))
	}
	sort.SliceStable(cases, func(a, b int) bool {
		return likelihoodOrder[cases[a].Likelihood] < likelihoodOrder[cases[b].Likelihood]
	})
	if len(cases) > maxCases {
		cases = cases[:maxCases]
	}

	slog.Info("Generated failure preview cases", "count", len(cases))
	return cases
}
