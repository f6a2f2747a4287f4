package insights

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/statistics"
)

// Output structures.
const (
	StructureFreeText = "free_text"
	StructureJSON     = "json"
	StructureCode     = "code"
	StructureList     = "list"
)

// Prompt styles.
const (
	StyleInstructional  = "instructional"
	StyleTaskFocused    = "task_focused"
	StyleConversational = "conversational"
)

// Task intents.
const (
	IntentQA             = "qa"
	IntentGeneration     = "generation"
	IntentClassification = "classification"
	IntentExtraction     = "extraction"
	IntentChat           = "chat"
)

const (
	minReverseExamples = 10
	reverseSample      = 100
	basePrompt         = "You are a helpful AI assistant."
)

var (
	codeLineRe    = regexp.MustCompile(`(?m)^(def |class |function |import |from )`)
	listLineRe    = regexp.MustCompile(`(?m)^[\d\-*•]\s`)
	commandOpenRe = regexp.MustCompile(`^(write|create|generate|explain|list|describe|how|what|why)`)

	taskInstructions = map[string]string{
		IntentQA:             "Answer questions clearly and provide explanations when helpful.",
		IntentGeneration:     "Generate high-quality content based on user requests.",
		IntentClassification: "Provide clear, concise categorizations or decisions.",
		IntentExtraction:     "Extract and structure information in the requested format.",
		IntentChat:           "Engage naturally in conversation while being helpful.",
	}
	formatInstructions = map[string]string{
		StructureJSON: "Respond with properly formatted JSON when appropriate.",
		StructureCode: "Provide clean, well-commented code with explanations.",
		StructureList: "Use clear lists and bullet points to organize information.",
	}
	styleInstructions = map[string]string{
		StyleInstructional:  "Follow user instructions precisely and completely.",
		StyleTaskFocused:    "Focus on directly addressing the user's questions.",
		StyleConversational: "Be friendly and conversational in your responses.",
	}
)

func pct(n, total int) int {
	return int(float64(n) / float64(total) * 100)
}

// ReversePrompt infers a system prompt that would produce the dataset's
// responses. It is inference, not ground truth.
func ReversePrompt(records []models.Conversation) models.InferredPrompt {
	slog.Info("Inferring reverse prompt", "examples", len(records))

	if len(records) < minReverseExamples {
		return models.InferredPrompt{
			SuggestedPrompt: basePrompt,
			OutputStructure: "unknown",
			PromptStyle:     "unknown",
			TaskIntent:      "unknown",
			Confidence:      0.2,
			Reasoning:       []string{"Insufficient data for reliable inference (need 10+ examples)"},
		}
	}

	responses := models.AssistantResponses(records)
	structure, structReason := outputStructure(responses)
	style, styleReason := promptStyle(records)
	intent, intentReason := taskIntent(records, structure)

	confidence := statistics.Round(min(1.0, float64(len(records))/200)*0.7, 2)
	slog.Info("Inferred prompt", "style", style, "intent", intent, "confidence", confidence)

	return models.InferredPrompt{
		SuggestedPrompt: suggestPrompt(structure, style, intent, responses),
		OutputStructure: structure,
		PromptStyle:     style,
		TaskIntent:      intent,
		Confidence:      confidence,
		Reasoning: []string{
			"Output: " + structReason,
			"Style: " + styleReason,
			"Intent: " + intentReason,
		},
	}
}

func outputStructure(responses []string) (string, string) {
	if len(responses) == 0 {
		return StructureFreeText, "No responses to analyze"
	}
	sample := responses[:min(len(responses), reverseSample)]

	jsonN, codeN, listN := 0, 0, 0
	for _, r := range sample {
		s := strings.TrimSpace(r)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			if strings.HasSuffix(s, "}") || strings.HasSuffix(s, "]") {
				jsonN++
			}
		}
		if strings.Contains(r, "```") || codeLineRe.MatchString(r) {
			codeN++
		}
		if listLineRe.MatchString(r) {
			listN++
		}
	}

	total := float64(len(sample))
	switch {
	case float64(jsonN)/total > 0.5:
		return StructureJSON, fmt.Sprintf("%d%% of responses are JSON-structured", pct(jsonN, len(sample)))
	case float64(codeN)/total > 0.3:
		return StructureCode, fmt.Sprintf("%d%% of responses contain code", pct(codeN, len(sample)))
	case float64(listN)/total > 0.4:
		return StructureList, fmt.Sprintf("%d%% of responses use list format", pct(listN, len(sample)))
	}
	return StructureFreeText, "Responses are primarily free-form text"
}

func promptStyle(records []models.Conversation) (string, string) {
	if len(records) == 0 {
		return StyleConversational, "No data to analyze"
	}
	var firsts []string
	for _, rec := range firstRecords(records, reverseSample) {
		for _, m := range rec.Messages {
			if m.Role == models.RoleUser {
				firsts = append(firsts, strings.ToLower(m.Content))
				break
			}
		}
	}
	if len(firsts) == 0 {
		return StyleConversational, "No user messages found"
	}

	commands, questions := 0, 0
	for _, m := range firsts {
		if commandOpenRe.MatchString(m) {
			commands++
		}
		if strings.HasSuffix(strings.TrimRight(m, " \t\r\n"), "?") {
			questions++
		}
	}
	total := float64(len(firsts))
	switch {
	case float64(commands)/total > 0.6:
		return StyleInstructional, fmt.Sprintf("%d%% of queries are commands", pct(commands, len(firsts)))
	case float64(questions)/total > 0.6:
		return StyleTaskFocused, fmt.Sprintf("%d%% of queries are questions", pct(questions, len(firsts)))
	}
	return StyleConversational, "Mixed query patterns suggest conversational style"
}

func taskIntent(records []models.Conversation, structure string) (string, string) {
	if len(records) == 0 {
		return IntentChat, "No data to analyze"
	}
	responses := models.AssistantResponses(firstRecords(records, reverseSample))
	if len(responses) == 0 {
		return IntentChat, "No assistant responses found"
	}

	switch structure {
	case StructureJSON:
		return IntentExtraction, "JSON output structure indicates structured extraction task"
	case StructureCode:
		return IntentGeneration, "Code output indicates code generation task"
	}

	short, explanatory := 0, 0
	for _, r := range responses {
		if len(strings.Fields(r)) < 20 {
			short++
		}
		lower := strings.ToLower(r)
		if strings.Contains(lower, "because") || strings.Contains(lower, "therefore") {
			explanatory++
		}
	}
	total := float64(len(responses))
	if float64(short)/total > 0.7 {
		return IntentClassification, fmt.Sprintf("%d%% of responses are short (classification-like)", pct(short, len(responses)))
	}
	if float64(explanatory)/total > 0.3 {
		return IntentQA, fmt.Sprintf("%d%% of responses contain explanations", pct(explanatory, len(responses)))
	}
	return IntentChat, "Responses follow general conversational patterns"
}

func suggestPrompt(structure, style, intent string, responses []string) string {
	task, ok := taskInstructions[intent]
	if !ok {
		task = taskInstructions[IntentChat]
	}
	lines := []string{basePrompt, task}
	if f := formatInstructions[structure]; f != "" {
		lines = append(lines, f)
	}
	if s := styleInstructions[style]; s != "" {
		lines = append(lines, s)
	}

	if len(responses) > 0 {
		sample := responses[:min(len(responses), 50)]
		total := 0
		for _, r := range sample {
			total += runeLen(r)
		}
		avg := float64(total) / float64(len(sample))
		switch {
		case avg < 200:
			lines = append(lines, "Keep responses concise and to the point.")
		case avg > 800:
			lines = append(lines, "Provide thorough, detailed responses.")
		}
	}
	return strings.Join(lines, "\n")
}
