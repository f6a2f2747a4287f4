package models

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is user, assistant or system.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Message is one role-tagged turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is one training example: an ordered list of messages.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// NonSystemCount returns the number of messages that are not system prompts.
func (c Conversation) NonSystemCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role != RoleSystem {
			n++
		}
	}
	return n
}

// HasRole reports whether any message in the conversation has the given role.
func (c Conversation) HasRole(role Role) bool {
	for _, m := range c.Messages {
		if m.Role == role {
			return true
		}
	}
	return false
}

// AssistantResponses returns the content of every assistant message in the
// dataset, in order.
func AssistantResponses(records []Conversation) []string {
	var out []string
	for _, rec := range records {
		for _, m := range rec.Messages {
			if m.Role == RoleAssistant {
				out = append(out, m.Content)
			}
		}
	}
	return out
}

// DatasetStats holds the counts computed at ingestion. QualityScore and
// QualityIssues are filled in afterwards by the quality validator.
type DatasetStats struct {
	TotalExamples       int      `json:"total_examples"`
	TotalTokens         int      `json:"total_tokens"`
	AvgTokensPerExample int      `json:"avg_tokens_per_example"`
	SingleTurnPct       int      `json:"single_turn_pct"`
	MultiTurnPct        int      `json:"multi_turn_pct"`
	HasSystemPrompts    bool     `json:"has_system_prompts"`
	QualityScore        float64  `json:"quality_score"`
	QualityIssues       []string `json:"quality_issues"`
}

// ApplyQuality records the validator's output on the stats.
func (s *DatasetStats) ApplyQuality(score float64, issues []string) {
	s.QualityScore = score
	s.QualityIssues = issues
	if s.QualityIssues == nil {
		s.QualityIssues = []string{}
	}
}

// DatasetCharacteristics are the features the recommender consumes.
type DatasetCharacteristics struct {
	IsMultilingual    bool   `json:"is_multilingual"`
	AvgResponseLength int    `json:"avg_response_length"`
	LooksLikeJSON     bool   `json:"looks_like_json"`
	IsMultiTurn       bool   `json:"is_multi_turn"`
	HasSystemPrompts  bool   `json:"has_system_prompts"`
	DominantLanguage  string `json:"dominant_language"`
}
