package models

// Level is a coarse low/medium/high rating.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// DatasetConfidence estimates how reliable fine-tuning on the dataset will be.
type DatasetConfidence struct {
	Score       float64 `json:"score"`
	Level       Level   `json:"level"`
	Coverage    float64 `json:"coverage"`
	Redundancy  float64 `json:"redundancy"`
	Diversity   float64 `json:"diversity"`
	Explanation string  `json:"explanation"`
}

// HallucinationRisk estimates how likely a tuned model is to fabricate.
type HallucinationRisk struct {
	Score          float64  `json:"score"`
	Level          Level    `json:"level"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

// DatasetPersonality is the behavioral profile implied by the responses.
type DatasetPersonality struct {
	Tone         string  `json:"tone"`
	Verbosity    string  `json:"verbosity"`
	Technicality string  `json:"technicality"`
	Strictness   string  `json:"strictness"`
	Confidence   float64 `json:"confidence"`
	Summary      string  `json:"summary"`
}

// FailureCase is a synthetic example of how a tuned model could misbehave.
type FailureCase struct {
	Category    string `json:"category"`
	UserPrompt  string `json:"user_prompt"`
	BadResponse string `json:"bad_response"`
	WhyItFails  string `json:"why_it_fails"`
	Likelihood  Level  `json:"likelihood"`
}

// InferredPrompt is a system prompt reconstructed from the responses.
type InferredPrompt struct {
	SuggestedPrompt string   `json:"suggested_prompt"`
	OutputStructure string   `json:"output_structure"`
	PromptStyle     string   `json:"prompt_style"`
	TaskIntent      string   `json:"task_intent"`
	Confidence      float64  `json:"confidence"`
	Reasoning       []string `json:"reasoning"`
}

// LanguageShare is the fraction of sampled responses detected as one language.
type LanguageShare struct {
	Code  string  `json:"code"`
	Share float64 `json:"share"`
}

// LengthInterval is a bootstrap interval for the mean assistant response
// length in characters.
type LengthInterval struct {
	Mean            float64 `json:"mean"`
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// InsightsReport bundles every dataset insight.
type InsightsReport struct {
	Confidence  DatasetConfidence  `json:"confidence"`
	Risk        HallucinationRisk  `json:"hallucination_risk"`
	Personality DatasetPersonality `json:"personality"`
	Failures    []FailureCase      `json:"failure_preview"`
	Prompt      InferredPrompt     `json:"reverse_prompt"`
	Languages   []LanguageShare    `json:"languages"`
	Length      LengthInterval     `json:"response_length"`
}
