package models

// ModelRecommendation is one scored catalog entry.
type ModelRecommendation struct {
	ModelID       string   `json:"model_id"`
	ModelName     string   `json:"model_name"`
	Size          string   `json:"size"`
	Score         float64  `json:"score"`
	Reasons       []string `json:"reasons"`
	ContextWindow int      `json:"context_window"`
	IsGated       bool     `json:"is_gated"`
}

// RecommendationResponse holds the best model and up to three runners-up.
type RecommendationResponse struct {
	Primary      ModelRecommendation   `json:"primary"`
	Alternatives []ModelRecommendation `json:"alternatives"`
	// Breakdown is populated only when an explanation was requested.
	Breakdown []ScoreBreakdown `json:"breakdown,omitempty"`
}

// ScoreBreakdown shows how a model's total was assembled.
type ScoreBreakdown struct {
	ModelID   string `json:"model_id"`
	Rank      int    `json:"rank"`
	TaskFit   int    `json:"task_fit"`
	DeployFit int    `json:"deploy_fit"`
	DataFit   int    `json:"data_fit"`
	Bonus     int    `json:"bonus"`
	Override  int    `json:"override"`
	Total     int    `json:"total"`
}
