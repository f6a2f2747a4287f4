// Package quality scores a dataset for problems that hurt fine-tuning.
package quality

import "github.com/vedanthq/SLMGen/internal/models"

// Result holds the outcome of a single quality check.
type Result struct {
	// Name is a stable check identifier.
	Name string `json:"name"`
	// Penalty is subtracted from the 1.0 starting score.
	Penalty float64 `json:"penalty"`
	// Issue is a human-readable description, empty when nothing was found.
	Issue string `json:"issue,omitempty"`
}

// Check runs a single quality check over the dataset.
type Check interface {
	Name() string
	Run(records []models.Conversation) Result
}

// Thresholds controls when each check fires and how hard it penalizes.
type Thresholds struct {
	// Duplicate percentages (0-100) and their penalties, from most to least severe.
	DupHighPct, DupSomePct, DupFewPct             float64
	DupHighPenalty, DupSomePenalty, DupFewPenalty float64

	// Size bands by record count.
	SizeTiny, SizeSmall, SizeDecent, SizeGood             int
	TinyPenalty, SmallPenalty, DecentPenalty, GoodPenalty float64

	// Responses shorter than ShortResponseChars are "short"; more than
	// ShortResponseShare of the record count being short is penalized.
	ShortResponseChars   int
	ShortResponseShare   float64
	EmptyPenalty         float64
	ShortPenalty         float64
	ResponsePenaltyLimit float64

	// Mixed system prompt usage is penalized when min/max of the two groups
	// exceeds SystemMixRatio.
	SystemMixRatio float64
	SystemPenalty  float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DupHighPct:     20,
		DupSomePct:     10,
		DupFewPct:      5,
		DupHighPenalty: 0.3,
		DupSomePenalty: 0.15,
		DupFewPenalty:  0.05,

		SizeTiny:      50,
		SizeSmall:     100,
		SizeDecent:    500,
		SizeGood:      1000,
		TinyPenalty:   0.5,
		SmallPenalty:  0.2,
		DecentPenalty: 0.1,
		GoodPenalty:   0.05,

		ShortResponseChars:   10,
		ShortResponseShare:   0.1,
		EmptyPenalty:         0.2,
		ShortPenalty:         0.1,
		ResponsePenaltyLimit: 0.2,

		SystemMixRatio: 0.3,
		SystemPenalty:  0.1,
	}
}

// DefaultChecks returns the four stock checks in evaluation order.
func DefaultChecks(th Thresholds) []Check {
	return []Check{
		&DuplicateChecker{Thresholds: th},
		&SizeChecker{Thresholds: th},
		&ResponseChecker{Thresholds: th},
		&SystemConsistencyChecker{Thresholds: th},
	}
}
