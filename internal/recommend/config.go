package recommend

// Config holds every weight the engine uses. Scores are integer points.
type Config struct {
	// Task fit: first listed task earns TaskFirst, each later position
	// TaskStep less, never below TaskFloor. Unlisted tasks earn TaskUnlisted.
	TaskFirst    int
	TaskStep     int
	TaskFloor    int
	TaskUnlisted int

	// Deployment fit.
	DeployMatch     int
	DeployEdgeSmall int
	DeployEdgeLarge int
	DeployNeutral   int
	// EdgeSizes are the sizes that get partial credit on edge-class targets.
	EdgeSizes []string

	// Data fit, clamped to [0, DataMax].
	DataBase         int
	DataMultilingual int
	DataJSON         int
	DataMultiTurn    int
	DataLarge        int
	DataSmall        int
	DataMax          int

	// Bonuses.
	BonusMultiTurn    int
	BonusLongContext  int
	LongContextTokens int
	LongContextWindow int

	// Overrides applied after base scoring.
	MultilingualBoost int
	EdgeBoost         int
	// PinMultilingual keeps the multilingual model among the returned
	// recommendations even when other models outscore it.
	PinMultilingual bool

	MaxScore     int
	Alternatives int
	MaxReasons   int
}

// DefaultConfig returns the stock weights.
func DefaultConfig() Config {
	return Config{
		TaskFirst:    50,
		TaskStep:     10,
		TaskFloor:    30,
		TaskUnlisted: 15,

		DeployMatch:     30,
		DeployEdgeSmall: 20,
		DeployEdgeLarge: 5,
		DeployNeutral:   15,
		EdgeSizes:       []string{"2B", "3B", "3.8B"},

		DataBase:         10,
		DataMultilingual: 10,
		DataJSON:         5,
		DataMultiTurn:    5,
		DataLarge:        5,
		DataSmall:        5,
		DataMax:          20,

		BonusMultiTurn:    10,
		BonusLongContext:  5,
		LongContextTokens: 2000,
		LongContextWindow: 16384,

		MultilingualBoost: 20,
		EdgeBoost:         15,
		PinMultilingual:   false,

		MaxScore:     100,
		Alternatives: 3,
		MaxReasons:   4,
	}
}
