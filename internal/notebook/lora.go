package notebook

import "strings"

var (
	attentionTargets = []string{"q_proj", "k_proj", "v_proj", "o_proj"}
	phiTargets       = []string{"q_proj", "k_proj", "v_proj", "o_proj", "fc1", "fc2"}
	// DefaultLoRATargets cover Llama-style attention and gated MLP projections.
	DefaultLoRATargets = []string{"q_proj", "k_proj", "v_proj", "o_proj", "gate_proj", "up_proj", "down_proj"}
)

// loraTargets maps model ID prefixes to their LoRA projection layers.
// Prefixes are checked in order.
var loraTargets = []struct {
	prefix  string
	targets []string
}{
	{"microsoft/Phi", phiTargets},
	{"google/gemma", attentionTargets},
	{"meta-llama", DefaultLoRATargets},
	{"mistralai", DefaultLoRATargets},
	{"Qwen", DefaultLoRATargets},
	{"HuggingFaceTB/SmolLM", DefaultLoRATargets},
	{"TinyLlama", DefaultLoRATargets},
	{"stabilityai", DefaultLoRATargets},
	{"deepseek-ai", DefaultLoRATargets},
}

// LoRATargets returns the projection layers to adapt for modelID.
func LoRATargets(modelID string) []string {
	for _, lt := range loraTargets {
		if strings.HasPrefix(modelID, lt.prefix) {
			return append([]string(nil), lt.targets...)
		}
	}
	return append([]string(nil), DefaultLoRATargets...)
}

// baseTrainingMinutes is the T4 training time for 100 examples over one epoch.
var baseTrainingMinutes = map[string]int{
	"1B":   5,
	"1.1B": 5,
	"1.3B": 6,
	"1.7B": 7,
	"2B":   8,
	"3B":   12,
	"3.8B": 15,
	"7B":   25,
}

const defaultBaseMinutes = 15

// EstimateTrainingMinutes approximates T4 training time for a model size and
// example count over the default epoch count.
func EstimateTrainingMinutes(size string, examples int) int {
	base, ok := baseTrainingMinutes[size]
	if !ok {
		base = defaultBaseMinutes
	}
	return int(float64(base) * (float64(examples) / 100) * Epochs)
}
