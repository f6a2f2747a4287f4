// Package recommend ranks catalog models against a dataset and its
// intended task and deployment.
package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/models"
)

var (
	// ErrInvalidTask is returned for a task outside models.AllTasks.
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidDeployment is returned for a target outside models.AllDeployments.
	ErrInvalidDeployment = errors.New("invalid deployment")
)

// Engine scores every catalog model. It is safe for concurrent use.
type Engine struct {
	cfg     Config
	catalog *catalog.Catalog
}

// NewEngine creates an engine over the built-in catalog with default weights.
func NewEngine() *Engine {
	return NewEngineWith(catalog.Default(), DefaultConfig())
}

// NewEngineWith creates an engine over cat with the given weights.
func NewEngineWith(cat *catalog.Catalog, cfg Config) *Engine {
	return &Engine{cfg: cfg, catalog: cat}
}

// Config returns the engine's weights.
func (e *Engine) Config() Config { return e.cfg }

type scored struct {
	spec      catalog.ModelSpec
	breakdown models.ScoreBreakdown
}

// Recommend returns the best model and up to three alternatives.
func (e *Engine) Recommend(task models.TaskType, deploy models.DeploymentTarget, stats models.DatasetStats, chars models.DatasetCharacteristics) (*models.RecommendationResponse, error) {
	return e.recommend(task, deploy, stats, chars, false)
}

// Explain is like Recommend but also fills Breakdown with every model's
// score components in rank order.
func (e *Engine) Explain(task models.TaskType, deploy models.DeploymentTarget, stats models.DatasetStats, chars models.DatasetCharacteristics) (*models.RecommendationResponse, error) {
	return e.recommend(task, deploy, stats, chars, true)
}

func (e *Engine) recommend(task models.TaskType, deploy models.DeploymentTarget, stats models.DatasetStats, chars models.DatasetCharacteristics, explain bool) (*models.RecommendationResponse, error) {
	if !task.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTask, task)
	}
	if !deploy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeployment, deploy)
	}
	slog.Info("Getting recommendations", "task", task, "deploy", deploy)

	ranked := e.rank(task, deploy, stats, chars)

	recs := make([]models.ModelRecommendation, len(ranked))
	for i, s := range ranked {
		recs[i] = models.ModelRecommendation{
			ModelID:       s.spec.ModelID,
			ModelName:     s.spec.Name,
			Size:          s.spec.Size,
			Score:         float64(s.breakdown.Total),
			Reasons:       e.reasons(s.spec, task, deploy, chars),
			ContextWindow: s.spec.ContextWindow,
			IsGated:       s.spec.IsGated,
		}
	}

	resp := &models.RecommendationResponse{
		Primary:      recs[0],
		Alternatives: recs[1:min(len(recs), 1+e.cfg.Alternatives)],
	}
	if explain {
		resp.Breakdown = make([]models.ScoreBreakdown, len(ranked))
		for i, s := range ranked {
			resp.Breakdown[i] = s.breakdown
		}
	}

	slog.Info("Recommending model", "model", resp.Primary.ModelName, "score", resp.Primary.Score)
	return resp, nil
}

// Score returns modelID's ranked total for the inputs. Models outside the
// returned primary and alternatives are scored too. ok is false when the
// catalog has no such model.
func (e *Engine) Score(task models.TaskType, deploy models.DeploymentTarget, stats models.DatasetStats, chars models.DatasetCharacteristics, modelID string) (score int, ok bool, err error) {
	if !task.Valid() {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidTask, task)
	}
	if !deploy.Valid() {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidDeployment, deploy)
	}
	for _, s := range e.rank(task, deploy, stats, chars) {
		if s.spec.ModelID == modelID {
			return s.breakdown.Total, true, nil
		}
	}
	return 0, false, nil
}

// rank scores every model, applies overrides, and sorts descending. Ties
// keep catalog order.
func (e *Engine) rank(task models.TaskType, deploy models.DeploymentTarget, stats models.DatasetStats, chars models.DatasetCharacteristics) []scored {
	specs := e.catalog.All()
	out := make([]scored, len(specs))
	for i, m := range specs {
		b := models.ScoreBreakdown{
			ModelID:   m.ModelID,
			TaskFit:   e.taskFit(m, task),
			DeployFit: e.deployFit(m, deploy),
			DataFit:   e.dataFit(m, stats, chars),
			Bonus:     e.bonus(m, stats, chars),
		}
		b.Total = clamp(b.TaskFit+b.DeployFit+b.DataFit+b.Bonus, 0, e.cfg.MaxScore)
		slog.Debug("Scored model", "key", m.Key,
			"task", b.TaskFit, "deploy", b.DeployFit, "data", b.DataFit, "bonus", b.Bonus, "total", b.Total)
		out[i] = scored{spec: m, breakdown: b}
	}

	for i := range out {
		boost := 0
		if chars.IsMultilingual && out[i].spec.Key == catalog.KeyQwen25 {
			boost += e.cfg.MultilingualBoost
			slog.Info("Applied multilingual override", "model", out[i].spec.Key)
		}
		if deploy.IsEdgeClass() && out[i].spec.Key == catalog.KeyGemma2 {
			boost += e.cfg.EdgeBoost
			slog.Info("Applied edge override", "model", out[i].spec.Key)
		}
		if boost == 0 {
			continue
		}
		before := out[i].breakdown.Total
		out[i].breakdown.Total = min(e.cfg.MaxScore, before+boost)
		out[i].breakdown.Override = out[i].breakdown.Total - before
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].breakdown.Total > out[b].breakdown.Total
	})
	if chars.IsMultilingual && e.cfg.PinMultilingual {
		out = e.pin(out, catalog.KeyQwen25)
	}
	for i := range out {
		out[i].breakdown.Rank = i + 1
	}
	return out
}

// pin moves the model with the given key into the last returned slot when
// it ranked below it.
func (e *Engine) pin(ranked []scored, key string) []scored {
	last := min(len(ranked), 1+e.cfg.Alternatives) - 1
	idx := slices.IndexFunc(ranked, func(s scored) bool { return s.spec.Key == key })
	if idx <= last || last < 0 {
		return ranked
	}
	s := ranked[idx]
	ranked = slices.Delete(ranked, idx, idx+1)
	return slices.Insert(ranked, last, s)
}

func (e *Engine) taskFit(m catalog.ModelSpec, task models.TaskType) int {
	idx, ok := m.TaskPriority(task)
	if !ok {
		return e.cfg.TaskUnlisted
	}
	return max(e.cfg.TaskFloor, e.cfg.TaskFirst-idx*e.cfg.TaskStep)
}

func (e *Engine) deployFit(m catalog.ModelSpec, deploy models.DeploymentTarget) int {
	if m.SupportsDeploy(deploy) {
		return e.cfg.DeployMatch
	}
	if deploy.IsEdgeClass() {
		if slices.Contains(e.cfg.EdgeSizes, m.Size) {
			return e.cfg.DeployEdgeSmall
		}
		return e.cfg.DeployEdgeLarge
	}
	return e.cfg.DeployNeutral
}

func (e *Engine) dataFit(m catalog.ModelSpec, stats models.DatasetStats, chars models.DatasetCharacteristics) int {
	score := e.cfg.DataBase
	if chars.IsMultilingual && m.Key == catalog.KeyQwen25 {
		score += e.cfg.DataMultilingual
	}
	if chars.LooksLikeJSON && isStructuredModel(m) {
		score += e.cfg.DataJSON
	}
	if _, ok := m.TaskPriority(models.TaskConversation); ok && chars.IsMultiTurn {
		score += e.cfg.DataMultiTurn
	}
	switch {
	case stats.TotalExamples >= m.MinExamples*2:
		score += e.cfg.DataLarge
	case stats.TotalExamples < m.MinExamples:
		score -= e.cfg.DataSmall
	}
	return clamp(score, 0, e.cfg.DataMax)
}

func (e *Engine) bonus(m catalog.ModelSpec, stats models.DatasetStats, chars models.DatasetCharacteristics) int {
	bonus := 0
	if chars.IsMultiTurn {
		bonus += e.cfg.BonusMultiTurn
	}
	if stats.AvgTokensPerExample > e.cfg.LongContextTokens && m.ContextWindow >= e.cfg.LongContextWindow {
		bonus += e.cfg.BonusLongContext
	}
	return bonus
}

// reasons lists why a model fits, most specific first.
func (e *Engine) reasons(m catalog.ModelSpec, task models.TaskType, deploy models.DeploymentTarget, chars models.DatasetCharacteristics) []string {
	var reasons []string
	if _, ok := m.TaskPriority(task); ok {
		reasons = append(reasons, fmt.Sprintf("✅ Excellent for %s tasks", task))
	}
	if m.SupportsDeploy(deploy) {
		reasons = append(reasons, fmt.Sprintf("✅ Great for %s deployment", deploy))
	}
	if chars.IsMultilingual && m.Key == catalog.KeyQwen25 {
		reasons = append(reasons, "✅ Best choice for multilingual data")
	}
	if chars.LooksLikeJSON && isStructuredModel(m) {
		reasons = append(reasons, "✅ Excels at structured JSON output")
	}
	if (deploy == models.DeployEdge || deploy == models.DeployMobile) && m.Size == "2B" {
		reasons = append(reasons, "✅ Compact size perfect for edge devices")
	}

	for _, s := range m.Strengths[:min(2, len(m.Strengths))] {
		if !strings.Contains(strings.Join(reasons, "\n"), s) {
			reasons = append(reasons, "💪 "+s)
		}
	}
	if len(reasons) > e.cfg.MaxReasons {
		reasons = reasons[:e.cfg.MaxReasons]
	}
	return reasons
}

func isStructuredModel(m catalog.ModelSpec) bool {
	return m.Key == catalog.KeyQwen25 || m.Key == catalog.KeyPhi4
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
