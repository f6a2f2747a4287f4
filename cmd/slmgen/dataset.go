package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vedanthq/SLMGen/internal/analyzer"
	"github.com/vedanthq/SLMGen/internal/cache"
	"github.com/vedanthq/SLMGen/internal/catalog"
	"github.com/vedanthq/SLMGen/internal/dataset"
	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/quality"
	"github.com/vedanthq/SLMGen/internal/recommend"
)

// loaded is an ingested dataset with its quality report attached.
type loaded struct {
	Path    string
	Result  *dataset.Result
	Quality quality.Report
}

// loadDataset ingests path and scores it. Datasets that parse but cannot be
// used are reported as *RejectedError.
func loadDataset(path string) (*loaded, error) {
	res, err := dataset.Ingest(path)
	if err != nil {
		var insufficient *dataset.InsufficientDataError
		if errors.As(err, &insufficient) || errors.Is(err, dataset.ErrBadExtension) {
			return nil, &RejectedError{Message: err.Error()}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	report := quality.NewValidator(quality.DefaultThresholds()).Assess(res.Records)
	res.Stats.ApplyQuality(report.Score, report.Issues)
	slog.Debug("Dataset loaded", "path", path, "examples", res.Stats.TotalExamples, "quality", report.Score)

	return &loaded{Path: path, Result: res, Quality: report}, nil
}

// characteristics analyzes the dataset, consulting the cache when c is non-nil.
func (l *loaded) characteristics(c *cache.Cache) models.DatasetCharacteristics {
	var key string
	if c != nil {
		k, err := cache.FileKey(cache.KindAnalysis, l.Path)
		if err == nil {
			key = k
			var chars models.DatasetCharacteristics
			if c.Get(key, &chars) {
				slog.Debug("Analysis cache hit", "path", l.Path)
				return chars
			}
		}
	}

	chars := analyzer.Analyze(l.Result.Records)
	if key != "" {
		if err := c.Put(key, chars); err != nil {
			slog.Warn("Failed to cache analysis", "error", err)
		}
	}
	return chars
}

// openCache returns the configured cache, or nil when caching is off and
// force is false.
func (a *app) openCache(force bool) *cache.Cache {
	cfg := a.config()
	enabled := cfg.Cache.Enabled != nil && *cfg.Cache.Enabled
	if !enabled && !force {
		return nil
	}
	return cache.New(cfg.Cache.Dir)
}

// newEngine builds a recommendation engine with the configured boosts.
func (a *app) newEngine() *recommend.Engine {
	cfg := a.config()
	rc := recommend.DefaultConfig()
	rc.MultilingualBoost = cfg.Recommend.MultilingualBoost
	rc.EdgeBoost = cfg.Recommend.EdgeBoost
	rc.PinMultilingual = cfg.Recommend.PinMultilingual
	return recommend.NewEngineWith(catalog.Default(), rc)
}

// issueLines drops the empty headline slot the validator may leave.
func issueLines(issues []string) []string {
	out := make([]string, 0, len(issues))
	for _, s := range issues {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
