package insights

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/statistics"
)

const lengthConfidenceLevel = 0.95

// Build runs every insight over records concurrently. The heuristics only
// read records, so each goroutine writes to its own report field.
func Build(ctx context.Context, records []models.Conversation) (*models.InsightsReport, error) {
	slog.Info("Building dataset insights", "examples", len(records))

	report := &models.InsightsReport{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report.Confidence = Confidence(records)
		return nil
	})
	g.Go(func() error {
		report.Risk = Risk(records)
		return nil
	})
	g.Go(func() error {
		report.Personality = Personality(records)
		return nil
	})
	g.Go(func() error {
		report.Failures = FailurePreview(records, DefaultMaxFailureCases)
		return nil
	})
	g.Go(func() error {
		report.Prompt = ReversePrompt(records)
		return nil
	})
	g.Go(func() error {
		report.Length = ResponseLength(records)
		return nil
	})
	g.Go(func() error {
		langs, err := LanguageProfile(gctx, records)
		if err != nil {
			return fmt.Errorf("language profile: %w", err)
		}
		report.Languages = langs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// ResponseLength reports a 95% bootstrap interval for the mean assistant
// response length. The resampling seed is derived from the responses, so
// the interval is stable for a given dataset.
func ResponseLength(records []models.Conversation) models.LengthInterval {
	responses := models.AssistantResponses(records)
	lengths := statistics.Lengths(responses)

	h := fnv.New64a()
	for _, r := range responses {
		h.Write([]byte(r))
		h.Write([]byte{0})
	}
	ci := statistics.BootstrapCI(lengths, lengthConfidenceLevel, h.Sum64())
	return models.LengthInterval{
		Mean:            statistics.Round(ci.Mean, 1),
		Lower:           statistics.Round(ci.Lower, 1),
		Upper:           statistics.Round(ci.Upper, 1),
		ConfidenceLevel: ci.ConfidenceLevel,
	}
}
