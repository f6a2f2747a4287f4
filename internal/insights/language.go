package insights

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"github.com/vedanthq/SLMGen/internal/models"
	"github.com/vedanthq/SLMGen/internal/statistics"
)

const languageSample = 200

var detectableLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
}

// detector loads its n-gram models lazily and is safe for concurrent use.
var detector = sync.OnceValue(func() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(detectableLanguages...).
		Build()
})

// LanguageProfile estimates the language mix of the first assistant
// responses, largest share first. Responses lingua cannot classify are
// counted under "und".
func LanguageProfile(ctx context.Context, records []models.Conversation) ([]models.LanguageShare, error) {
	responses := nonEmptyResponses(records)
	if len(responses) > languageSample {
		responses = responses[:languageSample]
	}
	if len(responses) == 0 {
		return []models.LanguageShare{}, nil
	}

	d := detector()
	counts := map[string]int{}
	for _, r := range responses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code := "und"
		if lang, ok := d.DetectLanguageOf(r); ok {
			code = strings.ToLower(lang.IsoCode639_1().String())
		}
		counts[code]++
	}

	shares := make([]models.LanguageShare, 0, len(counts))
	for code, n := range counts {
		shares = append(shares, models.LanguageShare{
			Code:  code,
			Share: statistics.Round(float64(n)/float64(len(responses)), 2),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Code < shares[j].Code
	})

	slog.Debug("Language profile", "responses", len(responses), "languages", len(shares))
	return shares, nil
}
