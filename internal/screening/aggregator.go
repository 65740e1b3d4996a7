package screening

import (
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
)

// Aggregate computes the quality score from findings.
// base 100 + 카테고리별 페널티 + 기업행위 페널티(평가당 1회), 하한 0 / 상한 없음
func Aggregate(findings []contracts.Finding, corporateActionPenalty int, cfg scoringconfig.Config) (int, error) {
	score := scoringconfig.BaseScore

	for _, f := range findings {
		penalty, ok := cfg.PenaltyFor(f.Category)
		if !ok {
			return 0, fmt.Errorf("%w: category %q in %q", ErrUnclassifiedFinding, f.Category, f.Message)
		}
		score += penalty
	}

	score += corporateActionPenalty

	if score < 0 {
		score = 0
	}
	return score, nil
}
