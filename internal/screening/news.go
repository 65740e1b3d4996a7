package screening

import (
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
)

// maxHeadlineRunes is the headline length kept in a news finding
const maxHeadlineRunes = 100

// NewsRule emits one finding per (keyword, headline) pair
type NewsRule struct{}

// NewNewsRule creates the news red flag rule
func NewNewsRule() *NewsRule {
	return &NewsRule{}
}

// Rule returns the rule name
func (r *NewsRule) Rule() contracts.RuleName {
	return contracts.RuleNews
}

// Evaluate expands tagged news items in the order supplied
func (r *NewsRule) Evaluate(in Input) (Outcome, error) {
	var findings []contracts.Finding
	pairs := 0

	for _, item := range in.News {
		headline := truncateRunes(item.Headline, maxHeadlineRunes)
		for _, kw := range item.Keywords {
			findings = append(findings, finding(contracts.CategoryNewsRedFlag,
				fmt.Sprintf("News Red Flag - %s: %s...", kw, headline)))
			pairs++
		}
	}

	return Outcome{
		Findings: findings,
		Detail:   contracts.NewsDetail{RedFlagCount: pairs, Items: in.News},
	}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
