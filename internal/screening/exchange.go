package screening

import (
	"strings"

	"github.com/wonny/alphaforge/internal/contracts"
)

// otcIndicators mark over-the-counter venues (substring match)
var otcIndicators = []string{"PNK", "OEM", "OQX", "OTC", "OTCQB", "OTCQX"}

// ExchangeRule flags OTC-traded companies (informational, never disqualifies)
type ExchangeRule struct{}

// NewExchangeRule creates the exchange type rule
func NewExchangeRule() *ExchangeRule {
	return &ExchangeRule{}
}

// Rule returns the rule name
func (r *ExchangeRule) Rule() contracts.RuleName {
	return contracts.RuleExchange
}

// Evaluate matches the exchange code against the OTC indicator set
func (r *ExchangeRule) Evaluate(in Input) (Outcome, error) {
	exchange := strings.ToUpper(strings.TrimSpace(in.Snapshot.Exchange))
	otc := IsOTC(exchange)

	out := Outcome{Detail: contracts.ExchangeDetail{Exchange: exchange, IsOTC: otc}}
	if otc {
		out.Findings = []contracts.Finding{
			finding(contracts.CategoryOTCExchange, "OTC Exchange: "+exchange),
		}
	}

	return out, nil
}

// IsOTC reports whether an exchange code denotes an OTC market
func IsOTC(exchange string) bool {
	upper := strings.ToUpper(exchange)
	if upper == "" {
		return false
	}
	for _, indicator := range otcIndicators {
		if strings.Contains(upper, indicator) {
			return true
		}
	}
	return false
}
