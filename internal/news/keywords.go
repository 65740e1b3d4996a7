package news

import "strings"

// RedFlagKeywords are matched case-insensitively against headline + summary
// ⭐ SSOT: 뉴스 위험 키워드는 여기서만
var RedFlagKeywords = []string{
	"bankruptcy", "bankrupt", "delisting", "delisted", "default", "fraud",
	"investigation", "sec investigation", "insolvency", "insolvent",
	"restatement", "audit", "going concern", "liquidation", "restructuring",
	"ceo resigns", "cfo resigns", "ceo fired", "cfo fired", "management change",
	"accounting irregularities", "financial misstatement", "regulatory action",
	"class action", "lawsuit", "legal action", "subpoena", "criminal charges",
}

// Scan returns every keyword contained in text, in RedFlagKeywords order.
// 부분 문자열 매칭 ("sec investigation"은 "investigation"도 함께 매칭)
func Scan(text string) []string {
	lower := strings.ToLower(text)

	found := []string{}
	for _, kw := range RedFlagKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// ScanArticle scans headline and summary together
func ScanArticle(headline, summary string) []string {
	return Scan(headline + " " + summary)
}
