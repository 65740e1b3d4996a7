package news

import (
	"context"
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
)

// RedFlagLimit is the number of recent flagged news rows considered
const RedFlagLimit = 10

// Provider implements contracts.NewsProvider over the stored news rows
type Provider struct {
	store contracts.NewsStore
	limit int
}

// NewProvider creates a news provider
func NewProvider(store contracts.NewsStore) *Provider {
	return &Provider{store: store, limit: RedFlagLimit}
}

var _ contracts.NewsProvider = (*Provider)(nil)

// RedFlagNews returns the latest flagged news rows, most recent first
func (p *Provider) RedFlagNews(ctx context.Context, companyID int64) ([]contracts.NewsRedFlag, error) {
	items, err := p.store.RecentRedFlagNews(ctx, companyID, p.limit)
	if err != nil {
		return nil, fmt.Errorf("load red flag news for company %d: %w", companyID, err)
	}

	// 키워드가 빈 행은 제외 (저장소 필터 보강)
	out := make([]contracts.NewsRedFlag, 0, len(items))
	for _, item := range items {
		if len(item.Keywords) == 0 {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
