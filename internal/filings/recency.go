package filings

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/alphaforge/internal/contracts"
)

// RecencyWindow is how far back a filing still counts as recent (18개월)
const RecencyWindow = 18 * 30 * 24 * time.Hour

// RecencyChecker reports which tracked SEC forms were filed within RecencyWindow.
// It implements contracts.FilingStatusProvider.
type RecencyChecker struct {
	store contracts.FilingStore
	now   func() time.Time
}

// NewRecencyChecker creates a new RecencyChecker
func NewRecencyChecker(store contracts.FilingStore) *RecencyChecker {
	return &RecencyChecker{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the clock (tests)
func (c *RecencyChecker) WithClock(now func() time.Time) *RecencyChecker {
	c.now = now
	return c
}

var _ contracts.FilingStatusProvider = (*RecencyChecker)(nil)

// RecentFilings returns a fully populated status map over contracts.TrackedForms.
// 공시가 없는 form은 false
func (c *RecencyChecker) RecentFilings(ctx context.Context, companyID int64) (contracts.FilingStatus, error) {
	latest, err := c.store.LatestFilingDates(ctx, companyID, contracts.TrackedForms)
	if err != nil {
		return nil, fmt.Errorf("load filing dates for company %d: %w", companyID, err)
	}

	cutoff := c.now().Add(-RecencyWindow)

	status := make(contracts.FilingStatus, len(contracts.TrackedForms))
	for _, form := range contracts.TrackedForms {
		date, ok := latest[form]
		status[form] = ok && !date.Before(cutoff)
	}

	return status, nil
}
