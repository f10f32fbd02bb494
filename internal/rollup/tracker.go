package rollup

import (
	"context"
	"fmt"
	"strings"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/storage"
)

// Tracker records per-bucket trader membership.
type Tracker struct {
	store storage.TraderSeenStore
}

// NewTracker creates a tracker over a membership store.
func NewTracker(store storage.TraderSeenStore) *Tracker {
	return &Tracker{store: store}
}

// ObserveAndCheckFirst marks the account as seen in the bucket and reports
// whether this was its first appearance there. Accounts compare case-insensitively.
func (t *Tracker) ObserveAndCheckFirst(ctx context.Context, g domain.Granularity, bucketKey, account string) (bool, error) {
	account = strings.ToLower(account)

	seen, err := t.store.HasTraderSeen(ctx, g, bucketKey, account)
	if err != nil {
		return false, fmt.Errorf("check trader %s in %s/%s: %w", account, g, bucketKey, err)
	}
	if seen {
		return false, nil
	}

	err = t.store.InsertTraderSeen(ctx, &domain.TraderSeen{
		Granularity: g,
		BucketKey:   bucketKey,
		Account:     account,
	})
	if err != nil {
		return false, fmt.Errorf("mark trader %s in %s/%s: %w", account, g, bucketKey, err)
	}
	return true, nil
}
