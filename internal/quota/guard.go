// Package quota enforces the daily regeneration limit. Regenerating a
// lesson discards generated content and costs another model call, so
// each day allows at most one regeneration across all session slots.
package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/plara718/rekishi/internal/store"
)

// ErrRegenLimitExceeded is returned when the day's regeneration
// allowance is already spent.
var ErrRegenLimitExceeded = errors.New("daily regeneration limit exceeded")

// DailyLimit is the number of regenerations permitted per day.
const DailyLimit = 1

// Guard mediates regeneration requests through the store's transaction
// primitive so concurrent attempts cannot both succeed.
type Guard struct {
	store store.DocumentStore
}

// NewGuard returns a Guard backed by st.
func NewGuard(st store.DocumentStore) *Guard {
	return &Guard{store: st}
}

// TryRegenerate consumes one regeneration for the given date and, on
// success, deletes the slot's progress document in the same transaction
// so the caller can trigger a fresh generation. Two near-simultaneous
// calls yield exactly one success and one ErrRegenLimitExceeded.
func (g *Guard) TryRegenerate(ctx context.Context, date string, slot int) error {
	err := g.store.RunTransaction(ctx, func(tx store.Tx) error {
		key := store.DailyStatsKey(date)
		doc, err := tx.Get(key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("read daily stats: %w", err)
		}

		var count int64
		if doc != nil {
			count = store.NumberValue(doc["regenCount"])
		}
		if count >= DailyLimit {
			return ErrRegenLimitExceeded
		}

		if err := tx.Set(key, store.Document{"regenCount": count + 1}); err != nil {
			return fmt.Errorf("update regen count: %w", err)
		}
		if err := tx.Delete(store.ProgressKey(date, slot)); err != nil {
			return fmt.Errorf("clear slot progress: %w", err)
		}
		return nil
	})
	return err
}

// Used reports how many regenerations the given date has consumed.
func (g *Guard) Used(ctx context.Context, date string) (int64, error) {
	doc, err := g.store.Get(ctx, store.DailyStatsKey(date))
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return store.NumberValue(doc["regenCount"]), nil
}
