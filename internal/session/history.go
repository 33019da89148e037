package session

import (
	"context"

	"github.com/plara718/rekishi/internal/store"
)

// MaxDailySessions is the number of lesson slots available per day.
const MaxDailySessions = 3

// HistoryMeta summarizes one slot for navigation across the day's
// sessions.
type HistoryMeta struct {
	Slot      int
	Exists    bool
	Completed bool
	Theme     string
}

// LoadHistory reads the per-slot summaries for a date. max is the
// number of slots the day offers.
func LoadHistory(ctx context.Context, st store.DocumentStore, date string, max int) ([]HistoryMeta, error) {
	metas := make([]HistoryMeta, 0, max)
	for slot := 1; slot <= max; slot++ {
		meta := HistoryMeta{Slot: slot}
		p, err := LoadProgress(ctx, st, date, slot)
		if err != nil {
			return nil, err
		}
		if p != nil {
			meta.Exists = true
			meta.Completed = p.Completed
			meta.Theme = p.Content.Theme
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// activeSlot returns the furthest incomplete or available slot. When
// every slot is completed it returns one past the last slot, which
// signals that no further generation is permitted today.
func activeSlot(metas []HistoryMeta) int {
	for _, m := range metas {
		if !m.Exists || !m.Completed {
			return m.Slot
		}
	}
	return len(metas) + 1
}

// clampViewing pins the viewing slot inside 1..max.
func clampViewing(slot, max int) int {
	if slot < 1 {
		return 1
	}
	if slot > max {
		return max
	}
	return slot
}
