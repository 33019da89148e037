// Package stats maintains the aggregated weakness summary and the
// completion heatmap the review recommender reads.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plara718/rekishi/internal/review"
	"github.com/plara718/rekishi/internal/store"
)

// DateFormat is the canonical layout for date keys.
const DateFormat = "2006-01-02"

// Recorder aggregates per-tag attempt counters and daily completions.
type Recorder struct {
	store store.DocumentStore
}

// NewRecorder returns a Recorder backed by st.
func NewRecorder(st store.DocumentStore) *Recorder {
	return &Recorder{store: st}
}

// summaryField maps a tag to its dotted field path in the summary
// document. Unknown tags fall into the mistakes bucket.
func summaryField(tagID, counter string) string {
	section := "mistakes"
	if tag := review.GetTag(tagID); tag != nil {
		switch tag.Category {
		case review.CategoryEra:
			section = "eras"
		case review.CategoryTheme:
			section = "themes"
		}
	}
	return fmt.Sprintf("%s.%s.%s", section, tagID, counter)
}

// RecordAttempt adds one attempt for each tag, and one error for each
// tag when the answer was wrong. Counters use atomic increments so
// concurrent aggregation never loses updates.
func (r *Recorder) RecordAttempt(ctx context.Context, tagIDs []string, wrong bool) error {
	for _, id := range tagIDs {
		if id == "" {
			continue
		}
		if err := r.store.Increment(ctx, store.SummaryKey, summaryField(id, "attempts"), 1); err != nil {
			return fmt.Errorf("increment attempts for %s: %w", id, err)
		}
		if wrong {
			if err := r.store.Increment(ctx, store.SummaryKey, summaryField(id, "errors"), 1); err != nil {
				return fmt.Errorf("increment errors for %s: %w", id, err)
			}
		}
	}
	return nil
}

// RecordCompletion bumps the heatmap count for the given date.
func (r *Recorder) RecordCompletion(ctx context.Context, date string) error {
	return r.store.Increment(ctx, store.HeatmapKey, "data."+date, 1)
}

// LoadSummary reads the aggregated weakness statistics. A missing
// summary document yields empty stats, not an error.
func (r *Recorder) LoadSummary(ctx context.Context) (review.Stats, error) {
	stats := review.Stats{
		Eras:     map[string]review.TagStat{},
		Themes:   map[string]review.TagStat{},
		Mistakes: map[string]review.TagStat{},
	}
	doc, err := r.store.Get(ctx, store.SummaryKey)
	if errors.Is(err, store.ErrNotFound) {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	loadSection(doc, "eras", stats.Eras)
	loadSection(doc, "themes", stats.Themes)
	loadSection(doc, "mistakes", stats.Mistakes)
	return stats, nil
}

func loadSection(doc store.Document, name string, out map[string]review.TagStat) {
	section, ok := doc[name].(map[string]any)
	if !ok {
		return
	}
	for id, v := range section {
		counters, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[id] = review.TagStat{
			Attempts: int(store.NumberValue(counters["attempts"])),
			Errors:   int(store.NumberValue(counters["errors"])),
		}
	}
}

// Heatmap reads the daily completion counts, keyed by date string.
func (r *Recorder) Heatmap(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	doc, err := r.store.Get(ctx, store.HeatmapKey)
	if errors.Is(err, store.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	data, ok := doc["data"].(map[string]any)
	if !ok {
		return out, nil
	}
	for date, v := range data {
		out[date] = int(store.NumberValue(v))
	}
	return out, nil
}

// RecentSessions walks progress documents backward from the given day
// and returns up to limit session records, most recent first. Slots
// within a day are visited highest first so ordering stays newest to
// oldest. lookback bounds how many days are scanned.
func (r *Recorder) RecentSessions(ctx context.Context, from time.Time, slots, limit, lookback int) ([]review.SessionRecord, error) {
	var records []review.SessionRecord
	for day := 0; day < lookback && len(records) < limit; day++ {
		date := from.AddDate(0, 0, -day).Format(DateFormat)
		for slot := slots; slot >= 1 && len(records) < limit; slot-- {
			doc, err := r.store.Get(ctx, store.ProgressKey(date, slot))
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			records = append(records, review.SessionRecord{
				Date: date,
				Slot: slot,
				Tags: tagList(doc["tags"]),
			})
		}
	}
	return records, nil
}

func tagList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var tags []string
	for _, e := range list {
		if s, ok := e.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}
