package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Document is a schemaless JSON-object document.
type Document = map[string]any

// ErrNotFound is returned when a key has no document.
var ErrNotFound = errors.New("document not found")

// DocumentStore is the persistence contract the engine runs against.
// Set performs a recursive merge-write: existing fields not named in the
// write survive. Increment atomically adds delta to a numeric field
// addressed by a dotted path, creating intermediate objects as needed.
type DocumentStore interface {
	Get(ctx context.Context, key string) (Document, error)
	Set(ctx context.Context, key string, fields Document) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key, field string, delta int64) error

	// RunTransaction executes fn against an isolated view of the store.
	// Writes are applied atomically when fn returns nil; any error from
	// fn aborts the transaction and is returned unchanged. Concurrent
	// transactions on the same keys never observe each other's
	// intermediate state.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the view a transaction function operates on.
type Tx interface {
	Get(key string) (Document, error)
	Set(key string, fields Document) error
	Delete(key string) error
}

// Well-known document keys.
const (
	SummaryKey = "stats/summary"
	HeatmapKey = "stats/heatmap"
)

// ProgressKey returns the key for a session-slot progress document.
func ProgressKey(date string, slot int) string {
	return fmt.Sprintf("progress/%s/%d", date, slot)
}

// DailyStatsKey returns the key for a day's regeneration counters.
func DailyStatsKey(date string) string {
	return "daily_stats/" + date
}

// InterventionsKey returns the key for a user's intervention document.
func InterventionsKey(userID string) string {
	return "interventions/" + userID
}

// mergeDocument recursively merges src into dst, returning dst.
// Nested objects merge field-by-field; everything else overwrites.
func mergeDocument(dst, src Document) Document {
	if dst == nil {
		dst = Document{}
	}
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeDocument(cur, sub)
				continue
			}
			dst[k] = mergeDocument(Document{}, sub)
			continue
		}
		dst[k] = cloneValue(v)
	}
	return dst
}

// cloneDocument deep-copies a document so callers cannot alias store state.
func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneDocument(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// addPath adds delta to the numeric value at the dotted path, creating
// intermediate objects. Non-numeric existing values are overwritten.
func addPath(doc Document, path string, delta int64) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	leaf := parts[len(parts)-1]
	cur[leaf] = NumberValue(cur[leaf]) + delta
}

// NumberValue coerces a stored value to int64. JSON round-trips turn
// integers into float64, so both representations are accepted.
func NumberValue(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}
