package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/plara718/rekishi/internal/lesson"
	"github.com/plara718/rekishi/internal/store"
)

// Progress is the persisted record of one session slot. Created on
// first generation for a (date, slot) key, mutated on every answer and
// step transition, and frozen once Completed except for the reflection
// text.
type Progress struct {
	Content      lesson.Lesson
	Answers      map[int]Answer
	QIndex       int
	EssayGrading *lesson.GradingResult
	Completed    bool
	Reflection   string
	Timestamp    time.Time
	Tags         []string
}

// toDoc flattens a Progress into the stored document shape. Answer keys
// become strings because document fields are JSON objects.
func (p *Progress) toDoc() store.Document {
	answers := make(map[string]any, len(p.Answers))
	for idx, a := range p.Answers {
		answers[strconv.Itoa(idx)] = toValue(a)
	}
	doc := store.Document{
		"content":     toValue(p.Content),
		"userAnswers": answers,
		"qIndex":      int64(p.QIndex),
		"completed":   p.Completed,
		"reflection":  p.Reflection,
		"timestamp":   p.Timestamp.UTC().Format(time.RFC3339),
		"tags":        toValue(p.Tags),
	}
	if p.EssayGrading != nil {
		doc["essayGrading"] = toValue(p.EssayGrading)
	}
	return doc
}

// fromDoc rebuilds a Progress from a stored document. The lesson
// content passes through Normalize, which tolerates any drift in the
// stored shape.
func fromDoc(doc store.Document) *Progress {
	p := &Progress{
		Content:    lesson.Normalize(doc["content"]),
		Answers:    map[int]Answer{},
		QIndex:     int(store.NumberValue(doc["qIndex"])),
		Completed:  doc["completed"] == true,
		Reflection: stringField(doc, "reflection"),
	}
	if ts, err := time.Parse(time.RFC3339, stringField(doc, "timestamp")); err == nil {
		p.Timestamp = ts
	}
	if raw, ok := doc["userAnswers"].(map[string]any); ok {
		for key, v := range raw {
			idx, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			var a Answer
			if decodeValue(v, &a) == nil {
				p.Answers[idx] = a
			}
		}
	}
	if raw, ok := doc["essayGrading"]; ok && raw != nil {
		var g lesson.GradingResult
		if decodeValue(raw, &g) == nil {
			p.EssayGrading = &g
		}
	}
	if raw, ok := doc["tags"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				p.Tags = append(p.Tags, s)
			}
		}
	}
	return p
}

// LoadProgress reads the slot's progress document. A missing document
// returns (nil, nil).
func LoadProgress(ctx context.Context, st store.DocumentStore, date string, slot int) (*Progress, error) {
	doc, err := st.Get(ctx, store.ProgressKey(date, slot))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(doc), nil
}

// toValue converts a typed value into the generic JSON shape documents
// store.
func toValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func decodeValue(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func stringField(doc store.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}
