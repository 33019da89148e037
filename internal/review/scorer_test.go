package review

import (
	"math"
	"math/rand/v2"
	"testing"
)

func testEngine() *Engine {
	return NewEngine(WithRand(rand.New(rand.NewPCG(1, 2))))
}

func TestRecommend_Fallback(t *testing.T) {
	s := testEngine().Recommend(Stats{}, nil)
	if !s.Fallback {
		t.Fatal("expected fallback strategy")
	}
	if s.Era.TagID == "" || s.Theme.TagID == "" || s.Mistake.TagID == "" {
		t.Error("fallback strategy has empty choices")
	}
	if s.Justification == "" {
		t.Error("fallback strategy has no justification")
	}
}

func TestRecommend_RecentMissBeatsCleanRecord(t *testing.T) {
	stats := Stats{
		Eras: map[string]TagStat{
			"era-meiji": {Attempts: 5, Errors: 4},
			"era-heian": {Attempts: 10, Errors: 0},
		},
	}
	history := []SessionRecord{
		{Date: "2026-08-29", Slot: 1, Tags: []string{"era-meiji"}},
		{Date: "2026-08-28", Slot: 1, Tags: []string{"era-heian"}},
	}

	s := testEngine().Recommend(stats, history)
	if s.Era.TagID != "era-meiji" {
		t.Fatalf("era choice = %q, want era-meiji", s.Era.TagID)
	}
	// errorRate 0.8 * 50 plus the recent-miss bonus.
	want := 0.8*50 + 40
	if math.Abs(s.Era.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", s.Era.Score, want)
	}
}

func TestRecommend_MinAttemptsThreshold(t *testing.T) {
	stats := Stats{
		Eras: map[string]TagStat{
			"era-meiji": {Attempts: 2, Errors: 2}, // below threshold
			"era-heian": {Attempts: 4, Errors: 1},
		},
	}
	s := testEngine().Recommend(stats, nil)
	if s.Era.TagID != "era-heian" {
		t.Errorf("era choice = %q, want era-heian (only qualifying tag)", s.Era.TagID)
	}
}

func TestRecommend_LongAbsenceBonus(t *testing.T) {
	stats := Stats{
		Eras: map[string]TagStat{
			"era-jomon-yayoi": {Attempts: 5, Errors: 2}, // rate 0.4, absent
			"era-meiji":       {Attempts: 5, Errors: 2}, // rate 0.4, seen
		},
	}
	// era-meiji is in history but outside the recent window of 3.
	history := []SessionRecord{
		{Tags: []string{"theme-war"}},
		{Tags: []string{"theme-war"}},
		{Tags: []string{"theme-war"}},
		{Tags: []string{"era-meiji"}},
	}

	s := testEngine().Recommend(stats, history)
	if s.Era.TagID != "era-jomon-yayoi" {
		t.Fatalf("era choice = %q, want era-jomon-yayoi", s.Era.TagID)
	}
	want := 0.4*50 + 30
	if math.Abs(s.Era.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", s.Era.Score, want)
	}
}

func TestRecommend_NoAbsenceBonusBelowRateFloor(t *testing.T) {
	stats := Stats{
		Eras: map[string]TagStat{
			"era-jomon-yayoi": {Attempts: 10, Errors: 2}, // rate 0.2, absent
			"era-meiji":       {Attempts: 10, Errors: 3}, // rate 0.3, absent
		},
	}
	s := testEngine().Recommend(stats, []SessionRecord{{Tags: []string{"theme-war"}}})
	// Neither tag clears the 0.3 rate floor, so only error rate counts.
	if s.Era.TagID != "era-meiji" {
		t.Errorf("era choice = %q, want era-meiji", s.Era.TagID)
	}
	want := 0.3 * 50
	if math.Abs(s.Era.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v (no absence bonus)", s.Era.Score, want)
	}
}

func TestRecommend_RandomSubstitution(t *testing.T) {
	stats := Stats{
		Eras: map[string]TagStat{"era-meiji": {Attempts: 5, Errors: 3}},
		// No theme or mistake stats at all.
	}
	s := testEngine().Recommend(stats, nil)

	if !s.Theme.Random {
		t.Error("theme choice should be a random substitution")
	}
	if tag := GetTag(s.Theme.TagID); tag == nil || tag.Category != CategoryTheme {
		t.Errorf("substituted theme %q is not a catalog theme", s.Theme.TagID)
	}
	if !s.Mistake.Random {
		t.Error("mistake choice should be a random substitution")
	}
	if s.Era.Random {
		t.Error("era choice should come from scoring, not substitution")
	}
}

func TestRecommend_JustificationFraming(t *testing.T) {
	recent := Stats{
		Mistakes: map[string]TagStat{"mistake-chronology": {Attempts: 5, Errors: 4}},
	}
	s := testEngine().Recommend(recent, []SessionRecord{{Tags: []string{"mistake-chronology"}}})
	if s.Justification == "" {
		t.Fatal("no justification generated")
	}

	absent := Stats{
		Eras: map[string]TagStat{"era-heian": {Attempts: 5, Errors: 3}},
	}
	s2 := testEngine().Recommend(absent, []SessionRecord{{Tags: []string{"theme-war"}}})
	if s2.Justification == "" {
		t.Fatal("no justification generated")
	}
	if s.Justification == s2.Justification {
		t.Error("recent-miss and long-absence cases should read differently")
	}
}
