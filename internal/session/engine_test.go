package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/plara718/rekishi/internal/lesson"
	"github.com/plara718/rekishi/internal/llm"
	"github.com/plara718/rekishi/internal/quota"
	"github.com/plara718/rekishi/internal/stats"
	"github.com/plara718/rekishi/internal/store"
)

// fakeInvoker serves canned objects per action label.
type fakeInvoker struct {
	responses map[string]map[string]any
	errs      map[string]error
	calls     []string
}

func (f *fakeInvoker) Invoke(_ context.Context, action, _, _ string, _ *llm.Schema) (map[string]any, error) {
	f.calls = append(f.calls, action)
	if err := f.errs[action]; err != nil {
		return nil, err
	}
	if obj, ok := f.responses[action]; ok {
		return obj, nil
	}
	return map[string]any{}, nil
}

func lessonObject() map[string]any {
	return map[string]any{
		"theme":   "The Meiji Restoration",
		"lecture": "In 1868 the Tokugawa shogunate gave way to imperial rule...",
		"true_false": []any{
			map[string]any{"q": "The shogunate fell in 1868.", "options": []any{"True", "False"}, "correct": float64(0), "explanation": "The new government was proclaimed that January."},
			map[string]any{"q": "Perry arrived in 1853.", "options": []any{"True", "False"}, "correct": float64(0), "explanation": "The black ships reached Uraga in 1853."},
			map[string]any{"q": "Sakoku ended in 1700.", "options": []any{"True", "False"}, "correct": float64(1), "explanation": "Isolation lasted into the 1850s."},
		},
		"ordering": []any{
			map[string]any{"q": "Order these events.", "items": []any{"Perry arrives", "Ansei treaties", "Restoration"}, "correct_order": []any{float64(0), float64(1), float64(2)}, "explanation": "Chronological."},
			map[string]any{"q": "Order these too.", "items": []any{"Boshin War", "Seinan War"}, "correct_order": []any{float64(0), float64(1)}, "explanation": "Chronological."},
		},
		"essay":     map[string]any{"q": "Why did the shogunate collapse?", "model_answer": "Foreign pressure and domestic unrest."},
		"era_tag":   "era-meiji",
		"theme_tag": "theme-politics",
	}
}

func gradingObject(score float64) map[string]any {
	return map[string]any{
		"score":              score,
		"correction":         "Mention the Ansei treaties.",
		"overall_comment":    "Solid grasp of the causes.",
		"tags":               []any{"mistake-cause-effect"},
		"recommended_action": "Review the bakumatsu timeline.",
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testDay = time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

func testEngine(t *testing.T, ai *fakeInvoker) (*Engine, store.DocumentStore) {
	t.Helper()
	st := store.NewMemoryStore()
	e := NewEngine(st, ai, zap.NewNop(), WithClock(fixedClock(testDay)))
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e, st
}

func defaultInvoker() *fakeInvoker {
	return &fakeInvoker{
		responses: map[string]map[string]any{
			"lesson.generate": lessonObject(),
			"essay.grade":     gradingObject(82),
		},
		errs: map[string]error{},
	}
}

// runToTerms generates a lesson and answers every quiz question.
func runToTerms(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()
	if err := e.GenerateLesson(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginQuestions(); err != nil {
		t.Fatal(err)
	}
	content := e.Lesson()
	for _, ref := range content.Questions() {
		var a Answer
		switch ref.Kind {
		case lesson.KindTrueFalse:
			a = Answer{Kind: lesson.KindTrueFalse, Selected: content.TrueFalse[ref.Index].CorrectIndex}
		case lesson.KindOrdering:
			a = Answer{Kind: lesson.KindOrdering, Order: content.Ordering[ref.Index].CorrectOrder}
		case lesson.KindEssay:
			a = Answer{Kind: lesson.KindEssay, Text: "Foreign pressure broke the isolation policy."}
		}
		if err := e.SubmitAnswer(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if e.State().Step != StepTerms {
		t.Fatalf("step = %q after last answer, want terms", e.State().Step)
	}
}

func TestEngine_FullSession(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	if e.State().Step != StepStart {
		t.Fatalf("initial step = %q", e.State().Step)
	}
	runToTerms(t, e)

	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}
	if e.State().Step != StepSummary {
		t.Errorf("step = %q, want summary", e.State().Step)
	}
	if g := e.Grading(); g == nil || g.Score != 82 {
		t.Errorf("grading = %+v", g)
	}
	if e.State().Active != 2 {
		t.Errorf("active = %d, want 2", e.State().Active)
	}

	doc, err := st.Get(ctx, store.ProgressKey("2026-08-30", 1))
	if err != nil {
		t.Fatal(err)
	}
	if doc["completed"] != true {
		t.Error("persisted session not marked completed")
	}

	heat, err := st.Get(ctx, store.HeatmapKey)
	if err != nil {
		t.Fatal(err)
	}
	data := heat["data"].(map[string]any)
	if store.NumberValue(data["2026-08-30"]) != 1 {
		t.Errorf("heatmap count = %v", data["2026-08-30"])
	}
}

func TestEngine_ResumeMidQuiz(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	if err := e.GenerateLesson(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginQuestions(); err != nil {
		t.Fatal(err)
	}
	content := e.Lesson()
	for i := 0; i < 2; i++ {
		a := Answer{Kind: lesson.KindTrueFalse, Selected: content.TrueFalse[i].CorrectIndex}
		if err := e.SubmitAnswer(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	// A fresh engine over the same store stands in for a restart.
	e2 := NewEngine(st, ai, zap.NewNop(), WithClock(fixedClock(testDay)))
	if err := e2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if e2.State().Step != StepQuestions {
		t.Errorf("resumed step = %q, want questions", e2.State().Step)
	}
	if e2.State().QIndex != 2 {
		t.Errorf("resumed index = %d, want 2", e2.State().QIndex)
	}
	if len(e2.State().Answers) != 2 {
		t.Errorf("resumed answers = %d, want 2", len(e2.State().Answers))
	}
}

func TestEngine_ResumeBeforeQuiz(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	if err := e.GenerateLesson(ctx); err != nil {
		t.Fatal(err)
	}

	e2 := NewEngine(st, ai, zap.NewNop(), WithClock(fixedClock(testDay)))
	if err := e2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if e2.State().Step != StepLecture {
		t.Errorf("resumed step = %q, want lecture", e2.State().Step)
	}
}

func TestEngine_GenerationFailure(t *testing.T) {
	ai := defaultInvoker()
	ai.errs["lesson.generate"] = &llm.ErrQuotaExceeded{Err: errors.New("429")}
	e, _ := testEngine(t, ai)

	err := e.GenerateLesson(context.Background())
	if err == nil {
		t.Fatal("expected generation error")
	}
	if e.State().Step != StepStart {
		t.Errorf("step = %q, want start (no transition on failure)", e.State().Step)
	}
	if e.State().Err == "" {
		t.Error("error slot is empty")
	}

	// A later successful generation clears the error slot.
	delete(ai.errs, "lesson.generate")
	if err := e.GenerateLesson(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.State().Err != "" {
		t.Errorf("error slot = %q after recovery", e.State().Err)
	}
}

func TestEngine_GradingFailure(t *testing.T) {
	ai := defaultInvoker()
	ai.errs["essay.grade"] = &llm.ErrMalformedOutput{Raw: "not json"}
	e, _ := testEngine(t, ai)
	ctx := context.Background()

	runToTerms(t, e)
	if err := e.FinishTerms(ctx); err == nil {
		t.Fatal("expected grading error")
	}
	if e.State().Step != StepTerms {
		t.Errorf("step = %q, want terms (grading failure keeps step)", e.State().Step)
	}
	if e.Grading() != nil {
		t.Error("grading result set despite failure")
	}

	// Retrying after the transient failure completes the session.
	delete(ai.errs, "essay.grade")
	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}
	if e.State().Step != StepSummary {
		t.Errorf("step = %q after retry, want summary", e.State().Step)
	}
}

func TestEngine_DailyCap(t *testing.T) {
	ai := defaultInvoker()
	e, _ := testEngine(t, ai)
	ctx := context.Background()

	for slot := 1; slot <= MaxDailySessions; slot++ {
		runToTerms(t, e)
		if err := e.FinishTerms(ctx); err != nil {
			t.Fatal(err)
		}
		if slot < MaxDailySessions {
			if err := e.SelectSession(ctx, slot+1); err != nil {
				t.Fatal(err)
			}
		}
	}

	if e.State().Active != MaxDailySessions+1 {
		t.Fatalf("active = %d, want %d", e.State().Active, MaxDailySessions+1)
	}
	if e.CanGenerate() {
		t.Error("CanGenerate should be false past the cap")
	}
	if err := e.GenerateLesson(ctx); err == nil {
		t.Error("generation past the cap should fail")
	}

	// Reloading pins viewing to the cap.
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if e.State().Viewing != MaxDailySessions {
		t.Errorf("viewing = %d, want pinned to %d", e.State().Viewing, MaxDailySessions)
	}
}

func TestEngine_Regenerate(t *testing.T) {
	ai := defaultInvoker()
	e, _ := testEngine(t, ai)
	ctx := context.Background()

	if err := e.GenerateLesson(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.Regenerate(ctx); err != nil {
		t.Fatalf("first regeneration failed: %v", err)
	}
	if e.State().Step != StepLecture {
		t.Errorf("step = %q after regeneration, want lecture", e.State().Step)
	}

	err := e.Regenerate(ctx)
	if !errors.Is(err, quota.ErrRegenLimitExceeded) {
		t.Fatalf("second regeneration err = %v, want ErrRegenLimitExceeded", err)
	}
	if e.State().Err == "" {
		t.Error("error slot should carry the limit notice")
	}
}

func TestEngine_Reflection(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	runToTerms(t, e)
	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}
	if err := e.SetReflection(ctx, "Confused the treaty dates again."); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProgress(ctx, st, "2026-08-30", 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Reflection != "Confused the treaty dates again." {
		t.Errorf("reflection = %q", p.Reflection)
	}
	if !p.Completed {
		t.Error("completion flag lost after reflection write")
	}
}

func TestEngine_EnterReview(t *testing.T) {
	ai := defaultInvoker()
	e, _ := testEngine(t, ai)

	strategy, err := e.EnterReview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if e.State().Step != StepReview {
		t.Errorf("step = %q, want review", e.State().Step)
	}
	if strategy.Era.TagID == "" {
		t.Error("strategy has no era focus")
	}

	e.LeaveReview()
	if e.State().Step != StepStart {
		t.Errorf("step = %q after leaving review, want start", e.State().Step)
	}
}

func TestEngine_Rollover(t *testing.T) {
	ai := defaultInvoker()
	st := store.NewMemoryStore()
	now := testDay
	e := NewEngine(st, ai, zap.NewNop(), WithClock(func() time.Time { return now }))
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	reloaded, err := e.CheckRollover(ctx)
	if err != nil || reloaded {
		t.Fatalf("same-day check: reloaded=%v err=%v", reloaded, err)
	}

	now = now.AddDate(0, 0, 1)
	reloaded, err = e.CheckRollover(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded {
		t.Error("rollover should trigger a reload")
	}
	if e.State().Date != "2026-08-31" {
		t.Errorf("date = %q after rollover", e.State().Date)
	}
}

func TestEngine_RegenerateCompletedDayRejected(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	for slot := 1; slot <= MaxDailySessions; slot++ {
		runToTerms(t, e)
		if err := e.FinishTerms(ctx); err != nil {
			t.Fatal(err)
		}
		if slot < MaxDailySessions {
			if err := e.SelectSession(ctx, slot+1); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := e.Regenerate(ctx); err == nil {
		t.Fatal("regenerating a completed session should fail")
	}
	if e.State().Err == "" {
		t.Error("error slot should explain the rejection")
	}

	// The completed record survives and the allowance is untouched.
	p, err := LoadProgress(ctx, st, "2026-08-30", MaxDailySessions)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || !p.Completed {
		t.Fatal("completed progress record was lost")
	}
	used, err := quota.NewGuard(st).Used(ctx, "2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	if used != 0 {
		t.Errorf("regenCount = %d, want 0", used)
	}
	if e.Lesson() == nil {
		t.Error("lesson content dropped by rejected regeneration")
	}
}

func TestEngine_RegenerateCompletedSlotRejected(t *testing.T) {
	ai := defaultInvoker()
	e, st := testEngine(t, ai)
	ctx := context.Background()

	runToTerms(t, e)
	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}

	if err := e.Regenerate(ctx); err == nil {
		t.Fatal("regenerating a completed slot should fail")
	}
	p, err := LoadProgress(ctx, st, "2026-08-30", 1)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || !p.Completed {
		t.Fatal("completed progress record was lost")
	}
}

// flakyIncrementStore fails the first N Increment calls and then
// behaves normally.
type flakyIncrementStore struct {
	store.DocumentStore
	failures int
}

func (s *flakyIncrementStore) Increment(ctx context.Context, key, field string, delta int64) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("increment unavailable")
	}
	return s.DocumentStore.Increment(ctx, key, field, delta)
}

func TestEngine_StatFailureSkipsOnlyThatQuestion(t *testing.T) {
	ai := defaultInvoker()
	st := &flakyIncrementStore{DocumentStore: store.NewMemoryStore(), failures: 1}
	e := NewEngine(st, ai, zap.NewNop(), WithClock(fixedClock(testDay)))
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	runToTerms(t, e)
	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}
	if e.State().Step != StepSummary {
		t.Fatalf("step = %q, want summary despite stat failure", e.State().Step)
	}

	summary, err := stats.NewRecorder(st).LoadSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// The first question's counters are lost; the other four quiz
	// questions and the essay still record.
	if got := summary.Eras["era-meiji"].Attempts; got != 5 {
		t.Errorf("era attempts = %d, want 5", got)
	}
	if got := summary.Themes["theme-politics"].Attempts; got != 5 {
		t.Errorf("theme attempts = %d, want 5", got)
	}
	if got := summary.Mistakes["mistake-cause-effect"].Attempts; got != 1 {
		t.Errorf("essay mistake attempts = %d, want 1", got)
	}
}

func TestEngine_EssayErrorFeedsEraAndThemeStats(t *testing.T) {
	ai := defaultInvoker()
	ai.responses["essay.grade"] = gradingObject(40)
	e, st := testEngine(t, ai)
	ctx := context.Background()

	runToTerms(t, e)
	if err := e.FinishTerms(ctx); err != nil {
		t.Fatal(err)
	}

	summary, err := stats.NewRecorder(st).LoadSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := summary.Mistakes["mistake-cause-effect"].Errors; got != 1 {
		t.Errorf("mistake errors = %d, want 1", got)
	}
	if got := summary.Eras["era-meiji"].Errors; got != 1 {
		t.Errorf("era errors = %d, want 1", got)
	}
	if got := summary.Themes["theme-politics"].Errors; got != 1 {
		t.Errorf("theme errors = %d, want 1", got)
	}
}
