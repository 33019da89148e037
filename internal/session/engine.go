package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/plara718/rekishi/internal/lesson"
	"github.com/plara718/rekishi/internal/llm"
	"github.com/plara718/rekishi/internal/quota"
	"github.com/plara718/rekishi/internal/review"
	"github.com/plara718/rekishi/internal/stats"
	"github.com/plara718/rekishi/internal/store"
)

// DateFormat is the layout for the engine's date keys.
const DateFormat = "2006-01-02"

// essayPassScore is the grading score below which the essay counts as
// an error for weakness statistics.
const essayPassScore = 60

// historyLookbackDays bounds how far back recent-session scans go.
const historyLookbackDays = 21

// Invoker is the model gateway surface the engine depends on.
type Invoker interface {
	Invoke(ctx context.Context, action, system, prompt string, schema *llm.Schema) (map[string]any, error)
}

// Engine drives one learner's daily sessions: generation, the quiz
// loop, grading, and persistence. It holds the current Context value
// and the progress record for the viewing slot.
type Engine struct {
	store    store.DocumentStore
	ai       Invoker
	guard    *quota.Guard
	recorder *stats.Recorder
	review   *review.Engine
	log      *zap.Logger
	clock    func() time.Time
	maxSlots int

	state    Context
	progress *Progress
	// dirty marks a failed persist to retry on the next mutating action.
	dirty bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source. Useful in tests and for the
// day-rollover check.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithMaxSessions overrides the number of lesson slots per day.
func WithMaxSessions(n int) EngineOption {
	return func(e *Engine) {
		if n >= 1 {
			e.maxSlots = n
		}
	}
}

// NewEngine wires an Engine over its collaborators.
func NewEngine(st store.DocumentStore, ai Invoker, log *zap.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		store:    st,
		ai:       ai,
		guard:    quota.NewGuard(st),
		recorder: stats.NewRecorder(st),
		review:   review.NewEngine(),
		log:      log,
		clock:    time.Now,
		maxSlots: MaxDailySessions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current session context value.
func (e *Engine) State() Context {
	return e.state
}

// MaxSessions returns the number of lesson slots per day.
func (e *Engine) MaxSessions() int {
	return e.maxSlots
}

// Lesson returns the viewing slot's lesson content, or nil before
// generation.
func (e *Engine) Lesson() *lesson.Lesson {
	if e.progress == nil {
		return nil
	}
	return &e.progress.Content
}

// Grading returns the essay grading result once the session completed.
func (e *Engine) Grading() *lesson.GradingResult {
	if e.progress == nil {
		return nil
	}
	return e.progress.EssayGrading
}

// History returns the day's per-slot summaries.
func (e *Engine) History(ctx context.Context) ([]HistoryMeta, error) {
	return LoadHistory(ctx, e.store, e.state.Date, e.maxSlots)
}

// Load reconciles the engine against the persisted documents for
// today: it derives the active slot, opens it, and applies the resume
// rule to an interrupted session.
func (e *Engine) Load(ctx context.Context) error {
	date := e.clock().Format(DateFormat)
	metas, err := LoadHistory(ctx, e.store, date, e.maxSlots)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	e.state = NewContext(date)
	e.state.Active = activeSlot(metas)
	e.state.Viewing = clampViewing(e.state.Active, e.maxSlots)
	return e.openSlot(ctx, e.state.Viewing)
}

// openSlot loads the slot's progress and positions the step.
func (e *Engine) openSlot(ctx context.Context, slot int) error {
	p, err := LoadProgress(ctx, e.store, e.state.Date, slot)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	e.progress = p
	e.state = e.state.WithViewing(slot)

	if p == nil {
		return nil
	}
	e.state.Reflection = p.Reflection
	if p.Completed {
		e.state = e.state.WithStep(StepSummary)
		return nil
	}
	e.state.QIndex = p.QIndex
	for idx, a := range p.Answers {
		e.state.Answers[idx] = a
	}
	e.state = e.state.WithStep(resumeStep(p.QIndex))
	return nil
}

// SelectSession opens another slot for viewing. Completed slots are
// read-only; the caller cannot submit answers into them because their
// step lands on summary.
func (e *Engine) SelectSession(ctx context.Context, slot int) error {
	return e.openSlot(ctx, clampViewing(slot, e.maxSlots))
}

// CanGenerate reports whether a new lesson may be generated for the
// viewing slot.
func (e *Engine) CanGenerate() bool {
	if e.state.Active > e.maxSlots {
		return false
	}
	return e.progress == nil
}

// GenerateLesson requests new content for the viewing slot and
// transitions to the lecture step. The focus comes from the review
// recommendation so each lesson targets current weaknesses.
func (e *Engine) GenerateLesson(ctx context.Context) error {
	if e.state.Active > e.maxSlots {
		err := fmt.Errorf("all %d sessions for today are completed", e.maxSlots)
		e.state = e.state.WithError(err.Error())
		return err
	}
	if e.progress != nil && !e.progress.Completed {
		// Existing incomplete lesson: resume instead of regenerating.
		e.state = e.state.WithStep(resumeStep(e.progress.QIndex))
		return nil
	}

	strategy := e.recommend(ctx)
	focus := lesson.GenerationFocus{
		Era:     strategy.Era.Label,
		Theme:   strategy.Theme.Label,
		Mistake: strategy.Mistake.Label,
	}
	system, prompt := lesson.BuildGenerationPrompt(focus, e.state.Date)

	obj, err := e.ai.Invoke(ctx, "lesson.generate", system, prompt, nil)
	if err != nil {
		e.state = e.state.WithError(generationMessage(err))
		return err
	}

	content, repairs := lesson.NormalizeWithReport(obj)
	if len(repairs) > 0 {
		e.log.Debug("lesson content repaired",
			zap.Int("repairs", len(repairs)),
			zap.Strings("details", repairs))
	}

	e.progress = &Progress{
		Content:   content,
		Answers:   map[int]Answer{},
		Timestamp: e.clock(),
		Tags:      content.Tags(),
	}
	e.persist(ctx, e.progress.toDoc())
	e.state = e.state.WithStep(StepLecture)
	return nil
}

// BeginQuestions advances from the lecture into the quiz loop.
func (e *Engine) BeginQuestions() error {
	if e.state.Step != StepLecture {
		return fmt.Errorf("cannot start questions from %q", e.state.Step)
	}
	e.state = e.state.WithStep(StepQuestions)
	return nil
}

// SubmitAnswer records the answer for the current question, persists
// the quiz position, and moves to the terms step past the last
// question.
func (e *Engine) SubmitAnswer(ctx context.Context, a Answer) error {
	if e.state.Step != StepQuestions {
		return fmt.Errorf("cannot answer from %q", e.state.Step)
	}
	if e.progress == nil || e.progress.Completed {
		return errors.New("no open session to answer")
	}

	index := e.state.QIndex
	total := e.progress.Content.NumQuestions()
	if index >= total {
		return errors.New("no question pending")
	}

	e.state = e.state.WithAnswer(index, a)
	e.progress.Answers[index] = a
	e.progress.QIndex = e.state.QIndex

	e.persist(ctx, store.Document{
		"userAnswers": answerFields(e.progress.Answers),
		"qIndex":      int64(e.progress.QIndex),
	})

	if e.state.QIndex >= total {
		e.state = e.state.WithStep(StepTerms)
	}
	return nil
}

// FinishTerms advances from the terms review into the summary, grading
// the essay and aggregating weakness statistics. A grading failure
// keeps the session on the terms step and does not mark it completed.
func (e *Engine) FinishTerms(ctx context.Context) error {
	if e.state.Step != StepTerms {
		return fmt.Errorf("cannot summarize from %q", e.state.Step)
	}
	if e.progress == nil {
		return errors.New("no open session")
	}

	essayIndex := e.progress.Content.NumQuestions() - 1
	answer := e.progress.Answers[essayIndex]

	system, prompt := lesson.BuildGradingPrompt(e.progress.Content.Essay, answer.Text)
	obj, err := e.ai.Invoke(ctx, "essay.grade", system, prompt, lesson.GradingSchema)
	if err != nil {
		e.state = e.state.WithError("Essay grading failed. Try again.")
		return fmt.Errorf("grade essay: %w", err)
	}
	grading, err := lesson.ParseGrading(obj)
	if err != nil {
		e.state = e.state.WithError("Essay grading returned an unusable result. Try again.")
		return fmt.Errorf("parse grading: %w", err)
	}

	e.aggregateStats(ctx, grading)

	e.progress.EssayGrading = grading
	e.progress.Completed = true
	e.persist(ctx, e.progress.toDoc())

	if err := e.recorder.RecordCompletion(ctx, e.state.Date); err != nil {
		e.log.Warn("heatmap update failed", zap.Error(err))
	}

	e.state = e.state.WithStep(StepSummary)
	if e.state.Viewing == e.state.Active {
		e.state.Active++
	}
	return nil
}

// aggregateStats records one attempt per question against the tags it
// carries. Quiz questions grade locally; the essay counts as an error
// below the pass score, attributed to the tags the grader returned.
func (e *Engine) aggregateStats(ctx context.Context, grading *lesson.GradingResult) {
	content := &e.progress.Content
	refs := content.Questions()
	for idx, ref := range refs {
		if ref.Kind == lesson.KindEssay {
			continue
		}
		answer, answered := e.progress.Answers[idx]
		wrong := !answered || !answerCorrect(content, ref, answer)
		tags := questionTags(content, ref)
		if err := e.recorder.RecordAttempt(ctx, tags, wrong); err != nil {
			// Keep going: one lost counter must not drop the rest.
			e.log.Warn("stat aggregation failed", zap.Int("question", idx), zap.Error(err))
		}
	}

	essayTags := append([]string{}, grading.Tags...)
	if len(essayTags) == 0 {
		essayTags = []string{lesson.DefaultIntentionTag}
	}
	if content.EraTag != "" {
		essayTags = append(essayTags, content.EraTag)
	}
	if content.ThemeTag != "" {
		essayTags = append(essayTags, content.ThemeTag)
	}
	if err := e.recorder.RecordAttempt(ctx, essayTags, grading.Score < essayPassScore); err != nil {
		e.log.Warn("stat aggregation failed", zap.Error(err))
	}
}

// Regenerate discards the viewing slot's content and generates fresh
// content, consuming the day's single regeneration allowance.
// Completed sessions are immutable apart from the reflection note, so
// they are rejected before the allowance is touched.
func (e *Engine) Regenerate(ctx context.Context) error {
	if e.progress != nil && e.progress.Completed {
		err := errors.New("session already completed")
		e.state = e.state.WithError("This session is completed and cannot be regenerated.")
		return err
	}
	err := e.guard.TryRegenerate(ctx, e.state.Date, e.state.Viewing)
	if errors.Is(err, quota.ErrRegenLimitExceeded) {
		// Expected business rejection, not a system fault.
		e.state = e.state.WithError("Today's regeneration is already used up.")
		return err
	}
	if err != nil {
		e.state = e.state.WithError("Regeneration failed. Try again.")
		return err
	}

	e.progress = nil
	e.state = e.state.WithViewing(e.state.Viewing)
	return e.GenerateLesson(ctx)
}

// SetReflection stores the learner's note. This is the one mutation
// allowed after completion.
func (e *Engine) SetReflection(ctx context.Context, text string) error {
	if e.progress == nil {
		return errors.New("no session to annotate")
	}
	e.progress.Reflection = text
	e.state.Reflection = text
	e.persist(ctx, store.Document{"reflection": text})
	return nil
}

// EnterReview switches to review mode and returns the current
// recommendation.
func (e *Engine) EnterReview(ctx context.Context) (review.Strategy, error) {
	if e.state.Step != StepStart {
		return review.Strategy{}, fmt.Errorf("cannot enter review from %q", e.state.Step)
	}
	strategy := e.recommend(ctx)
	e.state = e.state.WithStep(StepReview)
	return strategy, nil
}

// Recommend returns the current review recommendation without
// changing the session step.
func (e *Engine) Recommend(ctx context.Context) review.Strategy {
	return e.recommend(ctx)
}

// LeaveReview returns from review mode to the start step.
func (e *Engine) LeaveReview() {
	if e.state.Step == StepReview {
		e.state = e.state.WithStep(StepStart)
	}
}

// CheckRollover reloads the engine when the calendar day has changed
// since the context was built. Returns true when a reload happened.
func (e *Engine) CheckRollover(ctx context.Context) (bool, error) {
	today := e.clock().Format(DateFormat)
	if today == e.state.Date {
		return false, nil
	}
	e.log.Info("day rollover detected", zap.String("from", e.state.Date), zap.String("to", today))
	return true, e.Load(ctx)
}

// recommend builds the review strategy from persisted statistics.
// Failures degrade to the fallback strategy rather than blocking the
// session.
func (e *Engine) recommend(ctx context.Context) review.Strategy {
	summary, err := e.recorder.LoadSummary(ctx)
	if err != nil {
		e.log.Warn("weakness summary unavailable", zap.Error(err))
		return e.review.Recommend(review.Stats{}, nil)
	}
	history, err := e.recorder.RecentSessions(ctx, e.clock(), e.maxSlots, 10, historyLookbackDays)
	if err != nil {
		e.log.Warn("session history unavailable", zap.Error(err))
		history = nil
	}
	return e.review.Recommend(summary, history)
}

// persist merge-writes fields into the viewing slot's document. A
// failure is logged and leaves the in-memory state authoritative; the
// full record is rewritten on the next mutating action.
func (e *Engine) persist(ctx context.Context, fields store.Document) {
	key := store.ProgressKey(e.state.Date, e.state.Viewing)
	if e.dirty && e.progress != nil {
		fields = e.progress.toDoc()
	}
	if err := e.store.Set(ctx, key, fields); err != nil {
		e.dirty = true
		e.log.Warn("progress write failed", zap.String("key", key), zap.Error(err))
		return
	}
	e.dirty = false
}

// answerCorrect grades a quiz answer locally.
func answerCorrect(l *lesson.Lesson, ref lesson.QuestionRef, a Answer) bool {
	switch ref.Kind {
	case lesson.KindTrueFalse:
		return a.Selected == l.TrueFalse[ref.Index].CorrectIndex
	case lesson.KindOrdering:
		want := l.Ordering[ref.Index].CorrectOrder
		if len(a.Order) != len(want) {
			return false
		}
		for i := range want {
			if a.Order[i] != want[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// questionTags collects the tags one question contributes to weakness
// statistics.
func questionTags(l *lesson.Lesson, ref lesson.QuestionRef) []string {
	var intention string
	switch ref.Kind {
	case lesson.KindTrueFalse:
		intention = l.TrueFalse[ref.Index].IntentionTag
	case lesson.KindOrdering:
		intention = l.Ordering[ref.Index].IntentionTag
	}
	tags := make([]string, 0, 3)
	if intention != "" {
		tags = append(tags, intention)
	}
	if l.EraTag != "" {
		tags = append(tags, l.EraTag)
	}
	if l.ThemeTag != "" {
		tags = append(tags, l.ThemeTag)
	}
	return tags
}

// answerFields re-keys the answers map for a partial merge write.
func answerFields(answers map[int]Answer) map[string]any {
	out := make(map[string]any, len(answers))
	for idx, a := range answers {
		out[fmt.Sprintf("%d", idx)] = toValue(a)
	}
	return out
}

// generationMessage maps gateway errors to the message shown on the
// session's error slot.
func generationMessage(err error) string {
	var quotaErr *llm.ErrQuotaExceeded
	var modelErr *llm.ErrModelNotFound
	switch {
	case errors.As(err, &quotaErr):
		return "The model's usage quota is exhausted. Try again later."
	case errors.As(err, &modelErr):
		return "The configured model is unavailable. Check the model settings."
	default:
		return "Lesson generation failed. Try again."
	}
}
