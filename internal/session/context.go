package session

import "github.com/plara718/rekishi/internal/lesson"

// Step is the learner-visible stage of a session.
type Step string

const (
	StepStart     Step = "start"
	StepLecture   Step = "lecture"
	StepQuestions Step = "questions"
	StepTerms     Step = "terms"
	StepSummary   Step = "summary"

	// StepReview is an independent mode entered from start.
	StepReview Step = "review"
)

// Answer is one recorded response, discriminated by question kind.
type Answer struct {
	Kind lesson.Kind `json:"kind"`
	// Selected is the chosen option index for true/false questions.
	Selected int `json:"selected,omitempty"`
	// Order is the submitted permutation for ordering questions.
	Order []int `json:"order,omitempty"`
	// Text is the free-text essay answer.
	Text string `json:"text,omitempty"`
}

// Context is the full in-memory session state. It is an immutable
// value: every transition returns a new Context, which keeps the state
// machine testable without any terminal harness.
type Context struct {
	Date string

	// Viewing is the slot currently open. It may differ from Active to
	// allow read-only inspection of completed sessions.
	Viewing int
	// Active is the furthest incomplete or available slot for the day.
	// It exceeds MaxDailySessions once every slot is completed.
	Active int

	Step    Step
	QIndex  int
	Answers map[int]Answer

	Reflection string

	// Err is the single current-error slot shown to the learner. Any
	// successful transition clears it.
	Err string
}

// NewContext returns the initial state for a day.
func NewContext(date string) Context {
	return Context{
		Date:    date,
		Viewing: 1,
		Active:  1,
		Step:    StepStart,
		Answers: map[int]Answer{},
	}
}

// WithStep transitions to a step, clearing the error slot.
func (c Context) WithStep(step Step) Context {
	c.Step = step
	c.Err = ""
	return c
}

// WithAnswer records an answer for the flattened question index and
// advances past it.
func (c Context) WithAnswer(index int, a Answer) Context {
	answers := make(map[int]Answer, len(c.Answers)+1)
	for k, v := range c.Answers {
		answers[k] = v
	}
	answers[index] = a
	c.Answers = answers
	c.QIndex = index + 1
	c.Err = ""
	return c
}

// WithError sets the error slot without changing the step.
func (c Context) WithError(msg string) Context {
	c.Err = msg
	return c
}

// WithViewing switches the open slot and resets transient quiz state.
func (c Context) WithViewing(slot int) Context {
	c.Viewing = slot
	c.QIndex = 0
	c.Answers = map[int]Answer{}
	c.Reflection = ""
	c.Step = StepStart
	c.Err = ""
	return c
}

// resumeStep applies the resume rule: a session interrupted mid-quiz
// reopens at the questions step, anything else at the lecture.
func resumeStep(qIndex int) Step {
	if qIndex > 0 {
		return StepQuestions
	}
	return StepLecture
}
