package session

import (
	"testing"

	"github.com/plara718/rekishi/internal/lesson"
)

func TestContext_WithAnswerIsValueSemantics(t *testing.T) {
	c1 := NewContext("2026-08-30")
	c2 := c1.WithAnswer(0, Answer{Kind: lesson.KindTrueFalse, Selected: 1})

	if len(c1.Answers) != 0 {
		t.Error("original context mutated")
	}
	if len(c2.Answers) != 1 || c2.QIndex != 1 {
		t.Errorf("transitioned context = %+v", c2)
	}
}

func TestContext_WithStepClearsError(t *testing.T) {
	c := NewContext("2026-08-30").WithError("boom")
	if c.Err != "boom" {
		t.Fatalf("err = %q", c.Err)
	}
	c = c.WithStep(StepLecture)
	if c.Err != "" {
		t.Error("transition did not clear the error slot")
	}
}

func TestResumeStep(t *testing.T) {
	if got := resumeStep(0); got != StepLecture {
		t.Errorf("resumeStep(0) = %q, want lecture", got)
	}
	if got := resumeStep(2); got != StepQuestions {
		t.Errorf("resumeStep(2) = %q, want questions", got)
	}
}

func TestClampViewing(t *testing.T) {
	if got := clampViewing(0, MaxDailySessions); got != 1 {
		t.Errorf("clampViewing(0) = %d", got)
	}
	if got := clampViewing(MaxDailySessions+1, MaxDailySessions); got != MaxDailySessions {
		t.Errorf("clampViewing over cap = %d", got)
	}
	if got := clampViewing(2, MaxDailySessions); got != 2 {
		t.Errorf("clampViewing(2) = %d", got)
	}
}
