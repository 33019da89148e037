package lesson

import (
	"fmt"
	"strings"
)

const generationSystemPrompt = `You are a Japanese history tutor preparing a daily micro-lesson. Respond with a single JSON object and nothing else. The object must have these keys: "theme" (string), "lecture" (markdown string, 400-600 words), "true_false" (array of at least 3 objects with "q", "options", "correct", "hint", "explanation", "intention_tag"), "ordering" (array of at least 2 objects with "q", "items", "correct_order", "explanation", "intention_tag"), "essay" (object with "q", "model_answer", "hint", "keywords"), "essential_terms" (array of objects with "term" and "definition"), "era_tag" (string), "theme_tag" (string).`

const gradingSystemPrompt = `You are grading a learner's short essay about Japanese history. Compare it with the model answer, score it 0-100, correct factual errors, and identify mistake categories.`

// GenerationFocus narrows a lesson request to a weakness area.
type GenerationFocus struct {
	Era     string // era tag ID, empty for tutor's choice
	Theme   string // theme tag ID, empty for tutor's choice
	Mistake string // mistake tag ID to design questions around
	Notes   string // free-text justification shown to the model
}

// BuildGenerationPrompt returns the system and user prompts for lesson
// generation.
func BuildGenerationPrompt(focus GenerationFocus, date string) (system, user string) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Date: %s\n", date))
	if focus.Era != "" {
		b.WriteString(fmt.Sprintf("Focus era: %s\n", focus.Era))
	}
	if focus.Theme != "" {
		b.WriteString(fmt.Sprintf("Focus theme: %s\n", focus.Theme))
	}
	if focus.Mistake != "" {
		b.WriteString(fmt.Sprintf("The learner's recurring mistake type: %s. Design at least one question that exercises it.\n", focus.Mistake))
	}
	if focus.Notes != "" {
		b.WriteString(fmt.Sprintf("Context: %s\n", focus.Notes))
	}

	b.WriteString(`
Create today's lesson:
1. Pick a single concrete topic within the focus area (or any era if none given).
2. The lecture must tell the topic as a narrative: causes, key figures, consequences.
3. True/false questions test facts stated in the lecture. Each carries an "intention_tag" naming the mistake category it guards against.
4. Ordering questions list 3-5 events; "correct_order" gives item indices in chronological order.
5. The essay question asks for cause-and-effect reasoning, not recall.
6. Essential terms are 3-6 terms a learner must retain from this lecture.`)

	return generationSystemPrompt, b.String()
}

// BuildGradingPrompt returns the system and user prompts for grading a
// learner's essay answer.
func BuildGradingPrompt(essay Essay, learnerAnswer string) (system, user string) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Question: %s\n\n", essay.Prompt))
	b.WriteString(fmt.Sprintf("Model answer: %s\n\n", essay.ModelAnswer))
	if len(essay.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("Expected keywords: %s\n\n", strings.Join(essay.Keywords, ", ")))
	}
	b.WriteString(fmt.Sprintf("Learner's answer: %s\n", learnerAnswer))

	return gradingSystemPrompt, b.String()
}
