package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plara718/rekishi/internal/lesson"
	"github.com/plara718/rekishi/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume today's lesson session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := newRuntime(ctx, cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.engine.Load(ctx); err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		return runSession(ctx, rt.engine)
	},
}

// runSession drives the learner through the session steps on stdin.
func runSession(ctx context.Context, e *session.Engine) error {
	in := bufio.NewScanner(os.Stdin)

	for {
		if reloaded, err := e.CheckRollover(ctx); err != nil {
			return err
		} else if reloaded {
			fmt.Println("A new day has started; your sessions were reset.")
		}

		state := e.State()
		if state.Err != "" {
			fmt.Printf("\n! %s\n", state.Err)
		}

		switch state.Step {
		case session.StepStart:
			if done, err := stepStart(ctx, e, in); done || err != nil {
				return err
			}
		case session.StepLecture:
			stepLecture(e, in)
		case session.StepQuestions:
			if err := stepQuestions(ctx, e, in); err != nil {
				return err
			}
		case session.StepTerms:
			stepTerms(e)
			if err := e.FinishTerms(ctx); err != nil {
				fmt.Printf("! %s\n", e.State().Err)
				if !promptYes(in, "Retry grading?") {
					return nil
				}
			}
		case session.StepSummary:
			if err := stepSummary(ctx, e, in); err != nil {
				return err
			}
			return nil
		case session.StepReview:
			e.LeaveReview()
		}
	}
}

func stepStart(ctx context.Context, e *session.Engine, in *bufio.Scanner) (bool, error) {
	state := e.State()
	fmt.Printf("\n=== Rekishi %s, session %d/%d ===\n", state.Date, state.Viewing, e.MaxSessions())

	if !e.CanGenerate() && e.Lesson() == nil {
		fmt.Println("All of today's sessions are completed. Come back tomorrow.")
		return true, nil
	}

	fmt.Println("[1] Start the lesson  [2] Show review recommendation  [q] Quit")
	switch promptLine(in, "> ") {
	case "2":
		strategy, err := e.EnterReview(ctx)
		if err != nil {
			return false, err
		}
		fmt.Printf("\nRecommended focus: %s / %s\nWatch out for: %s\n%s\n",
			strategy.Era.Label, strategy.Theme.Label, strategy.Mistake.Label, strategy.Justification)
		e.LeaveReview()
		return false, nil
	case "q":
		return true, nil
	default:
		fmt.Println("Generating your lesson...")
		if err := e.GenerateLesson(ctx); err != nil {
			// The error slot carries the learner-facing message; loop.
			return false, nil
		}
		return false, nil
	}
}

func stepLecture(e *session.Engine, in *bufio.Scanner) {
	content := e.Lesson()
	fmt.Printf("\n## %s\n\n%s\n", content.Theme, content.Lecture)
	promptLine(in, "\nPress Enter to start the questions.")
	_ = e.BeginQuestions()
}

func stepQuestions(ctx context.Context, e *session.Engine, in *bufio.Scanner) error {
	content := e.Lesson()
	refs := content.Questions()
	idx := e.State().QIndex
	if idx >= len(refs) {
		return nil
	}
	ref := refs[idx]
	fmt.Printf("\nQuestion %d of %d\n", idx+1, len(refs))

	var answer session.Answer
	switch ref.Kind {
	case lesson.KindTrueFalse:
		q := content.TrueFalse[ref.Index]
		fmt.Println(q.Prompt)
		for i, opt := range q.Options {
			fmt.Printf("  [%d] %s\n", i+1, opt)
		}
		selected := promptIndex(in, len(q.Options))
		answer = session.Answer{Kind: lesson.KindTrueFalse, Selected: selected}
		showVerdict(selected == q.CorrectIndex, q.Explanation)

	case lesson.KindOrdering:
		q := content.Ordering[ref.Index]
		fmt.Println(q.Prompt)
		for i, item := range q.Items {
			fmt.Printf("  [%d] %s\n", i+1, item)
		}
		order := promptOrder(in, len(q.Items))
		answer = session.Answer{Kind: lesson.KindOrdering, Order: order}
		showVerdict(sameOrder(order, q.CorrectOrder), q.Explanation)

	case lesson.KindEssay:
		q := content.Essay
		fmt.Println(q.Prompt)
		if q.Hint != "" {
			fmt.Printf("(Hint: %s)\n", q.Hint)
		}
		text := promptLine(in, "Your answer: ")
		answer = session.Answer{Kind: lesson.KindEssay, Text: text}
	}

	return e.SubmitAnswer(ctx, answer)
}

func stepTerms(e *session.Engine) {
	content := e.Lesson()
	if len(content.EssentialTerms) > 0 {
		fmt.Println("\nEssential terms:")
		for _, term := range content.EssentialTerms {
			if term.Definition != "" {
				fmt.Printf("  %s: %s\n", term.Term, term.Definition)
			} else {
				fmt.Printf("  %s\n", term.Term)
			}
		}
	}
	fmt.Println("\nGrading your essay...")
}

func stepSummary(ctx context.Context, e *session.Engine, in *bufio.Scanner) error {
	if g := e.Grading(); g != nil {
		fmt.Printf("\n=== Session complete ===\nEssay score: %d/100\n", g.Score)
		if g.Correction != "" {
			fmt.Printf("Correction: %s\n", g.Correction)
		}
		if g.OverallComment != "" {
			fmt.Printf("Comment: %s\n", g.OverallComment)
		}
		if g.RecommendedAction != "" {
			fmt.Printf("Next: %s\n", g.RecommendedAction)
		}
	}

	if promptYes(in, "Add a reflection note?") {
		text := promptLine(in, "Reflection: ")
		if err := e.SetReflection(ctx, text); err != nil {
			return err
		}
	}

	if e.State().Active <= e.MaxSessions() && promptYes(in, "Start the next session?") {
		if err := e.SelectSession(ctx, e.State().Active); err != nil {
			return err
		}
		return runSession(ctx, e)
	}
	return nil
}

func showVerdict(correct bool, explanation string) {
	if correct {
		fmt.Println("Correct.")
	} else {
		fmt.Println("Not quite.")
	}
	fmt.Println(explanation)
}

func sameOrder(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func promptLine(in *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// promptIndex reads a 1-based option number and returns it 0-based.
func promptIndex(in *bufio.Scanner, n int) int {
	for {
		line := promptLine(in, "> ")
		v, err := strconv.Atoi(line)
		if err == nil && v >= 1 && v <= n {
			return v - 1
		}
		fmt.Printf("Enter a number from 1 to %d.\n", n)
	}
}

// promptOrder reads a comma- or space-separated 1-based sequence.
func promptOrder(in *bufio.Scanner, n int) []int {
	for {
		line := promptLine(in, "Order (e.g. 1,3,2): ")
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
		if len(fields) != n {
			fmt.Printf("Enter all %d positions.\n", n)
			continue
		}
		order := make([]int, 0, n)
		ok := true
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil || v < 1 || v > n {
				ok = false
				break
			}
			order = append(order, v-1)
		}
		if ok {
			return order
		}
		fmt.Printf("Enter numbers from 1 to %d.\n", n)
	}
}

func promptYes(in *bufio.Scanner, question string) bool {
	answer := promptLine(in, question+" [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}
