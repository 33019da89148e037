package lesson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fixed placeholder strings substituted when the model output lacks a
// field entirely.
const (
	promptPlaceholder      = "Question text could not be retrieved."
	explanationPlaceholder = "No explanation was provided for this question."
	themePlaceholder       = "General review"
	lecturePlaceholder     = "Lecture content was not generated. Regenerate this lesson for the full text."
	essayPromptPlaceholder = "Summarize, in your own words, the most important development covered by this lesson."
	essayAnswerPlaceholder = "A model answer is unavailable for this question."
)

// syntheticPrompt seeds padded true/false questions so a lesson always
// carries a full quiz even when the model under-delivers.
const syntheticPrompt = "This question could not be generated. Select the first option to continue."

// Field alias tables. Model output is inconsistent about key names, in
// both English and Japanese; each logical field resolves through an
// ordered candidate list, first non-empty match wins. The canonical key
// is always listed first so Normalize is a no-op on its own output.
var (
	promptAliases      = []string{"q", "question", "text", "problem", "statement", "content", "description", "title", "問題", "問題文", "設問"}
	explanationAliases = []string{"explanation", "commentary", "reason", "解説", "説明"}
	hintAliases        = []string{"hint", "tip", "ヒント"}
	optionAliases      = []string{"options", "choices", "選択肢"}
	itemAliases        = []string{"items", "events", "options", "choices", "項目"}
	correctAliases     = []string{"correct", "correct_index", "correct_answer", "answer", "正解"}
	orderAliases       = []string{"correct_order", "correctOrder", "order", "sequence", "正解順"}
	modelAnswerAliases = []string{"model_answer", "modelAnswer", "answer", "example_answer", "模範解答"}
	keywordAliases     = []string{"keywords", "key_points", "キーワード"}
	termAliases        = []string{"term", "word", "用語"}
	definitionAliases  = []string{"definition", "meaning", "description", "説明", "意味"}
	intentionAliases   = []string{"intention_tag", "intention", "tag", "category"}

	trueFalseListAliases = []string{"true_false", "truefalse", "tf_questions", "judgment", "○×問題"}
	orderingListAliases  = []string{"ordering", "order_questions", "sorting", "並び替え"}
	essayAliases         = []string{"essay", "essay_question", "記述問題"}
	termsListAliases     = []string{"essential_terms", "terms", "key_terms", "重要用語"}
	eraTagAliases        = []string{"era_tag", "era", "時代"}
	themeTagAliases      = []string{"theme_tag", "theme_id", "分野"}
)

// Normalize repairs arbitrary model output into a canonical Lesson. It
// never fails: missing or malformed pieces are replaced with fixed
// defaults and synthetic placeholders until the Lesson invariants hold.
// Normalize(Normalize(x)) == Normalize(x) for any x.
func Normalize(raw any) Lesson {
	l, _ := NormalizeWithReport(raw)
	return l
}

// NormalizeWithReport is Normalize plus a list of repairs performed,
// for diagnostic logging.
func NormalizeWithReport(raw any) (Lesson, []string) {
	var repairs []string
	note := func(format string, args ...any) {
		repairs = append(repairs, fmt.Sprintf(format, args...))
	}

	obj := toObject(raw)
	if obj == nil {
		obj = map[string]any{}
		note("input was not an object")
	}

	var l Lesson

	l.Theme = firstString(obj, []string{"theme", "topic", "テーマ"})
	if l.Theme == "" {
		l.Theme = themePlaceholder
		note("theme missing")
	}

	l.Lecture = firstString(obj, []string{"lecture", "lecture_text", "body", "講義"})
	if l.Lecture == "" {
		l.Lecture = lecturePlaceholder
		note("lecture missing")
	}

	l.EraTag = firstString(obj, eraTagAliases)
	l.ThemeTag = firstString(obj, themeTagAliases)

	for _, entry := range firstList(obj, trueFalseListAliases) {
		l.TrueFalse = append(l.TrueFalse, normalizeTrueFalse(entry, note))
	}
	for len(l.TrueFalse) < MinTrueFalse {
		l.TrueFalse = append(l.TrueFalse, syntheticTrueFalse())
		note("true/false list padded to %d", MinTrueFalse)
	}

	for _, entry := range firstList(obj, orderingListAliases) {
		l.Ordering = append(l.Ordering, normalizeOrdering(entry, note))
	}
	for len(l.Ordering) < MinOrdering {
		l.Ordering = append(l.Ordering, syntheticOrdering())
		note("ordering list padded to %d", MinOrdering)
	}

	l.Essay = normalizeEssay(firstValue(obj, essayAliases), note)

	for _, entry := range firstList(obj, termsListAliases) {
		if term, ok := normalizeTerm(entry); ok {
			l.EssentialTerms = append(l.EssentialTerms, term)
		}
	}
	if l.EssentialTerms == nil {
		l.EssentialTerms = []Term{}
	}

	return l, repairs
}

func normalizeTrueFalse(entry any, note func(string, ...any)) TrueFalse {
	// Bare strings are promoted to a full record over a default scaffold.
	if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
		note("string entry promoted to true/false question")
		return TrueFalse{
			Prompt:       strings.TrimSpace(s),
			Options:      defaultOptions(),
			CorrectIndex: 0,
			Explanation:  explanationPlaceholder,
			IntentionTag: DefaultIntentionTag,
		}
	}

	obj := toObject(entry)
	q := TrueFalse{
		Prompt:       firstString(obj, promptAliases),
		Options:      toStringList(firstValue(obj, optionAliases)),
		Hint:         firstString(obj, hintAliases),
		Explanation:  firstString(obj, explanationAliases),
		IntentionTag: firstString(obj, intentionAliases),
	}
	if q.Prompt == "" {
		q.Prompt = promptPlaceholder
		note("true/false prompt missing")
	}
	if q.Explanation == "" {
		q.Explanation = explanationPlaceholder
	}
	if q.IntentionTag == "" {
		q.IntentionTag = DefaultIntentionTag
	}
	if len(q.Options) < 2 {
		q.Options = defaultOptions()
		note("option list coerced to default scaffold")
	}

	if idx, ok := toInt(firstValue(obj, correctAliases)); ok && idx >= 0 && idx < len(q.Options) {
		q.CorrectIndex = idx
	} else {
		q.CorrectIndex = 0
	}
	return q
}

func normalizeOrdering(entry any, note func(string, ...any)) Ordering {
	obj := toObject(entry)
	q := Ordering{
		Prompt:       firstString(obj, promptAliases),
		Items:        toStringList(firstValue(obj, itemAliases)),
		Explanation:  firstString(obj, explanationAliases),
		IntentionTag: firstString(obj, intentionAliases),
	}
	if q.Prompt == "" {
		q.Prompt = promptPlaceholder
		note("ordering prompt missing")
	}
	if q.Explanation == "" {
		q.Explanation = explanationPlaceholder
	}
	if q.IntentionTag == "" {
		q.IntentionTag = DefaultIntentionTag
	}
	if len(q.Items) == 0 {
		q.Items = []string{"First event", "Second event"}
		note("ordering items missing")
	}

	if order, ok := toIntList(firstValue(obj, orderAliases)); ok && isPermutation(order, len(q.Items)) {
		q.CorrectOrder = order
	} else {
		q.CorrectOrder = identity(len(q.Items))
	}
	return q
}

func normalizeEssay(entry any, note func(string, ...any)) Essay {
	obj := toObject(entry)
	if obj == nil {
		note("essay block missing")
	}
	e := Essay{
		Prompt:      firstString(obj, promptAliases),
		ModelAnswer: firstString(obj, modelAnswerAliases),
		Hint:        firstString(obj, hintAliases),
		Keywords:    toStringList(firstValue(obj, keywordAliases)),
	}
	if e.Prompt == "" {
		e.Prompt = essayPromptPlaceholder
	}
	if e.ModelAnswer == "" {
		e.ModelAnswer = essayAnswerPlaceholder
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	return e
}

func normalizeTerm(entry any) (Term, bool) {
	if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
		return Term{Term: strings.TrimSpace(s)}, true
	}
	obj := toObject(entry)
	t := Term{
		Term:       firstString(obj, termAliases),
		Definition: firstString(obj, definitionAliases),
	}
	return t, t.Term != ""
}

func syntheticTrueFalse() TrueFalse {
	return TrueFalse{
		Prompt:       syntheticPrompt,
		Options:      []string{"Correct", "Incorrect"},
		CorrectIndex: 0,
		Explanation:  explanationPlaceholder,
		IntentionTag: DefaultIntentionTag,
	}
}

func syntheticOrdering() Ordering {
	return Ordering{
		Prompt:       syntheticPrompt,
		Items:        []string{"First event", "Second event"},
		CorrectOrder: []int{0, 1},
		Explanation:  explanationPlaceholder,
		IntentionTag: DefaultIntentionTag,
	}
}

func defaultOptions() []string {
	return []string{"Correct", "Incorrect", "Cannot be determined", "Not covered"}
}

// toObject coerces a value to a map. Structs (e.g. an already-typed
// Lesson) round-trip through JSON so normalization sees the same shape
// the store produces.
func toObject(v any) map[string]any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return val
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		return obj
	}
}

// firstValue returns the first present key from the alias list.
func firstValue(obj map[string]any, aliases []string) any {
	for _, key := range aliases {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first non-empty string among the alias keys.
func firstString(obj map[string]any, aliases []string) string {
	for _, key := range aliases {
		if s, ok := obj[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// firstList returns the first non-empty list among the alias keys.
func firstList(obj map[string]any, aliases []string) []any {
	for _, key := range aliases {
		if list, ok := obj[key].([]any); ok && len(list) > 0 {
			return list
		}
	}
	return nil
}

func toStringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func toIntList(v any) ([]int, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(list))
	for _, e := range list {
		n, ok := toInt(e)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
