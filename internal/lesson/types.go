package lesson

// DefaultIntentionTag is the mistake category assigned to a question
// when none is inferable from the generated content.
const DefaultIntentionTag = "mistake-knowledge-gap"

// Minimum question counts every normalized lesson satisfies.
const (
	MinTrueFalse = 3
	MinOrdering  = 2
)

// Lesson is the canonical generated-lesson schema. Normalize guarantees
// every instance holds at least MinTrueFalse true/false questions,
// MinOrdering ordering questions, and exactly one essay question, each
// with a non-empty prompt and explanation.
type Lesson struct {
	Theme          string      `json:"theme"`
	Lecture        string      `json:"lecture"`
	TrueFalse      []TrueFalse `json:"true_false"`
	Ordering       []Ordering  `json:"ordering"`
	Essay          Essay       `json:"essay"`
	EssentialTerms []Term      `json:"essential_terms"`

	// EraTag and ThemeTag label the lesson for weakness statistics.
	// Empty when the model did not supply them.
	EraTag   string `json:"era_tag,omitempty"`
	ThemeTag string `json:"theme_tag,omitempty"`
}

// TrueFalse is a judgment question with a fixed option list.
type TrueFalse struct {
	Prompt       string   `json:"q"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct"`
	Hint         string   `json:"hint,omitempty"`
	Explanation  string   `json:"explanation"`
	IntentionTag string   `json:"intention_tag"`
}

// Ordering asks the learner to arrange items chronologically.
// CorrectOrder is a permutation of item indices.
type Ordering struct {
	Prompt       string   `json:"q"`
	Items        []string `json:"items"`
	CorrectOrder []int    `json:"correct_order"`
	Explanation  string   `json:"explanation"`
	IntentionTag string   `json:"intention_tag"`
}

// Essay is the single free-text question of a lesson.
type Essay struct {
	Prompt      string   `json:"q"`
	ModelAnswer string   `json:"model_answer"`
	Hint        string   `json:"hint,omitempty"`
	Keywords    []string `json:"keywords"`
}

// Term is an essential term with its definition.
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Kind discriminates question variants in the flattened sequence.
type Kind string

const (
	KindTrueFalse Kind = "true_false"
	KindOrdering  Kind = "ordering"
	KindEssay     Kind = "essay"
)

// QuestionRef addresses one question: its variant and position within
// that variant's list.
type QuestionRef struct {
	Kind  Kind
	Index int
}

// Questions flattens the lesson into the ordered sequence the session
// steps through: true/false first, then ordering, then the essay.
func (l *Lesson) Questions() []QuestionRef {
	refs := make([]QuestionRef, 0, len(l.TrueFalse)+len(l.Ordering)+1)
	for i := range l.TrueFalse {
		refs = append(refs, QuestionRef{Kind: KindTrueFalse, Index: i})
	}
	for i := range l.Ordering {
		refs = append(refs, QuestionRef{Kind: KindOrdering, Index: i})
	}
	refs = append(refs, QuestionRef{Kind: KindEssay})
	return refs
}

// NumQuestions returns the length of the flattened question sequence.
func (l *Lesson) NumQuestions() int {
	return len(l.TrueFalse) + len(l.Ordering) + 1
}

// Tags returns the lesson's statistical labels: era and theme tags plus
// each question's intention tag, deduplicated, empty strings dropped.
func (l *Lesson) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	add(l.EraTag)
	add(l.ThemeTag)
	for _, q := range l.TrueFalse {
		add(q.IntentionTag)
	}
	for _, q := range l.Ordering {
		add(q.IntentionTag)
	}
	return tags
}
