package review

import (
	"fmt"
	"math/rand/v2"
)

// Weights parameterizes the priority scoring. DefaultWeights matches
// the tuning the engine ships with.
type Weights struct {
	// ErrorRate scales the tag's error rate contribution.
	ErrorRate float64
	// RecentMiss is added when the tag appears in a recent session.
	RecentMiss float64
	// LongAbsence is added when an error-prone tag has dropped out of
	// the history window entirely.
	LongAbsence float64
	// MinAttempts is the qualification threshold; tags with fewer
	// attempts are not scored.
	MinAttempts int
	// RecentWindow is how many of the latest sessions count as recent.
	RecentWindow int
	// HistoryWindow is how many sessions back the absence check looks.
	HistoryWindow int
	// AbsenceRateFloor is the minimum error rate for the long-absence
	// bonus to apply.
	AbsenceRateFloor float64
}

// DefaultWeights returns the standard scoring parameters.
func DefaultWeights() Weights {
	return Weights{
		ErrorRate:        50,
		RecentMiss:       40,
		LongAbsence:      30,
		MinAttempts:      3,
		RecentWindow:     3,
		HistoryWindow:    10,
		AbsenceRateFloor: 0.3,
	}
}

// TagStat holds the persisted attempt counters for one tag.
type TagStat struct {
	Attempts int `json:"attempts"`
	Errors   int `json:"errors"`
}

// Stats is the aggregated weakness summary, per category.
type Stats struct {
	Eras     map[string]TagStat `json:"eras"`
	Themes   map[string]TagStat `json:"themes"`
	Mistakes map[string]TagStat `json:"mistakes"`
}

// SessionRecord is one past session as the recommender sees it: which
// tags it touched. Records are ordered most-recent-first.
type SessionRecord struct {
	Date string
	Slot int
	Tags []string
}

// TagScore is the per-tag scoring result, recomputed on every
// recommendation request.
type TagScore struct {
	TagID      string
	Category   Category
	Attempts   int
	Errors     int
	ErrorRate  float64
	Score      float64
	RecentMiss bool
	LongAbsent bool
}

// Choice is one selected tag with how it was chosen.
type Choice struct {
	TagID  string
	Label  string
	Score  float64
	Random bool
}

// Strategy is the recommendation: one focus per category plus a
// human-readable justification.
type Strategy struct {
	Era           Choice
	Theme         Choice
	Mistake       Choice
	Justification string
	Fallback      bool
}

// Engine scores weakness statistics and recommends the next review
// focus.
type Engine struct {
	weights Weights
	rng     *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the scoring parameters.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithRand sets the random source used for catalog substitution.
// Useful in tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine returns a recommendation engine with default weights.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fallbackStrategy is returned when there is nothing to score at all.
func fallbackStrategy() Strategy {
	return Strategy{
		Era:           Choice{TagID: "era-azuchi-edo", Label: registry["era-azuchi-edo"].Label},
		Theme:         Choice{TagID: "theme-politics", Label: registry["theme-politics"].Label},
		Mistake:       Choice{TagID: "mistake-knowledge-gap", Label: registry["mistake-knowledge-gap"].Label},
		Justification: "Not enough history to analyze yet. Starting with a baseline topic: Edo-period politics.",
		Fallback:      true,
	}
}

// Recommend scores the aggregated stats against recent session history
// and picks the highest-priority tag per category. history must be
// ordered most-recent-first.
func (e *Engine) Recommend(stats Stats, history []SessionRecord) Strategy {
	if emptyStats(stats) && len(history) == 0 {
		return fallbackStrategy()
	}

	recent := tagSet(history, e.weights.RecentWindow)
	seen := tagSet(history, e.weights.HistoryWindow)

	scores := map[Category][]TagScore{}
	for cat, m := range map[Category]map[string]TagStat{
		CategoryEra:     stats.Eras,
		CategoryTheme:   stats.Themes,
		CategoryMistake: stats.Mistakes,
	} {
		for id, st := range m {
			if st.Attempts < e.weights.MinAttempts {
				continue
			}
			s := e.scoreTag(id, cat, st, recent, seen)
			scores[cat] = append(scores[cat], s)
		}
	}

	strategy := Strategy{
		Era:     e.pick(scores[CategoryEra], CategoryEra),
		Theme:   e.pick(scores[CategoryTheme], CategoryTheme),
		Mistake: e.pick(scores[CategoryMistake], CategoryMistake),
	}
	strategy.Justification = e.justify(scores, strategy)
	return strategy
}

func (e *Engine) scoreTag(id string, cat Category, st TagStat, recent, seen map[string]bool) TagScore {
	rate := float64(st.Errors) / float64(st.Attempts)
	s := TagScore{
		TagID:     id,
		Category:  cat,
		Attempts:  st.Attempts,
		Errors:    st.Errors,
		ErrorRate: rate,
	}
	s.Score = rate * e.weights.ErrorRate
	if recent[id] {
		s.RecentMiss = true
		s.Score += e.weights.RecentMiss
	}
	if !seen[id] && rate > e.weights.AbsenceRateFloor {
		s.LongAbsent = true
		s.Score += e.weights.LongAbsence
	}
	return s
}

// pick selects the highest-scoring tag in a category, substituting a
// uniformly random catalog tag when nothing qualified.
func (e *Engine) pick(scored []TagScore, cat Category) Choice {
	if len(scored) == 0 {
		catalog := byCategory[cat]
		var idx int
		if e.rng != nil {
			idx = e.rng.IntN(len(catalog))
		} else {
			idx = rand.IntN(len(catalog))
		}
		t := catalog[idx]
		return Choice{TagID: t.ID, Label: t.Label, Random: true}
	}

	best := scored[0]
	for _, s := range scored[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	c := Choice{TagID: best.TagID, Score: best.Score}
	if t := GetTag(best.TagID); t != nil {
		c.Label = t.Label
	} else {
		c.Label = best.TagID
	}
	return c
}

// justify produces the natural-language rationale, distinguishing a hot
// recent miss from material sliding off the forgetting curve.
func (e *Engine) justify(scores map[Category][]TagScore, st Strategy) string {
	find := func(cat Category, id string) *TagScore {
		for i := range scores[cat] {
			if scores[cat][i].TagID == id {
				return &scores[cat][i]
			}
		}
		return nil
	}

	if s := find(CategoryMistake, st.Mistake.TagID); s != nil && s.RecentMiss {
		return fmt.Sprintf("You missed %s questions in a recent session (error rate %.0f%%). Tackling %s in the %s era while it is fresh.",
			st.Mistake.Label, s.ErrorRate*100, st.Theme.Label, st.Era.Label)
	}
	if s := find(CategoryEra, st.Era.TagID); s != nil && s.LongAbsent {
		return fmt.Sprintf("It has been a while since you studied the %s era and your error rate there was %.0f%%. Revisiting it before it fades, with a focus on %s.",
			st.Era.Label, s.ErrorRate*100, st.Theme.Label)
	}
	if s := find(CategoryEra, st.Era.TagID); s != nil && s.RecentMiss {
		return fmt.Sprintf("The %s era came up recently with an error rate of %.0f%%. Reviewing it now, centered on %s.",
			st.Era.Label, s.ErrorRate*100, st.Theme.Label)
	}
	return fmt.Sprintf("Based on your overall accuracy, %s in the %s era is your weakest combination. Watch out for %s.",
		st.Theme.Label, st.Era.Label, st.Mistake.Label)
}

func emptyStats(s Stats) bool {
	return len(s.Eras) == 0 && len(s.Themes) == 0 && len(s.Mistakes) == 0
}

// tagSet collects every tag across the first n history records.
func tagSet(history []SessionRecord, n int) map[string]bool {
	set := make(map[string]bool)
	for i, rec := range history {
		if i >= n {
			break
		}
		for _, tag := range rec.Tags {
			set[tag] = true
		}
	}
	return set
}
