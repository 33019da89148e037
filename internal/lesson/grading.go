package lesson

import "fmt"

// GradingResult is the parsed essay assessment.
type GradingResult struct {
	Score             int      `json:"score"`
	Correction        string   `json:"correction"`
	OverallComment    string   `json:"overall_comment"`
	Tags              []string `json:"tags"`
	RecommendedAction string   `json:"recommended_action"`
}

// ParseGrading converts a gateway response object into a GradingResult.
// Unlike lesson normalization, grading is not repaired: a response
// missing its score is a grading failure the caller surfaces.
func ParseGrading(obj map[string]any) (*GradingResult, error) {
	score, ok := toInt(obj["score"])
	if !ok {
		return nil, fmt.Errorf("grading response has no numeric score")
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	r := &GradingResult{
		Score:             score,
		Correction:        firstString(obj, []string{"correction", "corrected_answer"}),
		OverallComment:    firstString(obj, []string{"overall_comment", "comment", "feedback"}),
		Tags:              toStringList(obj["tags"]),
		RecommendedAction: firstString(obj, []string{"recommended_action", "next_step"}),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}
