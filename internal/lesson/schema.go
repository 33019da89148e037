package lesson

import "github.com/plara718/rekishi/internal/llm"

// GradingSchema defines the JSON schema for essay grading responses.
// Grading goes through strict structured output; a response that fails
// this schema is a grading failure, not something to repair.
var GradingSchema = &llm.Schema{
	Name:        "essay-grading",
	Description: "Assessment of a learner's essay answer against the model answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"description": "Score from 0 to 100",
			},
			"correction": map[string]any{
				"type":        "string",
				"description": "Corrected version of the learner's answer",
			},
			"overall_comment": map[string]any{
				"type":        "string",
				"description": "Encouraging overall feedback (2-3 sentences)",
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Mistake-category tag IDs observed in the answer",
			},
			"recommended_action": map[string]any{
				"type":        "string",
				"description": "One concrete next step for the learner",
			},
		},
		"required":             []any{"score", "correction", "overall_comment", "tags", "recommended_action"},
		"additionalProperties": false,
	},
}
