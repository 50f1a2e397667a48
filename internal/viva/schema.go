package viva

import "github.com/sapiocode/sapio/internal/llm"

// JudgementSchema constrains the judge's response.
var JudgementSchema = &llm.Schema{
	Name:        "viva-judgement",
	Description: "Assessment of a student's spoken explanation of their own code",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "How well the explanation matches what the code actually does (0.0-1.0)",
			},
			"matched_concepts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concepts the student explained correctly",
			},
			"missing_concepts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Concepts the student missed or got wrong",
			},
			"understanding_level": map[string]any{
				"type": "string",
				"enum": []any{"strong", "adequate", "weak", "none"},
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Brief constructive feedback for the student",
			},
			"red_flags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Signs the student did not write this code",
			},
		},
		"required": []any{
			"score", "matched_concepts", "missing_concepts",
			"understanding_level", "feedback", "red_flags",
		},
		"additionalProperties": false,
	},
}
