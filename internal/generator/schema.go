package generator

import "github.com/gpteach/gpteach/internal/llm"

// DocumentSchema defines the JSON schema for whole-plan generation.
var DocumentSchema = &llm.Schema{
	Name:        "document-fill",
	Description: "Content for every field of a lesson plan",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Creative, appropriate lesson title",
			},
			"fields": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"label": map[string]any{
							"type":        "string",
							"description": "Field label exactly as given",
						},
						"content": map[string]any{
							"type":        "string",
							"description": "Field content as simple HTML",
						},
					},
					"required":             []any{"label", "content"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"title", "fields"},
		"additionalProperties": false,
	},
}
