package content

import "github.com/santhosh-tekuri/jsonschema/v5"

// Schemas for the JSON-shaped sections. Repaired LLM output is validated
// before unmarshaling; payloads that do not conform fall back.

var contextSchema = jsonschema.MustCompileString("context.schema.json", `{
	"type": "object",
	"required": ["context"],
	"properties": {
		"context": {
			"type": "object",
			"required": [
				"whoIsSpeaking",
				"originalListeners",
				"whyTheConversation",
				"setting",
				"historicalBackdrop",
				"immediateImpact",
				"longTermImpact"
			],
			"properties": {
				"whoIsSpeaking":      {"type": "string", "minLength": 1},
				"originalListeners":  {"type": "string", "minLength": 1},
				"whyTheConversation": {"type": "string", "minLength": 1},
				"setting":            {"type": "string", "minLength": 1},
				"historicalBackdrop": {"type": "string", "minLength": 1},
				"immediateImpact":    {"type": "string", "minLength": 1},
				"longTermImpact":     {"type": "string", "minLength": 1}
			}
		},
		"contextImagePrompt": {"type": "string"}
	}
}`)

var imagerySchema = jsonschema.MustCompileString("imagery.schema.json", `{
	"type": "object",
	"required": ["imagery"],
	"properties": {
		"imagery": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["title", "sub", "imagePrompt"],
				"properties": {
					"title":       {"type": "string", "minLength": 1},
					"sub":         {"type": "string", "minLength": 1},
					"icon":        {"type": "string"},
					"imagePrompt": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`)
