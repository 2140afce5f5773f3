package extract

import (
	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

// JSON schemas for the structured response formats. They mirror the result
// structs; validation beyond shape (vocabulary, confidence bounds) happens
// in domain.ValidateEstimates after decoding.

func breedListSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"breed":      map[string]any{"type": "string", "enum": domain.BreedSlugs()},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
			"required": []string{"breed", "confidence"},
		},
	}
}

func sizeSchema() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": false,
		"properties": map[string]any{
			"category":   map[string]any{"type": "string", "enum": []string{"small", "medium", "large"}},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"category", "confidence"},
	}
}

func ageSchema() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": false,
		"properties": map[string]any{
			"months":     map[string]any{"type": "integer", "minimum": 0},
			"min_months": map[string]any{"type": "integer", "minimum": 0},
			"max_months": map[string]any{"type": "integer", "minimum": 0},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"months", "min_months", "max_months", "confidence"},
	}
}

func weightSchema() map[string]any {
	return map[string]any{
		"type":                 []string{"object", "null"},
		"additionalProperties": false,
		"properties": map[string]any{
			"kg":         map[string]any{"type": "number", "minimum": 0},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"kg", "confidence"},
	}
}

func nullableBool() map[string]any {
	return map[string]any{"type": []string{"boolean", "null"}}
}

var textExtractionSchema = openai.Schema{
	Name: "dog_text_extraction",
	Schema: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"breeds":      breedListSchema(),
			"size":        sizeSchema(),
			"age":         ageSchema(),
			"weight":      weightSchema(),
			"personality": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"health": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"vaccinated":     nullableBool(),
					"sterilized":     nullableBool(),
					"chipped":        nullableBool(),
					"special_needs":  nullableBool(),
					"good_with_kids": nullableBool(),
					"good_with_dogs": nullableBool(),
					"good_with_cats": nullableBool(),
				},
				"required": []string{"vaccinated", "sterilized", "chipped", "special_needs", "good_with_kids", "good_with_dogs", "good_with_cats"},
			},
		},
		"required": []string{"breeds", "size", "age", "weight", "personality", "health"},
	},
}

var photoExtractionSchema = openai.Schema{
	Name: "dog_photo_extraction",
	Schema: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"breeds": breedListSchema(),
			"size":   sizeSchema(),
			"age":    ageSchema(),
			"weight": weightSchema(),
		},
		"required": []string{"breeds", "size", "age", "weight"},
	},
}

var bioSchema = openai.Schema{
	Name: "dog_bio",
	Schema: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"bio":  map[string]any{"type": "string"},
			"tone": map[string]any{"type": "string", "enum": []string{"hopeful", "urgent", "gentle"}},
		},
		"required": []string{"bio", "tone"},
	},
}
