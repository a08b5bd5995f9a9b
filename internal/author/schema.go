package author

import (
	"maps"
	"slices"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/llm"
)

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func object(props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             slices.Sorted(maps.Keys(props)),
		"additionalProperties": false,
	}
}

func batchOf(name, desc string, item map[string]any) *llm.Schema {
	return &llm.Schema{
		Name:        name,
		Description: desc,
		Definition: object(map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"items":    item,
				"minItems": 1,
			},
		}),
	}
}

var wordOrderSchema = batchOf("word-order-questions",
	"Sentences the learner rebuilds from shuffled words",
	object(map[string]any{
		"sentence": str("The target sentence, words separated by single spaces"),
		"tokens": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Every word of the sentence exactly once, in a scrambled order",
		},
		"ttsText": str("Text to read aloud, usually the sentence itself"),
	}))

var listenChooseSchema = batchOf("listen-choose-questions",
	"A phrase is read aloud and the learner picks the matching option",
	object(map[string]any{
		"ttsText": str("The phrase read aloud"),
		"options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"minItems":    2,
			"description": "3 or 4 distinct written options, one matching the phrase",
		},
		"answerIndex": map[string]any{
			"type":        "integer",
			"minimum":     0,
			"description": "Zero-based index of the matching option",
		},
	}))

var imagePickSchema = batchOf("image-pick-questions",
	"The learner picks the picture that matches a word",
	object(map[string]any{
		"prompt": str("The word or phrase to match, in the target language"),
		"options": map[string]any{
			"type": "array",
			"items": object(map[string]any{
				"label":    str("Short caption of the picture, in the learner's language"),
				"imageUrl": str("URL of a representative picture, empty when unknown"),
			}),
			"minItems": 2,
		},
		"answerIndex": map[string]any{
			"type":    "integer",
			"minimum": 0,
		},
	}))

var translateSchema = batchOf("translate-questions",
	"The learner types a translation of a short sentence",
	object(map[string]any{
		"source": str("The sentence to translate, in the language the exercise translates from"),
		"accepted": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"minItems":    1,
			"description": "Every natural correct translation, the most common first",
		},
	}))

// SchemaFor returns the response schema for a lesson type.
func SchemaFor(t catalog.LessonType) *llm.Schema {
	switch t {
	case catalog.ListenChooseLesson:
		return listenChooseSchema
	case catalog.ImagePickLesson:
		return imagePickSchema
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		return translateSchema
	default:
		return wordOrderSchema
	}
}
