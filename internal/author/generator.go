// Package author generates lesson questions with an LLM and publishes them
// into the catalog.
package author

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/llm"
	"github.com/dex/lingbook/internal/seed"
)

// ErrNothingGenerated means every generated item was rejected.
var ErrNothingGenerated = errors.New("no usable questions generated")

// Config controls generation.
type Config struct {
	TargetLanguage  string
	LearnerLanguage string

	MaxTokens   int
	Temperature float64

	// MaxAvoid caps how many existing questions are listed in the prompt.
	MaxAvoid int
}

func DefaultConfig() Config {
	return Config{
		TargetLanguage:  "English",
		LearnerLanguage: "English",
		MaxTokens:       2048,
		Temperature:     0.7,
		MaxAvoid:        20,
	}
}

// Rejection is a generated item that failed validation.
type Rejection struct {
	Index int
	Err   error
}

// Batch is the outcome of one Generate call. Question ids are empty until
// Publish assigns them.
type Batch struct {
	Questions []catalog.Question
	Rejected  []Rejection
}

// Generator produces questions for a lesson.
type Generator struct {
	provider llm.Provider
	config   Config
}

func NewGenerator(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

type rawItem struct {
	Sentence string   `json:"sentence"`
	Tokens   []string `json:"tokens"`

	TTSText     string `json:"ttsText"`
	AnswerIndex int    `json:"answerIndex"`
	Prompt      string `json:"prompt"`

	Source   string   `json:"source"`
	Accepted []string `json:"accepted"`

	// strings for listen-choose, objects for image-pick
	RawOptions json.RawMessage `json:"options"`
}

// Generate asks for n questions of the lesson's type. Items that would be
// unanswerable, or that repeat one of avoid, are returned as rejections.
func (g *Generator) Generate(ctx context.Context, skill catalog.Skill, lesson catalog.Lesson, n int, avoid ...string) (*Batch, error) {
	if n < 1 {
		return nil, fmt.Errorf("question count must be positive, got %d", n)
	}
	ctx = llm.WithPurpose(ctx, "lesson-author")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(g.config, skill, lesson, n, avoid)),
		Schema:      SchemaFor(lesson.Type),
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions for %s/%s: %w", skill.ID, lesson.ID, err)
	}

	var out struct {
		Questions []rawItem `json:"questions"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w", err)
	}

	seen := make(map[string]bool, len(avoid))
	for _, a := range avoid {
		seen[normalize(a)] = true
	}

	batch := &Batch{}
	for i, item := range out.Questions {
		if len(batch.Questions) == n {
			break
		}
		q, err := item.toQuestion(lesson.Type)
		if err == nil {
			err = checkQuestion(q)
		}
		if err == nil {
			key := normalize(Describe(q))
			if seen[key] {
				err = fmt.Errorf("duplicate of an existing question: %q", Describe(q))
			}
			seen[key] = true
		}
		if err != nil {
			batch.Rejected = append(batch.Rejected, Rejection{Index: i, Err: err})
			continue
		}
		batch.Questions = append(batch.Questions, q)
	}
	if len(batch.Questions) == 0 {
		return batch, ErrNothingGenerated
	}
	return batch, nil
}

func (r rawItem) toQuestion(t catalog.LessonType) (catalog.Question, error) {
	switch t {
	case catalog.ListenChooseLesson:
		var opts []string
		if err := json.Unmarshal(r.RawOptions, &opts); err != nil {
			return catalog.Question{}, fmt.Errorf("options: %w", err)
		}
		return catalog.NewListenChoose("", catalog.ListenChoose{
			AudioMode:   catalog.AudioTTS,
			TTSText:     optional(r.TTSText),
			Options:     trimAll(opts),
			AnswerIndex: r.AnswerIndex,
		}), nil
	case catalog.ImagePickLesson:
		var raw []struct {
			Label    string `json:"label"`
			ImageURL string `json:"imageUrl"`
		}
		if err := json.Unmarshal(r.RawOptions, &raw); err != nil {
			return catalog.Question{}, fmt.Errorf("options: %w", err)
		}
		opts := make([]catalog.ImageOption, len(raw))
		for i, o := range raw {
			opts[i] = catalog.ImageOption{Label: strings.TrimSpace(o.Label), ImageURL: strings.TrimSpace(o.ImageURL)}
		}
		return catalog.NewImagePick("", catalog.ImagePick{
			Prompt:      strings.TrimSpace(r.Prompt),
			Options:     opts,
			AnswerIndex: r.AnswerIndex,
		}), nil
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		var accepted []string
		for _, a := range trimAll(r.Accepted) {
			if a != "" && !slices.ContainsFunc(accepted, func(b string) bool { return normalize(a) == normalize(b) }) {
				accepted = append(accepted, a)
			}
		}
		return catalog.NewTranslate("", t, catalog.Translate{
			Source:   strings.Join(strings.Fields(r.Source), " "),
			Accepted: accepted,
		}), nil
	default:
		sentence := strings.Join(strings.Fields(r.Sentence), " ")
		tokens := trimAll(r.Tokens)
		// A model sometimes returns the tokens unscrambled.
		if len(tokens) > 1 && strings.Join(tokens, " ") == sentence {
			tokens = seed.Shuffle(sentence)
		}
		return catalog.NewWordOrder("", catalog.WordOrder{
			Sentence: sentence,
			Shuffled: tokens,
			TTSText:  optional(r.TTSText),
		}), nil
	}
}

// checkQuestion applies the catalog's structural checks plus the ones that
// only matter for generated content.
func checkQuestion(q catalog.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	switch {
	case q.ListenChoose != nil:
		if q.ListenChoose.SpokenText() == "" {
			return errors.New("nothing to read aloud")
		}
		return distinct(q.ListenChoose.Options)
	case q.ImagePick != nil:
		if q.ImagePick.Prompt == "" {
			return errors.New("empty prompt")
		}
		labels := make([]string, len(q.ImagePick.Options))
		for i, o := range q.ImagePick.Options {
			labels[i] = o.Label
		}
		return distinct(labels)
	}
	return nil
}

func distinct(options []string) error {
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		k := normalize(o)
		if k == "" {
			return errors.New("empty option")
		}
		if seen[k] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[k] = true
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func trimAll(ss []string) []string {
	out := slices.Clone(ss)
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
