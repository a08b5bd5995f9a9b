// Package seed loads course content from YAML files into the document store.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/vocab"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// MetaPath holds the version of the seeded catalog.
var MetaPath = docstore.Join(catalog.MetaCollection, "catalog")

// File is the on-disk catalog format.
type File struct {
	Version    string       `yaml:"version"`
	Skills     []SkillSpec  `yaml:"skills"`
	Vocabulary []vocab.Word `yaml:"vocabulary,omitempty"`
}

// SkillSpec describes a skill and its lessons.
type SkillSpec struct {
	ID      string       `yaml:"id"`
	Title   string       `yaml:"title"`
	Icon    string       `yaml:"icon,omitempty"`
	Lessons []LessonSpec `yaml:"lessons"`
}

// LessonSpec describes a lesson and its questions.
type LessonSpec struct {
	ID        string         `yaml:"id"`
	Title     string         `yaml:"title"`
	Type      string         `yaml:"type"`
	Questions []QuestionSpec `yaml:"questions"`
}

// QuestionSpec is the union of every question type's fields. Which ones are
// read depends on the lesson type.
type QuestionSpec struct {
	ID string `yaml:"id,omitempty"`

	Sentence string   `yaml:"sentence,omitempty"`
	Shuffled []string `yaml:"shuffled,omitempty"`
	TTSText  string   `yaml:"ttsText,omitempty"`

	AudioMode   string   `yaml:"audioMode,omitempty"`
	AudioURL    string   `yaml:"audioUrl,omitempty"`
	Options     []string `yaml:"options,omitempty"`
	AnswerIndex int      `yaml:"answerIndex,omitempty"`

	Prompt       string        `yaml:"prompt,omitempty"`
	ImageOptions []ImageOption `yaml:"images,omitempty"`

	Source   string   `yaml:"source,omitempty"`
	Accepted []string `yaml:"accepted,omitempty"`
}

// ImageOption is one labelled picture of an image-pick question.
type ImageOption struct {
	Label    string `yaml:"label"`
	ImageURL string `yaml:"imageUrl"`
}

// Load parses a catalog file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a catalog from r. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// ParseBytes decodes a catalog held in memory.
func ParseBytes(b []byte) (*File, error) {
	return Parse(bytes.NewReader(b))
}

func (f *File) validate() error {
	if !semver.IsValid(canonicalVersion(f.Version)) {
		return fmt.Errorf("seed file: invalid version %q", f.Version)
	}
	var errs []error
	skillIDs := make(map[string]bool)
	for _, s := range f.Skills {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("skill %q: missing id", s.Title))
			continue
		}
		if skillIDs[s.ID] {
			errs = append(errs, fmt.Errorf("skill %s: duplicate id", s.ID))
		}
		skillIDs[s.ID] = true

		lessonIDs := make(map[string]bool)
		for _, l := range s.Lessons {
			if l.ID == "" || lessonIDs[l.ID] {
				errs = append(errs, fmt.Errorf("skill %s: lesson %q: missing or duplicate id", s.ID, l.ID))
				continue
			}
			lessonIDs[l.ID] = true
			for _, q := range l.questions() {
				if err := q.Validate(); err != nil {
					errs = append(errs, fmt.Errorf("skill %s lesson %s: %w", s.ID, l.ID, err))
				}
			}
		}
	}
	for _, w := range f.Vocabulary {
		if w.ID == "" || w.Word == "" {
			errs = append(errs, fmt.Errorf("vocabulary entry %q: id and word are required", w.ID))
		}
	}
	return errors.Join(errs...)
}

// lessonType resolves the declared type of a lesson.
func (l LessonSpec) lessonType() catalog.LessonType {
	return catalog.ParseLessonType(l.Type)
}

// questions converts the lesson's question specs, numbering ids and order.
func (l LessonSpec) questions() []catalog.Question {
	t := l.lessonType()
	out := make([]catalog.Question, 0, len(l.Questions))
	for i, qs := range l.Questions {
		id := qs.ID
		if id == "" {
			id = fmt.Sprintf("q%02d", i+1)
		}
		q := qs.toQuestion(t, id)
		q.Order = i + 1
		out = append(out, q)
	}
	return out
}

func (qs QuestionSpec) toQuestion(t catalog.LessonType, id string) catalog.Question {
	switch t {
	case catalog.ListenChooseLesson:
		mode := catalog.AudioTTS
		if strings.EqualFold(qs.AudioMode, string(catalog.AudioURL)) {
			mode = catalog.AudioURL
		}
		return catalog.NewListenChoose(id, catalog.ListenChoose{
			AudioMode:   mode,
			AudioURL:    optional(qs.AudioURL),
			TTSText:     optional(qs.TTSText),
			Options:     qs.Options,
			AnswerIndex: qs.AnswerIndex,
		})
	case catalog.ImagePickLesson:
		opts := make([]catalog.ImageOption, len(qs.ImageOptions))
		for i, o := range qs.ImageOptions {
			opts[i] = catalog.ImageOption{Label: o.Label, ImageURL: o.ImageURL}
		}
		return catalog.NewImagePick(id, catalog.ImagePick{
			Prompt:      qs.Prompt,
			Options:     opts,
			AnswerIndex: qs.AnswerIndex,
		})
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		return catalog.NewTranslate(id, t, catalog.Translate{
			Source:   qs.Source,
			Accepted: qs.Accepted,
		})
	default:
		shuffled := qs.Shuffled
		if len(shuffled) == 0 {
			shuffled = Shuffle(qs.Sentence)
		}
		return catalog.NewWordOrder(id, catalog.WordOrder{
			Sentence: qs.Sentence,
			Shuffled: shuffled,
			TTSText:  optional(qs.TTSText),
		})
	}
}

// Shuffle splits sentence into tokens and permutes them deterministically,
// so reseeding the same file yields the same exercise.
func Shuffle(sentence string) []string {
	tokens := strings.Fields(sentence)
	h := fnv.New64a()
	h.Write([]byte(sentence))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	r.Shuffle(len(tokens), func(i, j int) { tokens[i], tokens[j] = tokens[j], tokens[i] })
	return tokens
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Writes returns every document write the catalog produces.
func (f *File) Writes() []docstore.Write {
	var writes []docstore.Write
	for si, s := range f.Skills {
		icon := s.Icon
		if icon == "" {
			icon = catalog.DefaultIcon
		}
		skill := catalog.Skill{ID: s.ID, Title: s.Title, Icon: icon, Order: si + 1}
		writes = append(writes, docstore.Merge(catalog.SkillPath(s.ID), skill.Fields()))

		for li, l := range s.Lessons {
			qs := l.questions()
			lesson := catalog.Lesson{
				ID:            l.ID,
				SkillID:       s.ID,
				Title:         l.Title,
				Type:          l.lessonType(),
				Order:         li + 1,
				QuestionCount: len(qs),
			}
			writes = append(writes, docstore.Merge(catalog.LessonPath(s.ID, l.ID), lesson.Fields()))
			for _, q := range qs {
				writes = append(writes, docstore.Merge(catalog.QuestionPath(s.ID, l.ID, q.ID), q.Fields()))
			}
		}
	}
	for _, w := range f.Vocabulary {
		writes = append(writes, docstore.Merge(vocab.WordPath(w.ID), w.Fields()))
	}
	return writes
}

// Result describes what Apply did.
type Result struct {
	Version       string
	StoredVersion string
	Skipped       bool
	Documents     int
}

// Apply replaces the stored catalog with f. It does nothing when the stored
// catalog version is the same or newer, unless force is set.
func Apply(ctx context.Context, store docstore.Store, f *File, force bool) (Result, error) {
	res := Result{Version: f.Version}

	stored, err := StoredVersion(ctx, store)
	if err != nil {
		return res, err
	}
	res.StoredVersion = stored
	if !force && stored != "" && semver.Compare(canonicalVersion(stored), canonicalVersion(f.Version)) >= 0 {
		res.Skipped = true
		return res, nil
	}

	if err := store.DeleteCollection(ctx, catalog.SkillsCollection); err != nil {
		return res, fmt.Errorf("clear skills: %w", err)
	}
	if len(f.Vocabulary) > 0 {
		if err := store.DeleteCollection(ctx, "vocabulary"); err != nil {
			return res, fmt.Errorf("clear vocabulary: %w", err)
		}
	}

	writes := f.Writes()
	writes = append(writes, docstore.Merge(MetaPath, map[string]any{
		"version":  f.Version,
		"seededAt": time.Now().UTC().Format(time.RFC3339),
	}))
	if err := store.Batch(ctx, writes); err != nil {
		return res, fmt.Errorf("write catalog: %w", err)
	}
	res.Documents = len(writes) - 1
	return res, nil
}

// StoredVersion returns the version of the seeded catalog, "" when none.
func StoredVersion(ctx context.Context, store docstore.Store) (string, error) {
	d, err := store.Get(ctx, MetaPath)
	if errors.Is(err, docstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read catalog version: %w", err)
	}
	return docstore.String(d.Fields, "version", ""), nil
}

func canonicalVersion(v string) string {
	if v != "" && !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
