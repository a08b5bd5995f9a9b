// Package catalog defines the shared, read-only course content (skills,
// lessons and questions) and its document encoding.
package catalog

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dex/lingbook/internal/docstore"
)

// DefaultIcon is shown for skills without an icon.
const DefaultIcon = "🐣"

// DefaultOrder places skills and lessons without an explicit order last.
const DefaultOrder = math.MaxInt

// LessonType identifies the exercise kind of every question in a lesson.
type LessonType string

const (
	WordOrderLesson    LessonType = "WORD_ORDER"
	ListenChooseLesson LessonType = "LISTEN_CHOOSE"
	ImagePickLesson    LessonType = "IMAGE_PICK"

	// Free-text translation, named after the direction.
	TranslateViEnLesson LessonType = "TRANSLATE_VI_EN"
	TranslateEnViLesson LessonType = "TRANSLATE_EN_VI"
)

// LessonTypes lists every lesson type in display order.
var LessonTypes = []LessonType{
	WordOrderLesson, ListenChooseLesson, ImagePickLesson, TranslateViEnLesson, TranslateEnViLesson,
}

// ParseLessonType maps a stored type name to a LessonType. Matching is
// case-insensitive and anything unknown falls back to WordOrderLesson.
func ParseLessonType(s string) LessonType {
	switch LessonType(strings.ToUpper(strings.TrimSpace(s))) {
	case ListenChooseLesson:
		return ListenChooseLesson
	case ImagePickLesson:
		return ImagePickLesson
	case TranslateViEnLesson:
		return TranslateViEnLesson
	case TranslateEnViLesson:
		return TranslateEnViLesson
	default:
		return WordOrderLesson
	}
}

// IsTranslate reports whether t is one of the translation directions.
func (t LessonType) IsTranslate() bool {
	return t == TranslateViEnLesson || t == TranslateEnViLesson
}

// Label returns a human-readable name for the lesson type.
func (t LessonType) Label() string {
	switch t {
	case ListenChooseLesson:
		return "Listen & choose"
	case ImagePickLesson:
		return "Image pick"
	case TranslateViEnLesson:
		return "Translate to English"
	case TranslateEnViLesson:
		return "Translate to Vietnamese"
	default:
		return "Word order"
	}
}

// AudioMode selects how a ListenChoose prompt is voiced.
type AudioMode string

const (
	AudioTTS AudioMode = "TTS"
	AudioURL AudioMode = "URL"
)

// Skill is a catalog topic. Per-user unlock state lives in the learn package.
type Skill struct {
	ID    string
	Title string
	Icon  string
	Order int
}

// Lesson is an ordered sequence of questions of one type within a skill.
type Lesson struct {
	ID            string
	SkillID       string
	Title         string
	Type          LessonType
	Order         int
	QuestionCount int
}

// WordOrder asks the learner to assemble Sentence from the Shuffled tokens.
type WordOrder struct {
	Sentence string
	Shuffled []string
	TTSText  *string
}

// ListenChoose plays audio and asks for the matching option.
type ListenChoose struct {
	AudioMode   AudioMode
	AudioURL    *string
	TTSText     *string
	Options     []string
	AnswerIndex int
}

// SpokenText returns what should be voiced for the question: the TTS text,
// or the correct option when none is stored.
func (q *ListenChoose) SpokenText() string {
	if q.TTSText != nil && *q.TTSText != "" {
		return *q.TTSText
	}
	if q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options) {
		return q.Options[q.AnswerIndex]
	}
	return ""
}

// ImageOption is one labelled picture of an ImagePick question.
type ImageOption struct {
	Label    string
	ImageURL string
}

// ImagePick asks the learner to pick the picture matching Prompt.
type ImagePick struct {
	Prompt      string
	Options     []ImageOption
	AnswerIndex int
}

// Translate asks for a typed translation of Source. Any of Accepted is a
// correct answer.
type Translate struct {
	Source   string
	Accepted []string
}

// Question is a tagged union: exactly the member matching Type is non-nil.
type Question struct {
	ID    string
	Order int
	Type  LessonType

	WordOrder    *WordOrder
	ListenChoose *ListenChoose
	ImagePick    *ImagePick
	Translate    *Translate
}

// NewWordOrder builds a WordOrder question.
func NewWordOrder(id string, q WordOrder) Question {
	return Question{ID: id, Type: WordOrderLesson, WordOrder: &q}
}

// NewListenChoose builds a ListenChoose question.
func NewListenChoose(id string, q ListenChoose) Question {
	return Question{ID: id, Type: ListenChooseLesson, ListenChoose: &q}
}

// NewImagePick builds an ImagePick question.
func NewImagePick(id string, q ImagePick) Question {
	return Question{ID: id, Type: ImagePickLesson, ImagePick: &q}
}

// NewTranslate builds a translation question; t picks the direction.
func NewTranslate(id string, t LessonType, q Translate) Question {
	return Question{ID: id, Type: t, Translate: &q}
}

// OptionCount returns the number of selectable options, 0 for WordOrder and
// Translate.
func (q Question) OptionCount() int {
	switch {
	case q.ListenChoose != nil:
		return len(q.ListenChoose.Options)
	case q.ImagePick != nil:
		return len(q.ImagePick.Options)
	}
	return 0
}

// Validate reports structural problems that would make a question
// unanswerable. Decoded content is never validated; authored content is.
func (q Question) Validate() error {
	switch q.Type {
	case WordOrderLesson:
		if q.WordOrder == nil {
			return fmt.Errorf("question %s: missing word order body", q.ID)
		}
		if strings.TrimSpace(q.WordOrder.Sentence) == "" {
			return fmt.Errorf("question %s: empty sentence", q.ID)
		}
		if !samePermutation(strings.Fields(q.WordOrder.Sentence), q.WordOrder.Shuffled) {
			return fmt.Errorf("question %s: shuffled tokens are not a permutation of the sentence", q.ID)
		}
	case ListenChooseLesson:
		lc := q.ListenChoose
		if lc == nil {
			return fmt.Errorf("question %s: missing listen-choose body", q.ID)
		}
		if len(lc.Options) < 2 {
			return fmt.Errorf("question %s: need at least 2 options", q.ID)
		}
		if lc.AnswerIndex < 0 || lc.AnswerIndex >= len(lc.Options) {
			return fmt.Errorf("question %s: answer index %d out of range", q.ID, lc.AnswerIndex)
		}
		if lc.AudioMode == AudioURL && (lc.AudioURL == nil || *lc.AudioURL == "") {
			return fmt.Errorf("question %s: URL audio without url", q.ID)
		}
	case ImagePickLesson:
		ip := q.ImagePick
		if ip == nil {
			return fmt.Errorf("question %s: missing image-pick body", q.ID)
		}
		if len(ip.Options) < 2 {
			return fmt.Errorf("question %s: need at least 2 options", q.ID)
		}
		if ip.AnswerIndex < 0 || ip.AnswerIndex >= len(ip.Options) {
			return fmt.Errorf("question %s: answer index %d out of range", q.ID, ip.AnswerIndex)
		}
	case TranslateViEnLesson, TranslateEnViLesson:
		tr := q.Translate
		if tr == nil {
			return fmt.Errorf("question %s: missing translate body", q.ID)
		}
		if strings.TrimSpace(tr.Source) == "" {
			return fmt.Errorf("question %s: empty source sentence", q.ID)
		}
		if !slices.ContainsFunc(tr.Accepted, func(a string) bool { return strings.TrimSpace(a) != "" }) {
			return fmt.Errorf("question %s: no accepted translation", q.ID)
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
		if counts[s] < 0 {
			return false
		}
	}
	return true
}

// Document paths.

const (
	SkillsCollection = "skills"
	MetaCollection   = "meta"
)

// SkillPath returns the path of a skill document.
func SkillPath(skillID string) string {
	return docstore.Join(SkillsCollection, skillID)
}

// LessonsCollection returns the lessons collection of a skill.
func LessonsCollection(skillID string) string {
	return docstore.Join(SkillsCollection, skillID, "lessons")
}

// LessonPath returns the path of a lesson document.
func LessonPath(skillID, lessonID string) string {
	return docstore.Join(LessonsCollection(skillID), lessonID)
}

// QuestionsCollection returns the questions collection of a lesson.
func QuestionsCollection(skillID, lessonID string) string {
	return docstore.Join(LessonPath(skillID, lessonID), "questions")
}

// QuestionPath returns the path of a question document.
func QuestionPath(skillID, lessonID, questionID string) string {
	return docstore.Join(QuestionsCollection(skillID, lessonID), questionID)
}
