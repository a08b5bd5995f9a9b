package progression

import (
	"strings"

	"github.com/dex/lingbook/internal/catalog"
)

// Response is a learner's answer. Tokens is read for word-order questions,
// Option for the choice questions and Text for translations.
type Response struct {
	Tokens []string
	Option int
	Text   string
}

// Grade reports whether r answers q.
func Grade(q catalog.Question, r Response) bool {
	switch q.Type {
	case catalog.WordOrderLesson:
		if q.WordOrder == nil {
			return false
		}
		return GradeWordOrder(q.WordOrder.Sentence, r.Tokens)
	case catalog.ListenChooseLesson:
		if q.ListenChoose == nil {
			return false
		}
		return r.Option == q.ListenChoose.AnswerIndex
	case catalog.ImagePickLesson:
		if q.ImagePick == nil {
			return false
		}
		return r.Option == q.ImagePick.AnswerIndex
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		if q.Translate == nil {
			return false
		}
		return GradeTranslation(r.Text, q.Translate.Accepted)
	default:
		return false
	}
}

// GradeWordOrder compares the assembled tokens with the sentence: joined by
// single spaces, trimmed, and matched exactly.
func GradeWordOrder(sentence string, tokens []string) bool {
	return strings.TrimSpace(strings.Join(tokens, " ")) == strings.TrimSpace(sentence)
}

// GradeTranslation matches a typed answer against the accepted translations,
// ignoring case and runs of whitespace. A blank answer is never correct.
func GradeTranslation(answer string, accepted []string) bool {
	a := squash(answer)
	if a == "" {
		return false
	}
	for _, acc := range accepted {
		if strings.EqualFold(a, squash(acc)) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
