package catalog

import (
	"github.com/dex/lingbook/internal/docstore"
)

// DecodeSkill reads a skill document. Missing fields take their defaults.
func DecodeSkill(d docstore.Doc) Skill {
	return Skill{
		ID:    d.ID,
		Title: docstore.String(d.Fields, "title", ""),
		Icon:  docstore.String(d.Fields, "icon", DefaultIcon),
		Order: docstore.Int(d.Fields, "order", DefaultOrder),
	}
}

// Fields encodes the skill document.
func (s Skill) Fields() map[string]any {
	m := map[string]any{
		"title": s.Title,
		"icon":  s.Icon,
	}
	if s.Order != DefaultOrder {
		m["order"] = s.Order
	}
	return m
}

// DecodeLesson reads a lesson document of the given skill.
func DecodeLesson(skillID string, d docstore.Doc) Lesson {
	return Lesson{
		ID:            d.ID,
		SkillID:       skillID,
		Title:         docstore.String(d.Fields, "title", ""),
		Type:          ParseLessonType(docstore.String(d.Fields, "type", string(WordOrderLesson))),
		Order:         docstore.Int(d.Fields, "order", DefaultOrder),
		QuestionCount: docstore.Int(d.Fields, "questionCount", 0),
	}
}

// Fields encodes the lesson document.
func (l Lesson) Fields() map[string]any {
	m := map[string]any{
		"title":         l.Title,
		"type":          string(l.Type),
		"questionCount": l.QuestionCount,
	}
	if l.Order != DefaultOrder {
		m["order"] = l.Order
	}
	return m
}

// DecodeQuestion reads a question document according to the lesson type.
// Decoding never fails: malformed fields become zero values.
func DecodeQuestion(t LessonType, d docstore.Doc) Question {
	f := d.Fields
	q := Question{ID: d.ID, Type: t, Order: docstore.Int(f, "order", DefaultOrder)}

	switch t {
	case ListenChooseLesson:
		mode := AudioTTS
		if docstore.String(f, "audioMode", string(AudioTTS)) == string(AudioURL) {
			mode = AudioURL
		}
		q.ListenChoose = &ListenChoose{
			AudioMode:   mode,
			AudioURL:    docstore.OptString(f, "audioUrl"),
			TTSText:     docstore.OptString(f, "ttsText"),
			Options:     docstore.Strings(f, "options"),
			AnswerIndex: docstore.Int(f, "answerIndex", 0),
		}
	case ImagePickLesson:
		var opts []ImageOption
		for _, m := range docstore.Maps(f, "options") {
			opts = append(opts, ImageOption{
				Label:    docstore.String(m, "label", ""),
				ImageURL: docstore.String(m, "imageUrl", ""),
			})
		}
		if opts == nil {
			opts = []ImageOption{}
		}
		q.ImagePick = &ImagePick{
			Prompt:      docstore.String(f, "prompt", ""),
			Options:     opts,
			AnswerIndex: docstore.Int(f, "answerIndex", 0),
		}
	case TranslateViEnLesson:
		q.Translate = &Translate{
			Source:   docstore.String(f, "vi_sentence", ""),
			Accepted: docstore.StringList(f, "en_sentence"),
		}
	case TranslateEnViLesson:
		// en_sentence may list several renderings; the first is shown.
		var source string
		if src := docstore.StringList(f, "en_sentence"); len(src) > 0 {
			source = src[0]
		}
		q.Translate = &Translate{
			Source:   source,
			Accepted: docstore.StringList(f, "vi_sentence"),
		}
	default:
		q.Type = WordOrderLesson
		q.WordOrder = &WordOrder{
			Sentence: docstore.String(f, "sentence", ""),
			Shuffled: docstore.Strings(f, "shuffled"),
			TTSText:  docstore.OptString(f, "ttsText"),
		}
	}
	return q
}

// Fields encodes the question document.
func (q Question) Fields() map[string]any {
	m := map[string]any{}
	if q.Order != DefaultOrder {
		m["order"] = q.Order
	}

	switch q.Type {
	case WordOrderLesson:
		m["sentence"] = q.WordOrder.Sentence
		m["shuffled"] = toAny(q.WordOrder.Shuffled)
		if q.WordOrder.TTSText != nil {
			m["ttsText"] = *q.WordOrder.TTSText
		}
	case ListenChooseLesson:
		lc := q.ListenChoose
		m["audioMode"] = string(lc.AudioMode)
		if lc.AudioURL != nil {
			m["audioUrl"] = *lc.AudioURL
		}
		if lc.TTSText != nil {
			m["ttsText"] = *lc.TTSText
		}
		m["options"] = toAny(lc.Options)
		m["answerIndex"] = lc.AnswerIndex
	case ImagePickLesson:
		ip := q.ImagePick
		opts := make([]any, len(ip.Options))
		for i, o := range ip.Options {
			opts[i] = map[string]any{"label": o.Label, "imageUrl": o.ImageURL}
		}
		m["prompt"] = ip.Prompt
		m["options"] = opts
		m["answerIndex"] = ip.AnswerIndex
	case TranslateViEnLesson:
		m["vi_sentence"] = q.Translate.Source
		m["en_sentence"] = oneOrMany(q.Translate.Accepted)
	case TranslateEnViLesson:
		m["en_sentence"] = q.Translate.Source
		m["vi_sentence"] = oneOrMany(q.Translate.Accepted)
	}
	return m
}

// oneOrMany stores a single accepted answer as a plain string.
func oneOrMany(ss []string) any {
	if len(ss) == 1 {
		return ss[0]
	}
	return toAny(ss)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
