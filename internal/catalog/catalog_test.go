package catalog

import (
	"context"
	"testing"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLessonType(t *testing.T) {
	tests := []struct {
		in   string
		want LessonType
	}{
		{"WORD_ORDER", WordOrderLesson},
		{"listen_choose", ListenChooseLesson},
		{" Image_Pick ", ImagePickLesson},
		{"", WordOrderLesson},
		{"TRANSLATE", WordOrderLesson},
		{"translate_vi_en", TranslateViEnLesson},
		{"TRANSLATE_EN_VI", TranslateEnViLesson},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLessonType(tt.in), tt.in)
	}
}

func TestDecodeSkillDefaults(t *testing.T) {
	s := DecodeSkill(docstore.Doc{ID: "basics", Fields: map[string]any{"order": "not a number"}})
	assert.Equal(t, "basics", s.ID)
	assert.Equal(t, "", s.Title)
	assert.Equal(t, DefaultIcon, s.Icon)
	assert.Equal(t, DefaultOrder, s.Order)
}

func TestDecodeLessonDefaults(t *testing.T) {
	l := DecodeLesson("basics", docstore.Doc{ID: "l1", Fields: map[string]any{
		"title": "Hello", "type": "image_pick",
	}})
	assert.Equal(t, "basics", l.SkillID)
	assert.Equal(t, ImagePickLesson, l.Type)
	assert.Equal(t, 0, l.QuestionCount)

	l = DecodeLesson("basics", docstore.Doc{ID: "l2", Fields: map[string]any{}})
	assert.Equal(t, WordOrderLesson, l.Type)
}

func TestDecodeQuestionLenient(t *testing.T) {
	t.Run("word order with corrupt tokens", func(t *testing.T) {
		q := DecodeQuestion(WordOrderLesson, docstore.Doc{ID: "q1", Fields: map[string]any{
			"sentence": "I like cats",
			"shuffled": "cats I like",
		}})
		require.NotNil(t, q.WordOrder)
		assert.Equal(t, "I like cats", q.WordOrder.Sentence)
		assert.Empty(t, q.WordOrder.Shuffled)
		assert.Nil(t, q.WordOrder.TTSText)
	})

	t.Run("listen choose defaults to tts", func(t *testing.T) {
		q := DecodeQuestion(ListenChooseLesson, docstore.Doc{ID: "q1", Fields: map[string]any{
			"audioMode": "SPEAKER",
			"options":   []any{"hola", "adiós"},
		}})
		require.NotNil(t, q.ListenChoose)
		assert.Equal(t, AudioTTS, q.ListenChoose.AudioMode)
		assert.Equal(t, 0, q.ListenChoose.AnswerIndex)
		assert.Equal(t, "hola", q.ListenChoose.SpokenText())
	})

	t.Run("image pick skips malformed options", func(t *testing.T) {
		q := DecodeQuestion(ImagePickLesson, docstore.Doc{ID: "q1", Fields: map[string]any{
			"prompt":      "cat",
			"answerIndex": float64(1),
			"options": []any{
				map[string]any{"label": "dog", "imageUrl": "https://x/dog.png"},
				"garbage",
				map[string]any{"label": "cat"},
			},
		}})
		require.NotNil(t, q.ImagePick)
		require.Len(t, q.ImagePick.Options, 2)
		assert.Equal(t, "cat", q.ImagePick.Options[1].Label)
		assert.Equal(t, "", q.ImagePick.Options[1].ImageURL)
		assert.Equal(t, 1, q.ImagePick.AnswerIndex)
	})

	t.Run("translate accepts one answer or a list", func(t *testing.T) {
		tests := []struct {
			name       string
			typ        LessonType
			fields     map[string]any
			wantSource string
			wantAccept []string
		}{
			{
				"vi to en with list", TranslateViEnLesson,
				map[string]any{"vi_sentence": "Xin chào", "en_sentence": []any{"Hello", "Hi"}},
				"Xin chào", []string{"Hello", "Hi"},
			},
			{
				"vi to en with string", TranslateViEnLesson,
				map[string]any{"vi_sentence": "Cảm ơn", "en_sentence": "Thank you"},
				"Cảm ơn", []string{"Thank you"},
			},
			{
				"en to vi shows first english sentence", TranslateEnViLesson,
				map[string]any{"en_sentence": []any{"Good night", "Night"}, "vi_sentence": "Chúc ngủ ngon"},
				"Good night", []string{"Chúc ngủ ngon"},
			},
			{
				"missing fields", TranslateEnViLesson,
				map[string]any{"en_sentence": 3},
				"", []string{},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				q := DecodeQuestion(tt.typ, docstore.Doc{ID: "q1", Fields: tt.fields})
				assert.Equal(t, tt.typ, q.Type)
				require.NotNil(t, q.Translate)
				assert.Equal(t, tt.wantSource, q.Translate.Source)
				assert.Equal(t, tt.wantAccept, q.Translate.Accepted)
				assert.Equal(t, 0, q.OptionCount())
			})
		}
	})
}

func TestQuestionFieldsDecodeBack(t *testing.T) {
	url := "https://cdn.example/hola.mp3"
	q := NewListenChoose("q1", ListenChoose{
		AudioMode:   AudioURL,
		AudioURL:    &url,
		Options:     []string{"hola", "adiós", "gracias"},
		AnswerIndex: 2,
	})
	q.Order = 4

	got := DecodeQuestion(ListenChooseLesson, docstore.Doc{ID: "q1", Fields: q.Fields()})
	assert.Equal(t, q, got)

	for _, accepted := range [][]string{{"Hello"}, {"Hello", "Hi"}} {
		tr := NewTranslate("q2", TranslateViEnLesson, Translate{Source: "Xin chào", Accepted: accepted})
		tr.Order = 1
		got := DecodeQuestion(TranslateViEnLesson, docstore.Doc{ID: "q2", Fields: tr.Fields()})
		assert.Equal(t, tr, got)
	}
	single := NewTranslate("q3", TranslateEnViLesson, Translate{Source: "Thank you", Accepted: []string{"Cảm ơn"}})
	assert.Equal(t, "Cảm ơn", single.Fields()["vi_sentence"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{"valid word order", NewWordOrder("q", WordOrder{Sentence: "I like cats", Shuffled: []string{"cats", "I", "like"}}), false},
		{"tokens not a permutation", NewWordOrder("q", WordOrder{Sentence: "I like cats", Shuffled: []string{"cat", "I", "like"}}), true},
		{"empty sentence", NewWordOrder("q", WordOrder{Sentence: " "}), true},
		{"answer out of range", NewListenChoose("q", ListenChoose{AudioMode: AudioTTS, Options: []string{"a", "b"}, AnswerIndex: 2}), true},
		{"url mode without url", NewListenChoose("q", ListenChoose{AudioMode: AudioURL, Options: []string{"a", "b"}}), true},
		{"single option", NewImagePick("q", ImagePick{Prompt: "p", Options: []ImageOption{{Label: "a"}}}), true},
		{"valid image pick", NewImagePick("q", ImagePick{Prompt: "p", Options: []ImageOption{{Label: "a"}, {Label: "b"}}, AnswerIndex: 1}), false},
		{"valid translate", NewTranslate("q", TranslateViEnLesson, Translate{Source: "Xin chào", Accepted: []string{"Hello"}}), false},
		{"translate without answers", NewTranslate("q", TranslateEnViLesson, Translate{Source: "Hello", Accepted: []string{" "}}), true},
		{"translate without source", NewTranslate("q", TranslateViEnLesson, Translate{Accepted: []string{"Hello"}}), true},
		{"translate type without body", Question{ID: "q", Type: TranslateViEnLesson}, true},
		{"untagged", Question{ID: "q"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSourceOrdersByOrderField(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, store.Batch(ctx, []docstore.Write{
		docstore.Merge(SkillPath("food"), map[string]any{"title": "Food", "order": 2}),
		docstore.Merge(SkillPath("basics"), map[string]any{"title": "Basics", "order": 1}),
		docstore.Merge(SkillPath("extra"), map[string]any{"title": "Extra"}),
		docstore.Merge(LessonPath("basics", "b"), map[string]any{"title": "Second", "order": 2}),
		docstore.Merge(LessonPath("basics", "a"), map[string]any{"title": "First", "order": 1, "type": "LISTEN_CHOOSE"}),
		docstore.Merge(QuestionPath("basics", "a", "q2"), map[string]any{"order": 2, "options": []any{"x", "y"}}),
		docstore.Merge(QuestionPath("basics", "a", "q1"), map[string]any{"order": 1, "options": []any{"x", "y"}}),
	}))

	src := NewSource(store)

	skills, err := src.Skills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 3)
	assert.Equal(t, "basics", skills[0].ID)
	assert.Equal(t, "food", skills[1].ID)
	assert.Equal(t, "extra", skills[2].ID)

	first, err := src.FirstSkill(ctx)
	require.NoError(t, err)
	assert.Equal(t, "basics", first.ID)

	lessons, err := src.Lessons(ctx, "basics")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "a", lessons[0].ID)

	qs, err := src.Questions(ctx, lessons[0])
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "q1", qs[0].ID)
	assert.Equal(t, ListenChooseLesson, qs[0].Type)
}

func TestFirstSkillEmptyCatalog(t *testing.T) {
	_, err := NewSource(docstore.NewMemory()).FirstSkill(context.Background())
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
