package progression

import (
	"testing"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordOrder(sentence string, shuffled ...string) catalog.Question {
	return catalog.NewWordOrder("q", catalog.WordOrder{Sentence: sentence, Shuffled: shuffled})
}

func TestSessionCorrectWrongCorrect(t *testing.T) {
	s := NewSession([]catalog.Question{wordOrder("a"), wordOrder("b"), wordOrder("c")})
	require.False(t, s.Finished)

	for i, correct := range []bool{true, false, true} {
		require.NoError(t, s.Answer(correct))
		assert.Equal(t, i+1, s.Index)
		assert.Equal(t, i == 2, s.Finished)
	}

	assert.Equal(t, 3, s.Index)
	assert.Equal(t, 2, s.CorrectCount)
	assert.True(t, s.Finished)
	assert.Equal(t, 66, s.Accuracy())

	_, ok := s.Current()
	assert.False(t, ok)
	assert.ErrorIs(t, s.Answer(true), ErrSessionFinished)
	assert.Equal(t, 3, s.Index)
	assert.Equal(t, 2, s.CorrectCount)
}

func TestEmptySessionIsFinished(t *testing.T) {
	s := NewSession(nil)
	assert.True(t, s.Finished)
	assert.Equal(t, 0, s.Total())
	assert.Equal(t, 0, s.Accuracy())
	assert.ErrorIs(t, s.Answer(true), ErrSessionFinished)
}

func TestZeroSessionRefusesAnswers(t *testing.T) {
	var s Session
	assert.ErrorIs(t, s.Answer(true), ErrNoQuestion)
	assert.Equal(t, Session{}, s)
}

func TestGradeWordOrder(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"exact", []string{"I", "like", "cats"}, true},
		{"wrong word", []string{"I", "like", "cat"}, false},
		{"case sensitive", []string{"i", "like", "cats"}, false},
		{"wrong order", []string{"like", "I", "cats"}, false},
		{"surrounding space", []string{" I", "like", "cats "}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradeWordOrder("I like cats", tt.tokens))
		})
	}
}

func TestGradeTranslation(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		accepted []string
		want     bool
	}{
		{"exact", "Hello", []string{"Hello"}, true},
		{"ignores case", "hELLO", []string{"Hello"}, true},
		{"trims and squashes spaces", "  good   morning ", []string{"Good morning"}, true},
		{"any accepted answer", "Hi", []string{"Hello", "Hi"}, true},
		{"vietnamese case folding", "XIN CHÀO", []string{"Xin chào"}, true},
		{"wrong answer", "Goodbye", []string{"Hello", "Hi"}, false},
		{"punctuation matters", "Hello!", []string{"Hello"}, false},
		{"blank answer", "   ", []string{""}, false},
		{"nothing accepted", "Hello", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradeTranslation(tt.answer, tt.accepted))
		})
	}
}

func TestGradeChoices(t *testing.T) {
	listen := catalog.NewListenChoose("q1", catalog.ListenChoose{
		AudioMode: catalog.AudioTTS, Options: []string{"a", "b", "c"}, AnswerIndex: 2,
	})
	assert.True(t, Grade(listen, Response{Option: 2}))
	assert.False(t, Grade(listen, Response{Option: 0}))

	pick := catalog.NewImagePick("q2", catalog.ImagePick{
		Prompt: "apple", Options: []catalog.ImageOption{{Label: "pear"}, {Label: "apple"}}, AnswerIndex: 1,
	})
	assert.True(t, Grade(pick, Response{Option: 1}))
	assert.False(t, Grade(pick, Response{Option: -1}))

	assert.True(t, Grade(wordOrder("I like cats"), Response{Tokens: []string{"I", "like", "cats"}}))
	assert.False(t, Grade(catalog.Question{Type: catalog.ImagePickLesson}, Response{}))

	tr := catalog.NewTranslate("q3", catalog.TranslateEnViLesson, catalog.Translate{
		Source: "Thank you", Accepted: []string{"Cảm ơn", "Cám ơn"},
	})
	assert.True(t, Grade(tr, Response{Text: "cám ơn"}))
	assert.False(t, Grade(tr, Response{Option: 0}))
	assert.False(t, Grade(catalog.Question{Type: catalog.TranslateViEnLesson}, Response{Text: "x"}))
}

func TestWordOrderBoard(t *testing.T) {
	b := NewWordOrderBoard([]string{"cats", "I", "like", "I"})
	require.Len(t, b.Pool(), 4)

	require.True(t, b.Pick(1)) // I
	require.True(t, b.Pick(1)) // like
	assert.Equal(t, []string{"I", "like"}, b.Tokens())
	assert.False(t, b.Complete())

	require.True(t, b.Unpick(0))
	assert.Equal(t, []string{"like"}, b.Tokens())
	assert.Len(t, b.Pool(), 3)
	assert.False(t, b.Pick(7))
	assert.False(t, b.Unpick(5))

	for len(b.Pool()) > 0 {
		b.Pick(0)
	}
	assert.True(t, b.Complete())
	slots := map[int]bool{}
	for _, tok := range b.Selected() {
		slots[tok.Slot] = true
	}
	assert.Len(t, slots, 4)

	b.Clear()
	assert.Empty(t, b.Selected())
	assert.Equal(t, "cats", b.Pool()[0].Text)
}

func TestCourse(t *testing.T) {
	lessons := []catalog.Lesson{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	c := NewCourse("s", "S", lessons, 7)
	assert.Equal(t, 2, c.Index)
	assert.False(t, c.HasNext())

	c = NewCourse("s", "S", lessons, -3)
	assert.Equal(t, 0, c.Index)
	assert.True(t, c.HasNext())
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.ID)

	empty := NewCourse("s", "S", nil, 3)
	assert.True(t, empty.Empty())
	_, ok = empty.Current()
	assert.False(t, ok)
}
