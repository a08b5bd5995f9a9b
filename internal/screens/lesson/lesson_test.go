package lesson

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen/screentest"
	"github.com/dex/lingbook/internal/screens/summary"
)

func press(t *testing.T, s *LessonScreen, keys ...string) []any {
	t.Helper()
	var out []any
	for _, k := range keys {
		_, cmd := s.Update(screentest.Key(k))
		for _, msg := range screentest.Run(cmd) {
			out = append(out, msg)
			if m, ok := msg.(submittedMsg); ok {
				s.Update(m)
			}
		}
	}
	return out
}

func TestWordOrderCorrectAnswer(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")

	s := New(env.Deps)
	screentest.Run(s.Init())
	require.NotNil(t, s.board)

	// Pool is [friend Hello my].
	press(t, s, "right", "enter", "enter", "enter")
	assert.Equal(t, []string{"Hello", "my", "friend"}, s.board.Tokens())
	assert.True(t, s.board.Complete())

	press(t, s, "enter")
	require.NotNil(t, s.feedback)
	assert.True(t, s.feedback.correct)
	assert.Contains(t, s.View(100, 30), "Correct!")
	assert.Contains(t, env.Voice.Said, "Hello my friend")

	press(t, s, "space")
	assert.Nil(t, s.feedback)
	assert.Equal(t, 1, env.Deps.Controller.Snapshot().Lesson.Session.Index)
	assert.Equal(t, []string{"teacher", "morning", "Good"}, poolText(s.board.Pool()))
}

func TestWordOrderWrongAnswerShowsSentence(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	s := New(env.Deps)
	screentest.Run(s.Init())

	press(t, s, "enter", "enter", "enter", "enter")
	require.NotNil(t, s.feedback)
	assert.False(t, s.feedback.correct)
	assert.Contains(t, s.View(100, 30), "Correct answer: Hello my friend")
}

func TestWordOrderUndoAndClear(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	s := New(env.Deps)
	screentest.Run(s.Init())

	press(t, s, "enter", "enter")
	assert.Len(t, s.board.Selected(), 2)
	press(t, s, "backspace")
	assert.Len(t, s.board.Selected(), 1)
	press(t, s, "x")
	assert.Empty(t, s.board.Selected())
	assert.Len(t, s.board.Pool(), 3)
}

func TestFinishedLessonReplacesWithSummary(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	s := New(env.Deps)
	screentest.Run(s.Init())

	var msgs []any
	for range 3 {
		for i := 0; s.feedback == nil && i < 10; i++ {
			press(t, s, "enter")
		}
		require.NotNil(t, s.feedback)
		msgs = press(t, s, "enter")
	}
	require.Len(t, msgs, 1)
	replace, ok := msgs[0].(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &summary.SummaryScreen{}, replace.Screen)

	attempts, err := env.Deps.History.Recent(context.Background(), screentest.UserID, 0)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "hello", attempts[0].LessonID)
	assert.Equal(t, 3, attempts[0].Total)
}

func TestListenChoose(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	require.NoError(t, env.Deps.Controller.StartLesson(context.Background(), 1))

	s := New(env.Deps)
	screentest.Run(s.Init())
	assert.Equal(t, []string{"Good evening"}, env.Voice.Said)

	press(t, s, "p")
	assert.Len(t, env.Voice.Said, 2)

	press(t, s, "2", "enter")
	require.NotNil(t, s.feedback)
	assert.True(t, s.feedback.correct)
	assert.True(t, s.choice.Revealed)
	assert.Equal(t, 1, s.choice.Answer)
}

func TestImagePick(t *testing.T) {
	env := screentest.New(t)
	env.UnlockAfter(t, "greetings")
	env.OpenSkill(t, "food")
	require.Equal(t, "fruit", env.Deps.Controller.Snapshot().Lesson.Lesson.ID)

	s := New(env.Deps)
	screentest.Run(s.Init())
	assert.Contains(t, s.View(100, 30), "apple")

	press(t, s, "down", "down", "enter")
	require.NotNil(t, s.feedback)
	assert.False(t, s.feedback.correct)
	assert.Equal(t, 2, s.choice.Chosen)
}

func typeText(t *testing.T, s *LessonScreen, text string) {
	t.Helper()
	for _, r := range text {
		k := string(r)
		if r == ' ' {
			k = "space"
		}
		press(t, s, k)
	}
}

func TestTranslateTypedAnswer(t *testing.T) {
	env := screentest.New(t)
	env.UnlockAfter(t, "food")
	env.OpenSkill(t, "travel")
	require.NoError(t, env.Deps.Controller.StartLesson(context.Background(), 1))

	s := New(env.Deps)
	screentest.Run(s.Init())
	view := s.View(100, 30)
	assert.Contains(t, view, "Translate into English")
	assert.Contains(t, view, "Nhà ga ở đâu?")
	assert.Equal(t, "type", s.KeyHints()[0].Key)

	press(t, s, "enter")
	assert.Nil(t, s.feedback)
	assert.Equal(t, "Type an answer first", s.notice)

	// Letters that are shortcuts elsewhere are typed here.
	typeText(t, s, "where is the STATION?")
	assert.Empty(t, s.notice)
	assert.Equal(t, "where is the STATION?", s.answer.Value())
	press(t, s, "enter")
	require.NotNil(t, s.feedback)
	assert.True(t, s.feedback.correct)
	assert.Equal(t, "where is the STATION?", s.feedback.text)

	press(t, s, "space")
	assert.Nil(t, s.feedback)
	assert.Empty(t, s.answer.Value())

	typeText(t, s, "I want a ticket")
	press(t, s, "enter")
	require.NotNil(t, s.feedback)
	assert.False(t, s.feedback.correct)
	assert.Contains(t, s.View(100, 30), "Correct answer: I need a ticket / I need one ticket")

	scores, err := env.Deps.History.Scores(context.Background(), screentest.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, scores["ask-the-way"].Score)
	assert.Equal(t, 2, scores["ask-the-way"].TotalQuestions)
}

func TestEscapeAsksBeforeLeaving(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	s := New(env.Deps)
	screentest.Run(s.Init())
	assert.True(t, s.CapturesEscape())

	press(t, s, "esc")
	assert.True(t, s.confirmQuit)
	press(t, s, "n")
	assert.False(t, s.confirmQuit)

	press(t, s, "esc")
	msgs := press(t, s, "y")
	require.Len(t, msgs, 1)
	assert.IsType(t, router.PopScreenMsg{}, msgs[0])
	assert.Equal(t, progression.LessonIdle, env.Deps.Controller.Snapshot().Lesson.Phase())
}

func TestKeyHintsFollowQuestionType(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	s := New(env.Deps)
	screentest.Run(s.Init())

	hints := s.KeyHints()
	require.NotEmpty(t, hints)
	assert.Equal(t, "←→", hints[0].Key)
}

func poolText(ts []progression.Token) []string {
	out := make([]string, len(ts))
	for i, tk := range ts {
		out[i] = tk.Text
	}
	return out
}
