package summary

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screen/screentest"
)

type nextScreen struct{ screen.Screen }

// finish answers every question of the open lesson through the controller.
func finish(t *testing.T, c *progression.Controller, correct bool) {
	t.Helper()
	ctx := context.Background()
	for !c.Snapshot().Lesson.Session.Finished {
		require.NoError(t, c.Answer(ctx, correct))
	}
}

func drive(t *testing.T, s *SummaryScreen, key string) []tea.Msg {
	t.Helper()
	_, cmd := s.Update(screentest.Key(key))
	var out []tea.Msg
	for _, msg := range screentest.Run(cmd) {
		switch msg.(type) {
		case advancedMsg, unlockedMsg:
			_, follow := s.Update(msg)
			out = append(out, screentest.Run(follow)...)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func TestSummaryShowsResult(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	finish(t, env.Deps.Controller, true)

	s := New(env.Deps, nil)
	assert.Equal(t, "Lesson Summary", s.Title())
	view := s.View(100, 30)
	assert.Contains(t, view, "Lesson complete!")
	assert.Contains(t, view, "Accuracy: 100%")
	assert.Contains(t, view, "Up next: Listen to greetings")
	assert.Equal(t, "Next lesson", s.KeyHints()[0].Description)
}

func TestEnterStartsNextLesson(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	finish(t, env.Deps.Controller, false)

	called := false
	s := New(env.Deps, func() screen.Screen {
		called = true
		return nextScreen{}
	})
	msgs := drive(t, s, "enter")
	require.Len(t, msgs, 1)
	replace, ok := msgs[0].(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.IsType(t, nextScreen{}, replace.Screen)
	assert.True(t, called)

	l := env.Deps.Controller.Snapshot().Lesson
	assert.Equal(t, 1, l.LessonIndex)
	assert.Equal(t, "hear-hello", l.Lesson.ID)
}

func TestEnterOnLastLessonUnlocksNextSkill(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	c := env.Deps.Controller
	require.NoError(t, c.StartLesson(context.Background(), 1))
	finish(t, c, true)

	s := New(env.Deps, nil)
	assert.Contains(t, s.View(100, 30), "Skill complete!")
	assert.Equal(t, "Finish skill", s.KeyHints()[0].Description)

	msgs := drive(t, s, "enter")
	require.Len(t, msgs, 1)
	assert.IsType(t, router.PopScreenMsg{}, msgs[0])

	snap := c.Snapshot()
	assert.Equal(t, progression.LessonIdle, snap.Lesson.Phase())
	require.Len(t, snap.SkillMap.Skills, 3)
	assert.Equal(t, 100, snap.SkillMap.Skills[0].Progress)
	assert.True(t, snap.SkillMap.Skills[1].Unlocked)
	assert.False(t, snap.SkillMap.Skills[2].Unlocked)
}

func TestEscapeLeavesWithoutAdvancing(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	finish(t, env.Deps.Controller, true)

	s := New(env.Deps, nil)
	assert.True(t, s.CapturesEscape())
	msgs := drive(t, s, "esc")
	require.Len(t, msgs, 1)
	assert.IsType(t, router.PopScreenMsg{}, msgs[0])
	assert.False(t, env.Deps.Controller.Snapshot().Lesson.Active)
}

func TestVerdict(t *testing.T) {
	assert.Equal(t, "Perfect score!", verdict(100))
	assert.Equal(t, "Great job!", verdict(80))
	assert.Equal(t, "Every mistake is a step forward.", verdict(0))
}
