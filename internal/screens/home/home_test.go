package home

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screen/screentest"
	"github.com/dex/lingbook/internal/screens/flashcards"
	"github.com/dex/lingbook/internal/screens/placeholder"
	"github.com/dex/lingbook/internal/screens/skillmap"
	"github.com/dex/lingbook/internal/screens/stats"
)

func initHome(t *testing.T, env *screentest.Env) *HomeScreen {
	t.Helper()
	h := New(env.Deps)
	for _, msg := range screentest.Run(h.Init()) {
		h.Update(msg)
	}
	return h
}

func selectItem(t *testing.T, h *HomeScreen, downs int) tea.Msg {
	t.Helper()
	for range downs {
		h.Update(screentest.Key("down"))
	}
	_, cmd := h.Update(screentest.Key("enter"))
	require.NotNil(t, cmd)
	return cmd()
}

func TestHomeCounters(t *testing.T) {
	env := screentest.New(t)
	ctx := context.Background()
	require.NoError(t, env.Deps.Vocab.SetLearned(ctx, screentest.UserID, "apple", true))
	_, err := env.Deps.History.Append(ctx, screentest.UserID, history.Attempt{
		SkillID: "greetings", LessonID: "hello", Total: 3, Correct: 2, FinishedAt: time.Now(),
	})
	require.NoError(t, err)

	h := initHome(t, env)
	assert.Equal(t, "Home", h.Title())
	assert.Equal(t, 1, h.stats.WordsLearned)
	assert.Equal(t, 1, h.stats.LessonsDone)
	assert.Equal(t, MascotCheering, h.mascot)

	view := h.View(120, 40)
	assert.Contains(t, view, "1/3 SKILLS")
	assert.Contains(t, view, "CONTINUE LEARNING")
}

func TestHomeSleepyWithoutLessons(t *testing.T) {
	env := screentest.New(t)
	h := initHome(t, env)
	assert.Equal(t, MascotSleepy, h.mascot)
	assert.Equal(t, 0, h.stats.LessonsDone)
}

func TestHomeMenuNavigation(t *testing.T) {
	env := screentest.New(t)

	push := selectItem(t, initHome(t, env), 0).(router.PushScreenMsg)
	assert.IsType(t, &skillmap.SkillMapScreen{}, push.Screen)

	push = selectItem(t, initHome(t, env), 1).(router.PushScreenMsg)
	assert.IsType(t, &flashcards.FlashcardsScreen{}, push.Screen)

	push = selectItem(t, initHome(t, env), 2).(router.PushScreenMsg)
	assert.IsType(t, &stats.StatsScreen{}, push.Screen)

	assert.IsType(t, tea.QuitMsg{}, selectItem(t, initHome(t, env), 3))
}

func TestFlashcardsWithoutVocabularyIsPlaceholder(t *testing.T) {
	env := screentest.New(t)
	env.Deps.Vocab = nil
	push := selectItem(t, New(env.Deps), 1).(router.PushScreenMsg)
	assert.IsType(t, &placeholder.PlaceholderScreen{}, push.Screen)
}

func TestHomeReloadsStatsOnResume(t *testing.T) {
	env := screentest.New(t)
	h := initHome(t, env)
	require.Equal(t, 0, h.stats.WordsLearned)

	require.NoError(t, env.Deps.Vocab.SetLearned(context.Background(), screentest.UserID, "rice", true))
	_, cmd := h.Update(screen.ResumedMsg{})
	for _, msg := range screentest.Run(cmd) {
		h.Update(msg)
	}
	assert.Equal(t, 1, h.stats.WordsLearned)
}
