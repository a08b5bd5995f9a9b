package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen/screentest"
)

func TestStatsScreen(t *testing.T) {
	env := screentest.New(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, a := range []history.Attempt{
		{SkillID: "greetings", LessonID: "hello", LessonType: catalog.WordOrderLesson, Total: 3, Correct: 3},
		{SkillID: "greetings", LessonID: "hear-hello", LessonType: catalog.ListenChooseLesson, Total: 2, Correct: 1},
		{SkillID: "food", LessonID: "fruit", LessonType: catalog.ImagePickLesson, Total: 2, Correct: 0},
	} {
		a.FinishedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := env.Deps.History.Append(ctx, screentest.UserID, a)
		require.NoError(t, err)
	}
	require.NoError(t, env.Deps.Controller.LoadSkillMap(ctx))

	s := New(env.Deps)
	assert.Equal(t, "My Stats", s.Title())
	assert.Contains(t, s.View(120, 30), "Loading")

	for _, msg := range screentest.Run(s.Init()) {
		s.Update(msg)
	}
	require.Len(t, s.skills, 2)
	view := s.View(120, 30)
	assert.Contains(t, view, "3 lessons · 7 questions · 57% correct")
	assert.Contains(t, view, "Greetings")
	assert.NotContains(t, view, "hear-hello")

	s.Update(screentest.Key("down"))
	s.Update(screentest.Key("enter"))
	assert.True(t, s.expanded[1])
	assert.Contains(t, s.View(120, 30), "hear-hello")

	_, cmd := s.Update(screentest.Key("esc"))
	assert.Equal(t, []any{router.PopScreenMsg{}}, toAny(screentest.Run(cmd)))
}

func TestStatsWithoutHistory(t *testing.T) {
	env := screentest.New(t)
	env.Deps.History = nil
	s := New(env.Deps)
	for _, msg := range screentest.Run(s.Init()) {
		s.Update(msg)
	}
	assert.Contains(t, s.View(100, 30), "No lessons finished yet")
}

func toAny[T any](xs []T) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
