package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screen/screentest"
	"github.com/dex/lingbook/internal/screens/home"
	"github.com/dex/lingbook/internal/screens/lesson"
	"github.com/dex/lingbook/internal/screens/welcome"
)

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am, cmd
}

func TestStartsOnWelcomeUnlessSkipped(t *testing.T) {
	env := screentest.New(t)
	m := newAppModel(Options{Deps: env.Deps, UserName: "Lan"})
	assert.IsType(t, &welcome.WelcomeScreen{}, m.router.Active())

	m = newAppModel(Options{Deps: env.Deps, SkipWelcome: true})
	assert.IsType(t, &home.HomeScreen{}, m.router.Active())
}

func TestSnapshotUpdatesHeader(t *testing.T) {
	env := screentest.New(t)
	m := newAppModel(Options{Deps: env.Deps, UserName: "Lan", SkipWelcome: true})

	// The subscription replays the current state first.
	first := waitForSnapshot(m.updates)()
	m, _ = update(t, m, first)

	env.OpenSkill(t, "greetings")
	var cmd tea.Cmd
	m, cmd = update(t, m, waitForSnapshot(m.updates)())
	assert.NotNil(t, cmd)

	info := m.headerInfo()
	assert.Equal(t, "Lan", info.User)
	assert.Equal(t, 3, info.SkillsTotal)
	assert.Equal(t, 1, info.SkillsUnlocked)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.render(), "🔓 1/3")
}

func TestEscapePopsUnlessCaptured(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	m := newAppModel(Options{Deps: env.Deps, SkipWelcome: true})

	m, _ = update(t, m, router.PushScreenMsg{Screen: lesson.New(env.Deps)})
	require.Equal(t, 2, m.router.Depth())

	// The lesson asks before leaving.
	m, cmd := update(t, m, screentest.Key("esc"))
	assert.Nil(t, cmd)
	assert.Equal(t, 2, m.router.Depth())

	m, _ = update(t, m, router.ReplaceScreenMsg{Screen: home.New(env.Deps)})
	_, cmd = update(t, m, screentest.Key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestPopResumesScreenBelow(t *testing.T) {
	env := screentest.New(t)
	m := newAppModel(Options{Deps: env.Deps, SkipWelcome: true})
	m, _ = update(t, m, router.PushScreenMsg{Screen: lesson.New(env.Deps)})

	m, cmd := update(t, m, router.PopScreenMsg{})
	assert.Equal(t, 1, m.router.Depth())
	msgs := screentest.Run(cmd)
	assert.Contains(t, msgs, tea.Msg(screen.ResumedMsg{}))
}

func TestFooterUsesScreenHints(t *testing.T) {
	env := screentest.New(t)
	env.OpenSkill(t, "greetings")
	m := newAppModel(Options{Deps: env.Deps, SkipWelcome: true})
	assert.Equal(t, "Navigate", m.footerHints()[0].Description)

	m, _ = update(t, m, router.PushScreenMsg{Screen: lesson.New(env.Deps)})
	hints := m.footerHints()
	assert.Equal(t, "←→", hints[0].Key)
	assert.Equal(t, "Ctrl+C", hints[len(hints)-1].Key)
}

func TestCtrlCQuits(t *testing.T) {
	env := screentest.New(t)
	m := newAppModel(Options{Deps: env.Deps, SkipWelcome: true})
	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
