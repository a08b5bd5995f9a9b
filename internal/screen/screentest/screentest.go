// Package screentest builds screen dependencies over an in-memory store
// seeded with the starter catalog.
package screentest

import (
	"context"
	"log/slog"
	"testing"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/identity"
	"github.com/dex/lingbook/internal/learn"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/seed"
	"github.com/dex/lingbook/internal/vocab"
)

// UserID is the signed-in learner of Deps.
const UserID = "learner-1"

// Voice records what screens asked to speak.
type Voice struct {
	Said   []string
	Played []string
}

func (v *Voice) Say(text, _ string) { v.Said = append(v.Said, text) }
func (v *Voice) Play(url string)    { v.Played = append(v.Played, url) }

// Env is a seeded store plus the deps screens are built from.
type Env struct {
	Store docstore.Store
	Deps  screen.Deps
	Voice *Voice
}

// New seeds the starter catalog and wires a controller for UserID.
func New(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	store := docstore.NewMemory()
	f, err := seed.Starter()
	require.NoError(t, err)
	_, err = seed.Apply(ctx, store, f, true)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	rec := history.NewRecorder(store, logger)
	ctrl := progression.NewController(
		learn.NewRepository(store, logger),
		identity.Static{User: identity.User{ID: UserID, DisplayName: "Lan"}},
		progression.WithHistory(rec),
		progression.WithLogger(logger),
	)
	t.Cleanup(ctrl.Close)

	voice := &Voice{}
	return &Env{
		Store: store,
		Voice: voice,
		Deps: screen.Deps{
			Controller: ctrl,
			Vocab:      vocab.NewRepository(store),
			History:    rec,
			Voice:      voice,
			UserID:     UserID,
			Language:   "en-US",
		},
	}
}

// OpenSkill loads the skill map and opens skillID.
func (e *Env) OpenSkill(t *testing.T, skillID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.Deps.Controller.LoadSkillMap(ctx))
	require.NoError(t, e.Deps.Controller.OpenSkill(ctx, skillID))
}

// Key builds a key press for a named key or a single character.
func Key(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "backspace":
		return tea.KeyPressMsg{Code: tea.KeyBackspace}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	r := []rune(k)[0]
	return tea.KeyPressMsg{Code: r, Text: k}
}

// Run executes cmd and the commands it batches, returning every message
// produced. Spinner ticks are dropped.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, Run(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

// UnlockAfter marks skillID complete and unlocks the skill after it.
func (e *Env) UnlockAfter(t *testing.T, skillID string) {
	t.Helper()
	ctx := context.Background()
	repo := learn.NewRepository(e.Store, slog.New(slog.DiscardHandler))
	require.NoError(t, repo.EnsureProgressInitialized(ctx, UserID))
	require.NoError(t, repo.UnlockNextSkill(ctx, UserID, skillID))
}
