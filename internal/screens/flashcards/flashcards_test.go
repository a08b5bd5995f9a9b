package flashcards

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen/screentest"
)

// send delivers msg and feeds back whatever its commands produce.
func send(s *FlashcardsScreen, msg tea.Msg) []tea.Msg {
	_, cmd := s.Update(msg)
	var leftover []tea.Msg
	for _, m := range screentest.Run(cmd) {
		switch m.(type) {
		case topicsLoadedMsg, deckLoadedMsg, markedMsg, learnedLoadedMsg:
			leftover = append(leftover, send(s, m)...)
		default:
			leftover = append(leftover, m)
		}
	}
	return leftover
}

func started(t *testing.T) (*screentest.Env, *FlashcardsScreen) {
	t.Helper()
	env := screentest.New(t)
	s := New(env.Deps)
	for _, m := range screentest.Run(s.Init()) {
		send(s, m)
	}
	require.True(t, s.loaded)
	return env, s
}

func TestTopicMenu(t *testing.T) {
	_, s := started(t)
	view := s.View(100, 30)
	assert.Contains(t, view, "All words")
	assert.Contains(t, view, "food")
	assert.Contains(t, view, "travel")
	require.Len(t, s.topics.Items, 3)
}

func TestStudyTopicDeck(t *testing.T) {
	env, s := started(t)

	send(s, screentest.Key("down"))
	send(s, screentest.Key("enter"))
	require.Equal(t, modeDeck, s.mode)
	assert.Equal(t, "Flashcards · food", s.Title())
	assert.Equal(t, 2, s.deck.Len())

	view := s.View(100, 30)
	assert.Contains(t, view, "apple")
	assert.NotContains(t, view, "quả táo")

	send(s, screentest.Key("space"))
	assert.Contains(t, s.View(100, 30), "quả táo")

	send(s, screentest.Key("p"))
	assert.Equal(t, []string{"apple"}, env.Voice.Said)

	send(s, screentest.Key("k"))
	assert.Equal(t, 1, s.deck.Index())
	assert.True(t, s.progress["apple"].IsLearned)

	send(s, screentest.Key("d"))
	assert.Equal(t, "End of deck. Nice work!", s.notice)

	p, err := env.Deps.Vocab.Progress(context.Background(), screentest.UserID)
	require.NoError(t, err)
	assert.True(t, p["apple"].IsLearned)
	assert.False(t, p["rice"].IsLearned)
	assert.Equal(t, 1, p["rice"].ReviewCount)
}

func TestLearnedListJumpsToCard(t *testing.T) {
	env, s := started(t)
	require.NoError(t, env.Deps.Vocab.SetLearned(context.Background(), screentest.UserID, "station", true))

	send(s, screentest.Key("enter"))
	require.Equal(t, 4, s.deck.Len())

	send(s, screentest.Key("tab"))
	require.Equal(t, modeLearned, s.mode)
	require.Len(t, s.learned, 1)
	assert.Contains(t, s.View(100, 30), "nhà ga")

	send(s, screentest.Key("enter"))
	assert.Equal(t, modeDeck, s.mode)
	w, ok := s.deck.Current()
	require.True(t, ok)
	assert.Equal(t, "station", w.ID)
}

func TestEscapeWalksBack(t *testing.T) {
	_, s := started(t)
	send(s, screentest.Key("enter"))
	require.Equal(t, modeDeck, s.mode)

	assert.Empty(t, send(s, screentest.Key("esc")))
	assert.Equal(t, modeTopics, s.mode)

	out := send(s, screentest.Key("esc"))
	require.Len(t, out, 1)
	assert.IsType(t, router.PopScreenMsg{}, out[0])
}
