package placeholder

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/dex/lingbook/internal/router"
)

func TestPlaceholder(t *testing.T) {
	p := New("Flashcards", "")
	assert.Equal(t, "Flashcards", p.Title())
	assert.Contains(t, p.View(80, 20), defaultMessage)

	_, cmd := p.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Nil(t, cmd)

	_, cmd = p.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if assert.NotNil(t, cmd) {
		assert.Equal(t, router.PopScreenMsg{}, cmd())
	}
}
