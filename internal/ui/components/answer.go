package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

// AnswerInput wraps bubbles/textinput for typed answers.
type AnswerInput struct {
	Model    textinput.Model
	marked   bool
	accepted bool
}

// NewAnswerInput creates a focused input. The cursor does not blink.
func NewAnswerInput(placeholder string, width int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	ti.CharLimit = 200

	st := textinput.DefaultDarkStyles()
	st.Focused.Prompt = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	st.Cursor.Color = theme.Primary
	st.Cursor.Blink = false
	ti.SetStyles(st)
	if width > 0 {
		ti.SetWidth(width)
	}
	ti.Focus()
	return AnswerInput{Model: ti}
}

// Update edits the text. A marked input ignores further keys.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if a.marked {
		return a, nil
	}
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

func (a AnswerInput) View() string {
	view := a.Model.View()
	if a.marked {
		if a.accepted {
			view += " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		} else {
			view += " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
		}
	}
	return view
}

func (a AnswerInput) Value() string {
	return a.Model.Value()
}

// Blank reports whether nothing but whitespace was typed.
func (a AnswerInput) Blank() bool {
	return strings.TrimSpace(a.Model.Value()) == ""
}

// Mark freezes the input with the grading result.
func (a *AnswerInput) Mark(accepted bool) {
	a.marked = true
	a.accepted = accepted
	a.Model.Blur()
}
