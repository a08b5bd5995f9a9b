package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

// Choice is a single-answer option list. Keys 1-9 jump to an option.
type Choice struct {
	Options  []string
	Selected int

	// Revealed marks the options after grading: the answer green, a wrong
	// pick red.
	Revealed bool
	Answer   int
	Chosen   int
}

func NewChoice(options []string) Choice {
	return Choice{Options: options, Chosen: -1}
}

// Update moves the cursor. It never submits; the caller reads Selected on
// enter.
func (c Choice) Update(msg tea.Msg) Choice {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || c.Revealed {
		return c
	}
	switch k := kmsg.String(); k {
	case "up", "k":
		if c.Selected > 0 {
			c.Selected--
		}
	case "down", "j":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	default:
		if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
			if i := int(k[0] - '1'); i < len(c.Options) {
				c.Selected = i
			}
		}
	}
	return c
}

// Reveal shows the grading result.
func (c *Choice) Reveal(answer int) {
	c.Revealed = true
	c.Answer = answer
	c.Chosen = c.Selected
}

func (c Choice) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Selected && !c.Revealed {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)

		switch {
		case c.Revealed && i == c.Answer:
			b.WriteString(theme.Correct.Render(line))
		case c.Revealed && i == c.Chosen:
			b.WriteString(theme.Incorrect.Render(line))
		case c.Revealed:
			b.WriteString(theme.Hint.Render(line))
		case i == c.Selected:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
