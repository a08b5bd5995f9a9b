package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

const titleCompact = "L · I · N · G · B · O · O · K"

const titleFull = `╦  ╦╔╗╔╔═╗╔╗ ╔═╗╔═╗╦╔═
║  ║║║║║ ╦╠╩╗║ ║║ ║╠╩╗
╩═╝╩╝╚╝╚═╝╚═╝╚═╝╚═╝╩ ╩`

// dashboardStats are the counters shown above the menu.
type dashboardStats struct {
	SkillsUnlocked int
	SkillsTotal    int
	WordsLearned   int
	LessonsDone    int
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	title := titleFull
	if compact {
		title = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderStatsBar renders the counters in a bordered box matching the content
// width.
func renderStatsBar(s dashboardStats, cw int, compact bool) string {
	skillStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	wordStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	lessonStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s %s",
			skillStyle.Render(fmt.Sprintf("🔓%d/%d", s.SkillsUnlocked, s.SkillsTotal)),
			wordStyle.Render(fmt.Sprintf("📖%d", s.WordsLearned)),
			lessonStyle.Render(fmt.Sprintf("✓%d", s.LessonsDone)),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s",
			skillStyle.Render(fmt.Sprintf("🔓 %d/%d SKILLS", s.SkillsUnlocked, s.SkillsTotal)),
			wordStyle.Render(fmt.Sprintf("📖 %d WORDS", s.WordsLearned)),
			lessonStyle.Render(fmt.Sprintf("✓ %d LESSONS", s.LessonsDone)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 24

// renderMenu renders each item as a fixed-width button, or as plain lines
// when compact.
func renderMenu(items []string, selected int, cw int, compact bool) string {
	selectedBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.BgDark).
		Background(theme.Primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	normalBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	var lines []string
	for i, label := range items {
		switch {
		case compact && i == selected:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ "+label+" "))
		case compact:
			lines = append(lines, theme.Unselected.Render("   "+label))
		case i == selected:
			lines = append(lines, selectedBtn.Render("▸ "+label))
		default:
			lines = append(lines, normalBtn.Render(label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

func renderMascotBox(v MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(v))
}
