package stats

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
)

// recentLimit bounds the attempts the screen loads.
const recentLimit = 50

type statsLoadedMsg struct {
	Attempts []history.Attempt
	Err      error
}

// StatsScreen shows per-skill totals of finished lessons. Enter expands a
// skill into its recent attempts.
type StatsScreen struct {
	deps     screen.Deps
	attempts []history.Attempt
	skills   []history.SkillStats
	titles   map[string]string
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*StatsScreen)(nil)
var _ screen.KeyHintProvider = (*StatsScreen)(nil)

func New(deps screen.Deps) *StatsScreen {
	titles := map[string]string{}
	if deps.Controller != nil {
		for _, s := range deps.Controller.Snapshot().SkillMap.Skills {
			titles[s.ID] = s.Icon + " " + s.Title
		}
	}
	return &StatsScreen{
		deps:     deps,
		titles:   titles,
		expanded: make(map[int]bool),
	}
}

func (s *StatsScreen) Init() tea.Cmd {
	rec, uid := s.deps.History, s.deps.UserID
	return func() tea.Msg {
		if rec == nil {
			return statsLoadedMsg{}
		}
		attempts, err := rec.Recent(context.Background(), uid, recentLimit)
		return statsLoadedMsg{Attempts: attempts, Err: err}
	}
}

func (s *StatsScreen) Title() string {
	return "My Stats"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.attempts = msg.Attempts
			s.skills = history.Summarize(msg.Attempts)
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.skills)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *StatsScreen) title(skillID string) string {
	if t, ok := s.titles[skillID]; ok {
		return t
	}
	return skillID
}

func (s *StatsScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading stats...")
	}
	if len(s.skills) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No lessons finished yet. Start learning!")
	}

	var total, correct int
	for _, sk := range s.skills {
		total += sk.Questions
		correct += sk.Correct
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Accent).Bold(true).Render(
		fmt.Sprintf("%d lessons · %d questions · %d%% correct", len(s.attempts), total, percent(correct, total))))
	b.WriteString("\n\n")

	for i, sk := range s.skills {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%-18s  %d lessons  %d questions  %d%% accuracy  last %s",
			prefix, s.title(sk.SkillID), sk.Lessons, sk.Questions, sk.Accuracy(),
			sk.LastPlayed.Format("Jan 02"))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, a := range s.attempts {
				if a.SkillID != sk.SkillID {
					continue
				}
				detail := fmt.Sprintf("    %s  %-14s %s  %d/%d",
					a.FinishedAt.Format("Jan 02 15:04"), a.LessonID, a.LessonType.Label(), a.Correct, a.Total)
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(accuracyColor(a.Accuracy())).Render(detail)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return n * 100 / d
}

func accuracyColor(acc int) color.Color {
	switch {
	case acc == 100:
		return theme.Accent
	case acc >= 80:
		return theme.Success
	case acc >= 50:
		return theme.Text
	default:
		return theme.Error
	}
}
