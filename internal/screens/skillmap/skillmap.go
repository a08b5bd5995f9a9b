package skillmap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/learn"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screens/lesson"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
)

type loadedMsg struct{ err error }

type openedMsg struct {
	skillID string
	err     error
}

// SkillMapScreen lists the skills with their lock state and progress.
type SkillMapScreen struct {
	deps    screen.Deps
	cursor  int
	scroll  int
	notice  string
	opening bool
	spinner spinner.Model
}

var _ screen.Screen = (*SkillMapScreen)(nil)
var _ screen.KeyHintProvider = (*SkillMapScreen)(nil)

func New(deps screen.Deps) *SkillMapScreen {
	return &SkillMapScreen{
		deps:    deps,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary))),
	}
}

func (s *SkillMapScreen) Init() tea.Cmd {
	return tea.Batch(s.load(), s.spinner.Tick)
}

func (s *SkillMapScreen) Title() string { return "Skill Map" }

func (s *SkillMapScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
	}
	if s.state().Err != nil {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *SkillMapScreen) state() progression.SkillMapState {
	return s.deps.Controller.Snapshot().SkillMap
}

func (s *SkillMapScreen) load() tea.Cmd {
	c := s.deps.Controller
	return func() tea.Msg {
		return loadedMsg{err: c.LoadSkillMap(context.Background())}
	}
}

func (s *SkillMapScreen) retry() tea.Cmd {
	c := s.deps.Controller
	if !c.CanRetry() {
		return s.load()
	}
	return func() tea.Msg {
		return loadedMsg{err: c.Retry(context.Background())}
	}
}

func (s *SkillMapScreen) open(skill learn.Skill) tea.Cmd {
	c := s.deps.Controller
	s.opening = true
	s.notice = ""
	return func() tea.Msg {
		return openedMsg{skillID: skill.ID, err: c.OpenSkill(context.Background(), skill.ID)}
	}
}

func (s *SkillMapScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case loadedMsg:
		// Errors are rendered from the snapshot.
		s.clampCursor()
		return s, nil

	case openedMsg:
		s.opening = false
		switch {
		case errors.Is(msg.err, progression.ErrNoLessons):
			s.notice = "This skill has no lessons yet."
		case msg.err != nil:
			s.notice = msg.err.Error()
		default:
			return s, router.Push(lesson.New(s.deps))
		}
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SkillMapScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.opening {
		return s, nil
	}
	skills := s.state().Skills
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		s.notice = ""
	case "down", "j":
		if s.cursor < len(skills)-1 {
			s.cursor++
		}
		s.notice = ""
	case "r":
		if s.state().Err != nil {
			return s, s.retry()
		}
	case "enter":
		if s.cursor >= len(skills) {
			return s, nil
		}
		sk := skills[s.cursor]
		if !sk.Unlocked {
			s.notice = fmt.Sprintf("%s is locked. Finish the skill before it first.", sk.Title)
			return s, nil
		}
		return s, s.open(sk)
	}
	return s, nil
}

func (s *SkillMapScreen) clampCursor() {
	n := len(s.state().Skills)
	if s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func (s *SkillMapScreen) View(width, height int) string {
	st := s.state()
	switch st.Phase() {
	case progression.SkillMapIdle, progression.SkillMapLoading:
		return layout.Centered(s.spinner.View()+" Loading skills...", width, height)
	case progression.SkillMapError:
		if st.NeedsSignIn() {
			return layout.Centered(theme.Incorrect.Render("You are not signed in.")+"\n\n"+
				theme.Hint.Render("Run `lingbook login` or start with --user."), width, height)
		}
		return layout.Centered(theme.Incorrect.Render("Could not load skills")+"\n\n"+
			theme.Hint.Render(st.Err.Error())+"\n\n"+
			theme.Body.Render("Press R to retry"), width, height)
	}
	if len(st.Skills) == 0 {
		return layout.Centered(theme.Hint.Render("No skills yet. Seed a catalog with `lingbook seed`."), width, height)
	}

	cw := components.ContentWidth(width)
	rowsVisible := max((height-2)/2, 1)
	if s.cursor < s.scroll {
		s.scroll = s.cursor
	}
	if s.cursor >= s.scroll+rowsVisible {
		s.scroll = s.cursor - rowsVisible + 1
	}

	var lines []string
	for i := s.scroll; i < len(st.Skills) && i < s.scroll+rowsVisible; i++ {
		lines = append(lines, renderSkill(st.Skills[i], i == s.cursor, cw))
	}
	if s.opening {
		lines = append(lines, s.spinner.View()+" Opening...")
	} else if s.notice != "" {
		lines = append(lines, theme.Hint.Render(s.notice))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(lines, "\n"))
}

func renderSkill(sk learn.Skill, selected bool, cw int) string {
	prefix := "  "
	if selected {
		prefix = "▸ "
	}
	title := fmt.Sprintf("%s%s  %s", prefix, sk.Icon, sk.Title)

	var status string
	style := theme.Unselected
	switch {
	case !sk.Unlocked:
		status = "🔒"
		style = theme.Disabled
	case sk.Progress >= 100:
		status = "✓"
	}
	if selected && sk.Unlocked {
		style = theme.Selected
	}
	head := style.Render(title) + "  " + status

	bar := ""
	if sk.Unlocked {
		bar = "    " + components.NewProgressBar("", sk.Progress, true, cw-4).View()
	}
	return lipgloss.NewStyle().Width(cw).Render(head) + "\n" + bar
}
