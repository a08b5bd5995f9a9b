package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
)

type advancedMsg struct {
	more bool
	err  error
}

type unlockedMsg struct{ err error }

// SummaryScreen shows the result of a finished lesson and moves the learner
// on to the next lesson, or back to the skill map when the skill is done.
type SummaryScreen struct {
	deps   screen.Deps
	next   func() screen.Screen
	result progression.LessonState
	busy   bool
	errMsg string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.EscapeCapturer = (*SummaryScreen)(nil)

// New captures the finished lesson from the controller. next builds the
// screen for the following lesson.
func New(deps screen.Deps, next func() screen.Screen) *SummaryScreen {
	return &SummaryScreen{
		deps:   deps,
		next:   next,
		result: deps.Controller.Snapshot().Lesson,
	}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Lesson Summary"
}

func (s *SummaryScreen) CapturesEscape() bool { return true }

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Skill map"},
		}
	}
	action := "Next lesson"
	if s.result.IsLastLesson() {
		action = "Finish skill"
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: action},
		{Key: "Esc", Description: "Skill map"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case advancedMsg:
		s.busy = false
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		if msg.more {
			return s, router.Replace(s.next())
		}
		return s, nil

	case unlockedMsg:
		s.busy = false
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		return s, router.Pop

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			if s.errMsg != "" {
				return s, nil
			}
			return s, s.proceed()
		case "r", "R":
			if s.errMsg != "" && s.deps.Controller.CanRetry() {
				return s, s.retry()
			}
		case "esc":
			return s, s.leave()
		}
	}
	return s, nil
}

// proceed starts the next lesson, or completes the skill after the last.
func (s *SummaryScreen) proceed() tea.Cmd {
	c := s.deps.Controller
	s.busy = true
	if !s.result.IsLastLesson() {
		return func() tea.Msg {
			more, err := c.AdvanceToNextLesson(context.Background())
			return advancedMsg{more: more, err: err}
		}
	}
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := c.AdvanceToNextLesson(ctx); err != nil {
			return unlockedMsg{err: err}
		}
		return unlockedMsg{err: c.UnlockNextSkillAndRefresh(ctx)}
	}
}

func (s *SummaryScreen) retry() tea.Cmd {
	c := s.deps.Controller
	last := s.result.IsLastLesson()
	s.busy = true
	s.errMsg = ""
	return func() tea.Msg {
		err := c.Retry(context.Background())
		if last {
			return unlockedMsg{err: err}
		}
		return advancedMsg{more: err == nil, err: err}
	}
}

func (s *SummaryScreen) leave() tea.Cmd {
	c := s.deps.Controller
	return func() tea.Msg {
		c.Reset()
		_ = c.LoadSkillMap(context.Background())
		return router.PopScreenMsg{}
	}
}

func (s *SummaryScreen) View(width, height int) string {
	r := s.result
	sess := r.Session
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString("\n")
	title := "Lesson complete!"
	if r.IsLastLesson() {
		title = "Skill complete! 🎉"
	}
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.TextDim).Render(fmt.Sprintf("%s · %s", r.SkillTitle, r.Lesson.Title)))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Questions: %d        Correct: %d        Accuracy: %d%%",
		sess.Total(), sess.CorrectCount, sess.Accuracy())
	b.WriteString(center.Foreground(theme.Text).Render(stats))
	b.WriteString("\n\n")

	cw := components.ContentWidth(width)
	bar := components.NewProgressBar("Accuracy", sess.Accuracy(), true, cw).View()
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar))
	b.WriteString("\n\n")

	b.WriteString(center.Foreground(theme.Accent).Render(verdict(sess.Accuracy())))
	b.WriteString("\n\n")

	switch {
	case s.errMsg != "":
		b.WriteString(center.Foreground(theme.Error).Render(s.errMsg))
		b.WriteString("\n")
		b.WriteString(center.Foreground(theme.TextDim).Render("Press R to retry"))
	case s.busy:
		b.WriteString(center.Foreground(theme.TextDim).Render("Saving progress..."))
	case r.IsLastLesson():
		b.WriteString(center.Foreground(theme.TextDim).Render("Press Enter to unlock the next skill"))
	default:
		next := ""
		if i := r.LessonIndex + 1; i < len(r.Lessons) {
			next = r.Lessons[i].Title
		}
		b.WriteString(center.Foreground(theme.TextDim).Render("Up next: " + next))
	}
	return b.String()
}

func verdict(accuracy int) string {
	switch {
	case accuracy == 100:
		return "Perfect score!"
	case accuracy >= 80:
		return "Great job!"
	case accuracy >= 50:
		return "Nice work, keep practicing."
	}
	return "Every mistake is a step forward."
}
