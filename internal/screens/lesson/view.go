package lesson

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
)

func (s *LessonScreen) View(width, height int) string {
	l := s.state()
	switch {
	case s.confirmQuit:
		return renderQuitConfirm(width, height)
	case s.errMsg != "":
		return renderError(width, height, s.errMsg)
	case l.Err != nil:
		return renderError(width, height, l.Err.Error())
	case l.Loading || !l.Active:
		return layout.Centered(s.spinner.View()+" Loading lesson...", width, height)
	}

	var b strings.Builder
	b.WriteString(s.renderInfo(l, width))
	b.WriteString("\n\n")

	q, ok := l.Session.Current()
	if s.feedback != nil {
		q, ok = s.feedback.question, true
	}
	if !ok {
		return layout.Centered(s.spinner.View()+" Wrapping up...", width, height)
	}

	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	b.WriteString(center.Foreground(theme.Text).Bold(true).Render(instruction(q)))
	b.WriteString("\n\n")

	switch q.Type {
	case catalog.WordOrderLesson:
		b.WriteString(s.renderWordOrder(width))
	case catalog.ListenChooseLesson:
		b.WriteString(center.Foreground(theme.Secondary).Render("🔊 Listen carefully"))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View()))
	case catalog.ImagePickLesson:
		b.WriteString(center.Foreground(theme.Accent).Bold(true).Render(q.ImagePick.Prompt))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderImageOptions(q.ImagePick)))
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		b.WriteString(center.Foreground(theme.Accent).Bold(true).Render(q.Translate.Source))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.answer.View()))
		if s.notice != "" {
			b.WriteString("\n")
			b.WriteString(center.Foreground(theme.Error).Render(s.notice))
		}
		b.WriteString("\n")
	}

	if s.feedback != nil {
		b.WriteString("\n")
		b.WriteString(renderFeedback(s.feedback, width))
	} else if s.submitting {
		b.WriteString("\n")
		b.WriteString(center.Render(s.spinner.View() + " Checking..."))
	}
	return b.String()
}

func (s *LessonScreen) renderInfo(l progression.LessonState, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s  ·  %s", l.Lesson.Type.Label(), l.Lesson.Title))

	sess := l.Session
	answered := sess.Index
	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Lesson %d/%d  Q %d/%d  %s %d",
			l.LessonIndex+1, len(l.Lessons),
			min(answered+1, sess.Total()), sess.Total(),
			lipgloss.NewStyle().Foreground(theme.Success).Render("✓"),
			sess.CorrectCount,
		))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 2; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}

	pct := 0
	if sess.Total() > 0 {
		pct = answered * 100 / sess.Total()
	}
	bar := components.NewProgressBar("", pct, false, max(width-4, 10)).View()
	return line + "\n  " + bar
}

func instruction(q catalog.Question) string {
	switch q.Type {
	case catalog.WordOrderLesson:
		return "Put the words in order"
	case catalog.ListenChooseLesson:
		return "What did you hear?"
	case catalog.ImagePickLesson:
		return "Pick the matching picture"
	case catalog.TranslateViEnLesson:
		return "Translate into English"
	case catalog.TranslateEnViLesson:
		return "Translate into Vietnamese"
	}
	return ""
}

func (s *LessonScreen) renderWordOrder(width int) string {
	if s.board == nil {
		return ""
	}
	var answer []string
	if s.feedback != nil {
		answer = s.feedback.answer
	} else {
		answer = s.board.Tokens()
	}

	var pool []string
	for _, t := range s.board.Pool() {
		pool = append(pool, t.Text)
	}
	active := s.cursor
	if s.feedback != nil {
		active = -1
	}

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("Your sentence")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, components.Tiles(answer, -1, true)))
	b.WriteString("\n\n")
	if s.feedback == nil {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, components.Tiles(pool, active, false)))
		b.WriteString("\n")
		if s.board.Complete() {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render("Press Enter to check")))
		}
	}
	return b.String()
}

func (s *LessonScreen) renderImageOptions(ip *catalog.ImagePick) string {
	view := s.choice.View()
	i := s.choice.Selected
	if s.choice.Revealed {
		i = s.choice.Answer
	}
	if i >= 0 && i < len(ip.Options) && ip.Options[i].ImageURL != "" {
		view += "\n" + theme.Hint.Render("🖼  "+ip.Options[i].ImageURL)
	}
	return view
}

func renderFeedback(fb *feedback, width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder
	if fb.correct {
		b.WriteString(center.Foreground(theme.Success).Bold(true).Render("Correct!"))
	} else {
		b.WriteString(center.Foreground(theme.Error).Bold(true).Render("Not quite"))
		switch {
		case fb.question.WordOrder != nil:
			b.WriteString("\n")
			b.WriteString(center.Foreground(theme.TextDim).Render("Correct answer: " + fb.question.WordOrder.Sentence))
		case fb.question.Translate != nil:
			b.WriteString("\n")
			b.WriteString(center.Foreground(theme.TextDim).Render("Correct answer: " + strings.Join(fb.question.Translate.Accepted, " / ")))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(center.Foreground(theme.TextDim).Render("Press any key to continue..."))
	return b.String()
}

func renderQuitConfirm(width, height int) string {
	body := theme.Body.Bold(true).Render("Leave this lesson?") + "\n" +
		theme.Hint.Render("Answers so far will not count.") + "\n\n" +
		lipgloss.NewStyle().Foreground(theme.Success).Render("[Y] Yes, leave") + "\n" +
		lipgloss.NewStyle().Foreground(theme.Primary).Render("[N] No, keep going")
	return layout.Centered(body, width, height)
}

func renderError(width, height int, errMsg string) string {
	return layout.Centered(
		theme.Incorrect.Render("Something went wrong")+"\n\n"+
			theme.Hint.Render(errMsg)+"\n\n"+
			theme.Body.Render("R to retry · Esc to go back"),
		width, height)
}
