package lesson

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screens/summary"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
)

// feedback is the graded question shown until the learner presses a key.
type feedback struct {
	correct  bool
	question catalog.Question
	answer   []string // word order only
	text     string   // translation only
}

// LessonScreen runs the questions of the open lesson one by one.
type LessonScreen struct {
	deps screen.Deps

	// key identifies the question the board or choice was built for.
	key    string
	board  *progression.WordOrderBoard
	cursor int
	choice components.Choice
	answer components.AnswerInput
	notice string

	feedback    *feedback
	submitting  bool
	confirmQuit bool
	errMsg      string
	spinner     spinner.Model
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.EscapeCapturer = (*LessonScreen)(nil)

// New creates the lesson screen. The controller must already have a skill
// open.
func New(deps screen.Deps) *LessonScreen {
	if deps.Voice == nil {
		deps.Voice = screen.Mute{}
	}
	return &LessonScreen{
		deps:    deps,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary))),
	}
}

func (s *LessonScreen) Init() tea.Cmd {
	return tea.Batch(s.prepare(), s.spinner.Tick)
}

func (s *LessonScreen) Title() string {
	l := s.state()
	if l.Lesson.Title == "" {
		return "Lesson"
	}
	return fmt.Sprintf("%s · %s", l.SkillTitle, l.Lesson.Title)
}

func (s *LessonScreen) CapturesEscape() bool { return true }

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.confirmQuit:
		return []layout.KeyHint{{Key: "Y", Description: "Leave lesson"}, {Key: "N", Description: "Keep going"}}
	case s.feedback != nil:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case s.errMsg != "" || s.state().Err != nil:
		return []layout.KeyHint{{Key: "R", Description: "Retry"}, {Key: "Esc", Description: "Back"}}
	}
	q, ok := s.current()
	if !ok {
		return nil
	}
	switch q.Type {
	case catalog.WordOrderLesson:
		return []layout.KeyHint{
			{Key: "←→", Description: "Move"},
			{Key: "Enter", Description: "Place/Check"},
			{Key: "⌫", Description: "Undo"},
			{Key: "X", Description: "Clear"},
			{Key: "Esc", Description: "Quit"},
		}
	case catalog.ListenChooseLesson:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Check"},
			{Key: "P", Description: "Play again"},
			{Key: "Esc", Description: "Quit"},
		}
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		return []layout.KeyHint{
			{Key: "type", Description: "Answer"},
			{Key: "Enter", Description: "Check"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Check"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *LessonScreen) state() progression.LessonState {
	return s.deps.Controller.Snapshot().Lesson
}

func (s *LessonScreen) current() (catalog.Question, bool) {
	return s.state().Session.Current()
}

// prepare builds the input widgets for the current question when it changed
// and moves on to the summary once the session is finished.
func (s *LessonScreen) prepare() tea.Cmd {
	if s.feedback != nil || s.submitting {
		return nil
	}
	l := s.state()
	if l.Phase() == progression.LessonFinished {
		return router.Replace(summary.New(s.deps, s.again))
	}
	q, ok := l.Session.Current()
	if !ok {
		return nil
	}
	key := fmt.Sprintf("%s/%s/%d", l.SkillID, l.Lesson.ID, l.Session.Index)
	if key == s.key {
		return nil
	}
	s.key = key
	s.board = nil
	s.cursor = 0
	s.notice = ""

	switch q.Type {
	case catalog.WordOrderLesson:
		s.board = progression.NewWordOrderBoard(q.WordOrder.Shuffled)
	case catalog.ListenChooseLesson:
		s.choice = components.NewChoice(q.ListenChoose.Options)
		s.play(q)
	case catalog.ImagePickLesson:
		labels := make([]string, len(q.ImagePick.Options))
		for i, o := range q.ImagePick.Options {
			labels[i] = o.Label
		}
		s.choice = components.NewChoice(labels)
	case catalog.TranslateViEnLesson, catalog.TranslateEnViLesson:
		s.answer = components.NewAnswerInput("Type your translation...", 40)
	}
	return nil
}

// again opens the lesson screen for whatever lesson the controller moved to.
func (s *LessonScreen) again() screen.Screen {
	return New(s.deps)
}

func (s *LessonScreen) play(q catalog.Question) {
	switch {
	case q.ListenChoose != nil:
		lc := q.ListenChoose
		if lc.AudioMode == catalog.AudioURL && lc.AudioURL != nil {
			s.deps.Voice.Play(*lc.AudioURL)
			return
		}
		s.deps.Voice.Say(lc.SpokenText(), s.deps.Language)
	case q.WordOrder != nil:
		text := q.WordOrder.Sentence
		if q.WordOrder.TTSText != nil && *q.WordOrder.TTSText != "" {
			text = *q.WordOrder.TTSText
		}
		s.deps.Voice.Say(text, s.deps.Language)
	}
}

func (s *LessonScreen) submit(r progression.Response) tea.Cmd {
	c := s.deps.Controller
	s.submitting = true
	return func() tea.Msg {
		correct, err := c.Submit(context.Background(), r)
		return submittedMsg{Correct: correct, Err: err}
	}
}

func (s *LessonScreen) retry() tea.Cmd {
	c := s.deps.Controller
	s.errMsg = ""
	return func() tea.Msg {
		return retriedMsg{Err: c.Retry(context.Background())}
	}
}

// leave drops the lesson, refreshes the skill map and pops back to it.
func (s *LessonScreen) leave() tea.Cmd {
	c := s.deps.Controller
	return func() tea.Msg {
		c.Reset()
		_ = c.LoadSkillMap(context.Background())
		return router.PopScreenMsg{}
	}
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case screen.SnapshotMsg:
		return s, s.prepare()

	case retriedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		return s, s.prepare()

	case submittedMsg:
		return s.handleSubmitted(msg)

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *LessonScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	s.submitting = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	l := s.state()
	// The session already moved on; the answered question is the previous one.
	idx := l.Session.Index - 1
	if idx < 0 || idx >= len(l.Session.Questions) {
		return s, s.prepare()
	}
	fb := &feedback{correct: msg.Correct, question: l.Session.Questions[idx]}
	switch {
	case fb.question.WordOrder != nil:
		if s.board != nil {
			fb.answer = s.board.Tokens()
		}
		if fb.correct {
			s.play(fb.question)
		}
	case fb.question.ListenChoose != nil:
		s.choice.Reveal(fb.question.ListenChoose.AnswerIndex)
	case fb.question.ImagePick != nil:
		s.choice.Reveal(fb.question.ImagePick.AnswerIndex)
	case fb.question.Translate != nil:
		fb.text = s.answer.Value()
		s.answer.Mark(fb.correct)
	}
	s.feedback = fb
	return s, nil
}

func (s *LessonScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, s.leave()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if s.feedback != nil {
		s.feedback = nil
		return s, s.prepare()
	}

	if s.submitting {
		return s, nil
	}

	l := s.state()
	if s.errMsg != "" || l.Err != nil {
		switch key {
		case "r", "R":
			if s.deps.Controller.CanRetry() {
				return s, s.retry()
			}
		case "esc":
			return s, s.leave()
		}
		return s, nil
	}
	if l.Loading {
		if key == "esc" {
			return s, s.leave()
		}
		return s, nil
	}

	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}

	q, ok := l.Session.Current()
	if !ok {
		return s, s.prepare()
	}
	switch {
	case q.Type == catalog.WordOrderLesson:
		return s.handleWordOrderKey(key)
	case q.Type.IsTranslate():
		return s.handleTranslateKey(msg)
	}
	return s.handleChoiceKey(q, msg)
}

func (s *LessonScreen) handleWordOrderKey(key string) (screen.Screen, tea.Cmd) {
	b := s.board
	if b == nil {
		return s, nil
	}
	switch key {
	case "left", "h":
		if s.cursor > 0 {
			s.cursor--
		}
	case "right", "l":
		if s.cursor < len(b.Pool())-1 {
			s.cursor++
		}
	case "enter", "space":
		if b.Complete() {
			return s, s.submit(progression.Response{Tokens: b.Tokens()})
		}
		if b.Pick(s.cursor) && s.cursor >= len(b.Pool()) {
			s.cursor = max(len(b.Pool())-1, 0)
		}
	case "backspace":
		if n := len(b.Selected()); n > 0 {
			b.Unpick(n - 1)
		}
	case "x", "X":
		b.Clear()
		s.cursor = 0
	}
	return s, nil
}

func (s *LessonScreen) handleTranslateKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if msg.String() == "enter" {
		if s.answer.Blank() {
			s.notice = "Type an answer first"
			return s, nil
		}
		return s, s.submit(progression.Response{Text: s.answer.Value()})
	}
	s.notice = ""
	var cmd tea.Cmd
	s.answer, cmd = s.answer.Update(msg)
	return s, cmd
}

func (s *LessonScreen) handleChoiceKey(q catalog.Question, msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return s, s.submit(progression.Response{Option: s.choice.Selected})
	case "p", "P":
		s.play(q)
		return s, nil
	}
	s.choice = s.choice.Update(msg)
	return s, nil
}
