// Package flashcards is the vocabulary review screen: pick a topic, flip
// through its words and mark each one known or not.
package flashcards

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
	"github.com/dex/lingbook/internal/ui/theme"
	"github.com/dex/lingbook/internal/vocab"
)

type mode int

const (
	modeTopics mode = iota
	modeDeck
	modeLearned
)

type topicsLoadedMsg struct {
	Topics []string
	Err    error
}

type deckLoadedMsg struct {
	Topic    string
	Words    []vocab.Word
	Progress map[string]vocab.Progress
	Err      error
}

type markedMsg struct {
	WordID  string
	Learned bool
	Err     error
}

type learnedLoadedMsg struct {
	Words []vocab.Word
	Err   error
}

// FlashcardsScreen reviews vocabulary one card at a time.
type FlashcardsScreen struct {
	deps screen.Deps
	mode mode

	topics components.Menu
	loaded bool

	topic    string
	deck     *vocab.Deck
	progress map[string]vocab.Progress

	learned       []vocab.Word
	learnedCursor int

	notice string
	errMsg string
}

var _ screen.Screen = (*FlashcardsScreen)(nil)
var _ screen.KeyHintProvider = (*FlashcardsScreen)(nil)
var _ screen.EscapeCapturer = (*FlashcardsScreen)(nil)

func New(deps screen.Deps) *FlashcardsScreen {
	if deps.Voice == nil {
		deps.Voice = screen.Mute{}
	}
	return &FlashcardsScreen{deps: deps, progress: map[string]vocab.Progress{}}
}

func (s *FlashcardsScreen) Init() tea.Cmd {
	repo := s.deps.Vocab
	return func() tea.Msg {
		topics, err := repo.Topics(context.Background())
		return topicsLoadedMsg{Topics: topics, Err: err}
	}
}

func (s *FlashcardsScreen) Title() string {
	if s.mode != modeTopics && s.topic != "" {
		return "Flashcards · " + s.topic
	}
	return "Flashcards"
}

func (s *FlashcardsScreen) CapturesEscape() bool { return true }

func (s *FlashcardsScreen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeDeck:
		return []layout.KeyHint{
			{Key: "Space", Description: "Flip"},
			{Key: "←→", Description: "Prev/Next"},
			{Key: "K", Description: "Know it"},
			{Key: "D", Description: "Still learning"},
			{Key: "P", Description: "Say"},
			{Key: "Tab", Description: "Learned"},
			{Key: "Esc", Description: "Topics"},
		}
	case modeLearned:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Go to card"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Study"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *FlashcardsScreen) loadDeck(topic string) tea.Cmd {
	repo, uid := s.deps.Vocab, s.deps.UserID
	return func() tea.Msg {
		ctx := context.Background()
		words, err := repo.Words(ctx, topic)
		if err != nil {
			return deckLoadedMsg{Err: err}
		}
		progress, err := repo.Progress(ctx, uid)
		return deckLoadedMsg{Topic: topic, Words: words, Progress: progress, Err: err}
	}
}

func (s *FlashcardsScreen) loadLearned() tea.Cmd {
	repo, uid := s.deps.Vocab, s.deps.UserID
	return func() tea.Msg {
		words, err := repo.LearnedWords(context.Background(), uid)
		return learnedLoadedMsg{Words: words, Err: err}
	}
}

func (s *FlashcardsScreen) mark(learned bool) tea.Cmd {
	w, ok := s.deck.Current()
	if !ok {
		return nil
	}
	repo, uid := s.deps.Vocab, s.deps.UserID
	return func() tea.Msg {
		err := repo.SetLearned(context.Background(), uid, w.ID, learned)
		return markedMsg{WordID: w.ID, Learned: learned, Err: err}
	}
}

func (s *FlashcardsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case topicsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		items := []components.MenuItem{{Label: "All words", Action: func() tea.Cmd { return s.loadDeck("") }}}
		for _, t := range msg.Topics {
			items = append(items, components.MenuItem{Label: t, Action: func() tea.Cmd { return s.loadDeck(t) }})
		}
		s.topics = components.NewMenu(items)
		return s, nil

	case deckLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.topic = msg.Topic
		if s.topic == "" {
			s.topic = "all"
		}
		s.deck = vocab.NewDeck(msg.Words)
		s.progress = msg.Progress
		s.mode = modeDeck
		s.notice = ""
		return s, nil

	case markedMsg:
		if msg.Err != nil {
			s.notice = msg.Err.Error()
			return s, nil
		}
		p := s.progress[msg.WordID]
		p.IsLearned = msg.Learned
		p.ReviewCount++
		s.progress[msg.WordID] = p
		if !s.deck.Next() {
			s.notice = "End of deck. Nice work!"
		}
		return s, nil

	case learnedLoadedMsg:
		if msg.Err != nil {
			s.notice = msg.Err.Error()
			return s, nil
		}
		s.learned = msg.Words
		s.learnedCursor = 0
		s.mode = modeLearned
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *FlashcardsScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()
	if s.errMsg != "" {
		if key == "esc" {
			return s, router.Pop
		}
		return s, nil
	}

	switch s.mode {
	case modeTopics:
		if key == "esc" {
			return s, router.Pop
		}
		var cmd tea.Cmd
		s.topics, cmd = s.topics.Update(msg)
		return s, cmd

	case modeLearned:
		switch key {
		case "esc", "tab":
			s.mode = modeDeck
		case "up", "k":
			if s.learnedCursor > 0 {
				s.learnedCursor--
			}
		case "down", "j":
			if s.learnedCursor < len(s.learned)-1 {
				s.learnedCursor++
			}
		case "enter":
			if s.learnedCursor < len(s.learned) {
				w := s.learned[s.learnedCursor]
				if s.deck.JumpTo(w.ID) {
					s.notice = ""
				} else {
					s.notice = fmt.Sprintf("%q is not in this deck.", w.Word)
				}
				s.mode = modeDeck
			}
		}
		return s, nil
	}

	s.notice = ""
	switch key {
	case "esc":
		s.mode = modeTopics
	case "space", "enter":
		s.deck.Flip()
	case "right", "l":
		if !s.deck.Next() {
			s.notice = "That was the last card."
		}
	case "left", "h":
		s.deck.Prev()
	case "k", "K":
		return s, s.mark(true)
	case "d", "D":
		return s, s.mark(false)
	case "p", "P":
		if w, ok := s.deck.Current(); ok {
			s.deps.Voice.Say(w.Word, s.deps.Language)
		}
	case "tab":
		return s, s.loadLearned()
	}
	return s, nil
}

func (s *FlashcardsScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading words...")
	}
	switch s.mode {
	case modeDeck:
		return s.renderDeck(width, height)
	case modeLearned:
		return s.renderLearned(width)
	}
	body := theme.Title.Render("Choose a topic") + "\n\n" + s.topics.View()
	return layout.Centered(body, width, height)
}

func (s *FlashcardsScreen) renderDeck(width, height int) string {
	w, ok := s.deck.Current()
	if !ok {
		return layout.Centered(theme.Hint.Render("No words in this topic yet."), width, height)
	}
	cw := components.ContentWidth(width)

	var face strings.Builder
	face.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(w.Word))
	if w.Pronunciation != "" {
		face.WriteString("\n" + theme.Hint.Render(w.Pronunciation))
	}
	if w.Type != "" {
		face.WriteString("\n" + lipgloss.NewStyle().Foreground(theme.Secondary).Render("("+w.Type+")"))
	}
	if s.deck.ShowingBack() {
		face.WriteString("\n\n" + theme.Body.Bold(true).Render(w.Definition))
		if w.Example != "" {
			face.WriteString("\n\n" + theme.Hint.Render("“"+w.Example+"”"))
		}
		if w.ImageURL != "" {
			face.WriteString("\n" + theme.Hint.Render("🖼  "+w.ImageURL))
		}
	} else {
		face.WriteString("\n\n" + theme.Hint.Render("Press space to flip"))
	}

	status := theme.Hint.Render("new")
	if p, ok := s.progress[w.ID]; ok {
		if p.IsLearned {
			status = theme.Correct.Render("✓ learned")
		} else {
			status = lipgloss.NewStyle().Foreground(theme.Accent).Render("still learning")
		}
		status += theme.Hint.Render(fmt.Sprintf("  · reviewed %d×", p.ReviewCount))
	}

	counter := fmt.Sprintf("Card %d/%d", s.deck.Index()+1, s.deck.Len())
	bar := components.NewProgressBar(counter, s.deck.Percent(), false, cw).View()

	sections := []string{
		bar,
		components.Card(face.String(), cw),
		status,
	}
	if s.notice != "" {
		sections = append(sections, theme.Hint.Render(s.notice))
	}
	return layout.Centered(lipgloss.JoinVertical(lipgloss.Center, sections...), width, height)
}

func (s *FlashcardsScreen) renderLearned(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Accent).Bold(true).Render(fmt.Sprintf("Learned words (%d)", len(s.learned))))
	b.WriteString("\n\n")
	if len(s.learned) == 0 {
		b.WriteString(center.Foreground(theme.TextDim).Italic(true).Render("Nothing marked as learned yet."))
		return b.String()
	}
	for i, w := range s.learned {
		prefix := "  "
		style := theme.Unselected
		if i == s.learnedCursor {
			prefix = "> "
			style = theme.Selected
		}
		line := fmt.Sprintf("%s%-16s %s", prefix, w.Word, w.Definition)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}
