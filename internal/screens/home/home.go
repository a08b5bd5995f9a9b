package home

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screens/flashcards"
	"github.com/dex/lingbook/internal/screens/placeholder"
	"github.com/dex/lingbook/internal/screens/skillmap"
	"github.com/dex/lingbook/internal/screens/stats"
	"github.com/dex/lingbook/internal/ui/components"
	"github.com/dex/lingbook/internal/ui/layout"
)

type statsLoadedMsg struct {
	WordsLearned int
	LessonsDone  int
	LastLesson   time.Time
}

// HomeScreen is the main menu.
type HomeScreen struct {
	deps       screen.Deps
	menu       components.Menu
	menuLabels []string
	stats      dashboardStats
	mascot     MascotVariant
	now        func() time.Time
}

var _ screen.Screen = (*HomeScreen)(nil)

func New(deps screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps, now: time.Now, mascot: MascotSleepy}

	h.menuLabels = []string{"CONTINUE LEARNING", "FLASHCARDS", "MY STATS", "EXIT"}
	items := []components.MenuItem{
		{Label: h.menuLabels[0], Action: func() tea.Cmd {
			return router.Push(skillmap.New(deps))
		}},
		{Label: h.menuLabels[1], Action: func() tea.Cmd {
			if deps.Vocab == nil {
				return router.Push(placeholder.New("Flashcards", "Vocabulary needs a catalog store. Run `lingbook seed` first."))
			}
			return router.Push(flashcards.New(deps))
		}},
		{Label: h.menuLabels[2], Action: func() tea.Cmd {
			return router.Push(stats.New(deps))
		}},
		{Label: h.menuLabels[3], Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return tea.Batch(h.loadSkills(), h.loadStats())
}

// loadSkills refreshes the skill map so the header and counters are current.
// Errors surface on the skill map screen.
func (h *HomeScreen) loadSkills() tea.Cmd {
	c := h.deps.Controller
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		_ = c.LoadSkillMap(context.Background())
		return nil
	}
}

func (h *HomeScreen) loadStats() tea.Cmd {
	deps := h.deps
	return func() tea.Msg {
		ctx := context.Background()
		var msg statsLoadedMsg
		if deps.Vocab != nil {
			if words, err := deps.Vocab.LearnedWords(ctx, deps.UserID); err == nil {
				msg.WordsLearned = len(words)
			}
		}
		if deps.History != nil {
			if attempts, err := deps.History.Recent(ctx, deps.UserID, 0); err == nil {
				msg.LessonsDone = len(attempts)
				if len(attempts) > 0 {
					msg.LastLesson = attempts[0].FinishedAt
				}
			}
		}
		return msg
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		h.stats.WordsLearned = msg.WordsLearned
		h.stats.LessonsDone = msg.LessonsDone
		switch {
		case msg.LessonsDone == 0:
			h.mascot = MascotSleepy
		case h.now().Sub(msg.LastLesson) < 24*time.Hour:
			h.mascot = MascotCheering
		default:
			h.mascot = MascotIdle
		}
		return h, nil

	case screen.ResumedMsg:
		return h, h.loadStats()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) skillCounts() (unlocked, total int) {
	if h.deps.Controller == nil {
		return 0, 0
	}
	skills := h.deps.Controller.Snapshot().SkillMap.Skills
	for _, s := range skills {
		if s.Unlocked {
			unlocked++
		}
	}
	return unlocked, len(skills)
}

func (h *HomeScreen) View(width, height int) string {
	compact := layout.IsCompact(width, height+8)
	cw := components.ContentWidth(width)

	st := h.stats
	st.SkillsUnlocked, st.SkillsTotal = h.skillCounts()

	sections := []string{renderTitle(cw, compact)}
	if !compact {
		sections = append(sections, renderMascotBox(h.mascot, cw))
	}
	sections = append(sections,
		renderStatsBar(st, cw, compact),
		renderMenu(h.menuLabels, h.menu.Selected, cw, compact),
	)

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
