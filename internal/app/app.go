// Package app wires the screens into the root Bubble Tea model.
package app

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/router"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/screens/home"
	"github.com/dex/lingbook/internal/screens/welcome"
	"github.com/dex/lingbook/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Deps        screen.Deps
	UserName    string
	SkipWelcome bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router   *router.Router
	opts     Options
	updates  <-chan progression.Snapshot
	cancel   func()
	snapshot progression.Snapshot
	width    int
	height   int
}

// snapshotClosedMsg is sent once the controller stops publishing.
type snapshotClosedMsg struct{}

func newAppModel(opts Options) AppModel {
	homeFactory := func() screen.Screen { return home.New(opts.Deps) }

	var initial screen.Screen
	if opts.SkipWelcome {
		initial = homeFactory()
	} else {
		initial = welcome.New(opts.UserName, homeFactory)
	}

	m := AppModel{router: router.New(initial), opts: opts, cancel: func() {}}
	if opts.Deps.Controller != nil {
		m.updates, m.cancel = opts.Deps.Controller.Subscribe()
	}
	return m
}

// waitForSnapshot blocks until the controller publishes again.
func waitForSnapshot(ch <-chan progression.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return snapshotClosedMsg{}
		}
		return screen.SnapshotMsg{Snapshot: s}
	}
}

func (m AppModel) Init() tea.Cmd {
	var initCmd tea.Cmd
	if active := m.router.Active(); active != nil {
		initCmd = active.Init()
	}
	return tea.Batch(initCmd, waitForSnapshot(m.updates))
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.SnapshotMsg:
		m.snapshot = msg.Snapshot
		return m, tea.Batch(m.router.Update(msg), waitForSnapshot(m.updates))

	case snapshotClosedMsg:
		m.updates = nil
		return m, nil

	case router.PopScreenMsg:
		cmd := m.router.Update(msg)
		return m, tea.Batch(cmd, func() tea.Msg { return screen.ResumedMsg{} })

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.EscapeCapturer); ok && c.CapturesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, router.Pop
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) headerInfo() layout.HeaderInfo {
	info := layout.HeaderInfo{User: m.opts.UserName}
	for _, s := range m.snapshot.SkillMap.Skills {
		info.SkillsTotal++
		if s.Unlocked {
			info.SkillsUnlocked++
		}
	}
	return info
}

func (m AppModel) footerHints() []layout.KeyHint {
	active := m.router.Active()
	if p, ok := active.(screen.KeyHintProvider); ok {
		if hints := p.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.headerInfo(), m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := newAppModel(opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
