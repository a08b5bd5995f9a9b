package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// SnapshotMsg delivers a new progression state to the active screen.
type SnapshotMsg struct {
	progression.Snapshot
}

// EscapeCapturer is implemented by screens that handle esc themselves
// instead of letting the app pop them.
type EscapeCapturer interface {
	CapturesEscape() bool
}

// ResumedMsg is sent to a screen when it becomes active again after the
// screen above it was popped.
type ResumedMsg struct{}
