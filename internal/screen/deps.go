package screen

import (
	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/vocab"
)

// Voice speaks without blocking the UI.
type Voice interface {
	Say(text, lang string)
	Play(url string)
}

// Deps are the services screens call into. Vocab and History may be nil.
type Deps struct {
	Controller *progression.Controller
	Vocab      *vocab.Repository
	History    *history.Recorder
	Voice      Voice
	UserID     string
	Language   string // BCP-47 tag for speech
}

// Mute is a Voice that says nothing.
type Mute struct{}

func (Mute) Say(string, string) {}
func (Mute) Play(string)        {}
