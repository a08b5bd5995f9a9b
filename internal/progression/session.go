// Package progression implements the lesson flow: the per-lesson answer
// session, the lesson cursor within a skill, grading, and the Controller
// that owns both for one learner and publishes their state.
package progression

import (
	"errors"

	"github.com/dex/lingbook/internal/catalog"
)

var (
	// ErrSessionFinished is returned when answering a finished session.
	ErrSessionFinished = errors.New("lesson session already finished")

	// ErrNoQuestion is returned when answering a session that was never
	// started with questions.
	ErrNoQuestion = errors.New("no question to answer")
)

// Session is one attempt at a lesson. Index only moves forward; Finished
// becomes true exactly when Index reaches len(Questions).
type Session struct {
	Questions    []catalog.Question
	Index        int
	CorrectCount int
	Finished     bool
}

// NewSession starts a session over qs. An empty question list yields a
// session that is already finished.
func NewSession(qs []catalog.Question) Session {
	return Session{Questions: qs, Finished: len(qs) == 0}
}

// Total returns the number of questions.
func (s Session) Total() int { return len(s.Questions) }

// Current returns the question being asked, false once finished.
func (s Session) Current() (catalog.Question, bool) {
	if s.Finished || s.Index >= len(s.Questions) {
		return catalog.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Answer records the outcome of the current question and advances.
func (s *Session) Answer(correct bool) error {
	if s.Finished {
		return ErrSessionFinished
	}
	if s.Index >= len(s.Questions) {
		return ErrNoQuestion
	}
	s.Index++
	if correct {
		s.CorrectCount++
	}
	s.Finished = s.Index >= len(s.Questions)
	return nil
}

// Accuracy returns the share of correct answers, 0..100.
func (s Session) Accuracy() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return s.CorrectCount * 100 / len(s.Questions)
}
