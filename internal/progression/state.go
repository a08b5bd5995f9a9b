package progression

import (
	"errors"
	"fmt"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/learn"
)

var (
	// ErrNoLessons is reported when an opened skill has no lessons.
	ErrNoLessons = errors.New("this skill has no lessons yet")

	// ErrSkillLocked is returned when opening a skill that is not unlocked.
	ErrSkillLocked = errors.New("skill is locked")

	// ErrNoActiveLesson is returned by lesson intents when no lesson is open.
	ErrNoActiveLesson = errors.New("no lesson in progress")

	// ErrBusy is returned when a lesson intent arrives while questions are
	// still loading.
	ErrBusy = errors.New("lesson is loading")
)

// SkillMapPhase is the coarse state of the skill map.
type SkillMapPhase int

const (
	SkillMapIdle SkillMapPhase = iota
	SkillMapLoading
	SkillMapReady
	SkillMapError
)

// SkillMapState is what the skill map screen renders.
type SkillMapState struct {
	Loading bool
	Loaded  bool
	Skills  []learn.Skill
	Err     error
}

// Phase derives the state machine position.
func (s SkillMapState) Phase() SkillMapPhase {
	switch {
	case s.Loading:
		return SkillMapLoading
	case s.Err != nil:
		return SkillMapError
	case s.Loaded:
		return SkillMapReady
	}
	return SkillMapIdle
}

// NeedsSignIn reports a missing identity. Retrying does not help; the user
// has to sign in first.
func (s SkillMapState) NeedsSignIn() bool {
	return errors.Is(s.Err, learn.ErrUnauthenticated)
}

// LessonPhase is the coarse state of the lesson screen.
type LessonPhase int

const (
	LessonIdle LessonPhase = iota
	LessonLoading
	LessonInProgress
	LessonFinished
)

// LessonState is what the lesson and summary screens render.
type LessonState struct {
	Loading bool
	Err     error

	// Active is set once a skill has been opened and its lessons are known.
	Active      bool
	SkillID     string
	SkillTitle  string
	Lessons     []catalog.Lesson
	LessonIndex int
	Lesson      catalog.Lesson
	Session     Session

	// SkillComplete is set when AdvanceToNextLesson ran past the last lesson.
	SkillComplete bool
}

// Phase derives the state machine position.
func (l LessonState) Phase() LessonPhase {
	switch {
	case l.Loading:
		return LessonLoading
	case !l.Active:
		return LessonIdle
	case l.Session.Finished:
		return LessonFinished
	}
	return LessonInProgress
}

// ready reports why no answer can be taken right now, nil when a question
// load has succeeded.
func (l LessonState) ready() error {
	switch {
	case !l.Active:
		return ErrNoActiveLesson
	case l.Loading:
		return ErrBusy
	case l.Err != nil:
		return fmt.Errorf("%w: %w", ErrNoActiveLesson, l.Err)
	}
	return nil
}

// IsLastLesson reports whether the open lesson is the last of its skill.
func (l LessonState) IsLastLesson() bool {
	return l.Active && l.LessonIndex == len(l.Lessons)-1
}

// Snapshot is one published state. Seq increases with every change.
// Snapshots share slices with later ones and must be treated as read-only.
type Snapshot struct {
	Seq      uint64
	SkillMap SkillMapState
	Lesson   LessonState
}
