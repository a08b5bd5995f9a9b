package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/identity"
	"github.com/dex/lingbook/internal/learn"
)

// Repository is the subset of learn.Repository the controller drives.
type Repository interface {
	SkillsForUser(ctx context.Context, uid string) ([]learn.Skill, error)
	Lessons(ctx context.Context, skillID string) ([]catalog.Lesson, error)
	Questions(ctx context.Context, lesson catalog.Lesson) ([]catalog.Question, error)
	Progress(ctx context.Context, uid, skillID string) (learn.SkillProgress, error)
	SetResumeLessonIndex(ctx context.Context, uid, skillID string, index int)
	UnlockNextSkill(ctx context.Context, uid, skillID string) error
	CompleteSkill(ctx context.Context, uid, skillID string) error
	EnsureProgressInitialized(ctx context.Context, uid string) error
}

// Recorder stores finished lessons.
type Recorder interface {
	Record(ctx context.Context, uid string, a history.Attempt)
}

// Activity is told about every learner interaction.
type Activity interface {
	Touch(ctx context.Context, uid string, now time.Time) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithResume makes OpenSkill continue at the persisted lesson index instead
// of the first lesson.
func WithResume(resume bool) Option {
	return func(c *Controller) { c.resume = resume }
}

// WithHistory records every finished lesson.
func WithHistory(r Recorder) Option {
	return func(c *Controller) { c.history = r }
}

// WithActivity reports interactions for inactivity reminders.
func WithActivity(a Activity) Option {
	return func(c *Controller) { c.activity = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the skill map and lesson state of one learner. Intents are
// serialized; every state change is published as a whole Snapshot.
type Controller struct {
	repo     Repository
	users    identity.Provider
	history  Recorder
	activity Activity
	logger   *slog.Logger
	now      func() time.Time
	resume   bool

	mu          sync.Mutex // serializes intents
	uid         string
	course      Course
	initialized map[string]bool
	retry       func(context.Context) error

	stateMu sync.RWMutex
	state   Snapshot
	bc      broadcaster
}

// NewController creates a controller for the user users resolves.
func NewController(repo Repository, users identity.Provider, opts ...Option) *Controller {
	c := &Controller{
		repo:        repo,
		users:       users,
		now:         time.Now,
		initialized: map[string]bool{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one, coalescing snapshots the reader has not consumed yet.
// cancel unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.bc.subscribe(c.state)
}

// Close closes every subscription.
func (c *Controller) Close() {
	c.bc.closeAll()
}

func (c *Controller) update(fn func(*Snapshot)) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	next := c.state
	fn(&next)
	next.Seq = c.state.Seq + 1
	c.state = next
	c.bc.publish(next)
}

func (c *Controller) currentUser(ctx context.Context, op string) (string, error) {
	u, err := c.users.CurrentUser(ctx)
	if err != nil || u.ID == "" {
		if err == nil {
			err = identity.ErrNotSignedIn
		}
		return "", &learn.Error{Kind: learn.KindUnauthenticated, Op: op, Err: err}
	}
	c.uid = u.ID
	return u.ID, nil
}

func (c *Controller) touch(ctx context.Context) {
	if c.activity == nil || c.uid == "" {
		return
	}
	if err := c.activity.Touch(ctx, c.uid, c.now()); err != nil {
		c.logger.Warn("touch activity failed", "op", "activity.touch", "user", c.uid, "err", err)
	}
}

// setRetry remembers fn when err is a remote failure so Retry can run it
// again. Any other outcome clears it.
func (c *Controller) setRetry(err error, fn func(context.Context) error) {
	if err != nil && errors.Is(err, learn.ErrRemote) {
		c.retry = fn
		return
	}
	c.retry = nil
}

// LoadSkillMap fetches the skill list joined with the user's progress.
func (c *Controller) LoadSkillMap(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadSkillMap(ctx)
}

func (c *Controller) loadSkillMap(ctx context.Context) error {
	c.update(func(s *Snapshot) {
		s.SkillMap.Loading = true
		s.SkillMap.Err = nil
	})

	skills, err := c.fetchSkills(ctx)
	c.update(func(s *Snapshot) {
		s.SkillMap.Loading = false
		if err != nil {
			s.SkillMap.Err = err
			return
		}
		s.SkillMap.Loaded = true
		s.SkillMap.Skills = skills
	})
	c.setRetry(err, c.loadSkillMap)
	if err == nil {
		c.touch(ctx)
	}
	return err
}

func (c *Controller) fetchSkills(ctx context.Context) ([]learn.Skill, error) {
	uid, err := c.currentUser(ctx, "load skill map")
	if err != nil {
		return nil, err
	}
	if !c.initialized[uid] {
		if err := c.repo.EnsureProgressInitialized(ctx, uid); err != nil {
			return nil, err
		}
		c.initialized[uid] = true
	}
	return c.repo.SkillsForUser(ctx, uid)
}

// OpenSkill loads the lessons of skillID and starts the first one, or the
// persisted one when resuming. A skill without lessons leaves the lesson
// state inactive with ErrNoLessons.
func (c *Controller) OpenSkill(ctx context.Context, skillID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openSkill(ctx, skillID)
}

func (c *Controller) openSkill(ctx context.Context, skillID string) error {
	c.course = Course{}
	title := skillID
	for _, s := range c.Snapshot().SkillMap.Skills {
		if s.ID != skillID {
			continue
		}
		if !s.Unlocked {
			err := fmt.Errorf("open %s: %w", skillID, ErrSkillLocked)
			c.update(func(s *Snapshot) { s.Lesson = LessonState{SkillID: skillID, Err: err} })
			return err
		}
		title = s.Title
	}

	c.update(func(s *Snapshot) {
		s.Lesson = LessonState{Loading: true, SkillID: skillID, SkillTitle: title}
	})

	lessons, start, err := c.fetchCourse(ctx, skillID)
	if err == nil && len(lessons) == 0 {
		err = ErrNoLessons
	}
	if err != nil {
		c.update(func(s *Snapshot) {
			s.Lesson.Loading = false
			s.Lesson.Err = err
		})
		c.setRetry(err, func(ctx context.Context) error { return c.openSkill(ctx, skillID) })
		return err
	}

	c.course = NewCourse(skillID, title, lessons, start)
	return c.startLesson(ctx, c.course.Index)
}

func (c *Controller) fetchCourse(ctx context.Context, skillID string) ([]catalog.Lesson, int, error) {
	uid, err := c.currentUser(ctx, "open skill")
	if err != nil {
		return nil, 0, err
	}
	lessons, err := c.repo.Lessons(ctx, skillID)
	if err != nil {
		return nil, 0, err
	}
	start := 0
	if c.resume {
		p, err := c.repo.Progress(ctx, uid, skillID)
		if err != nil {
			c.logger.Warn("read resume index failed", "op", "open skill", "user", uid, "skill", skillID, "err", err)
		} else {
			start = p.CurrentLessonIndex
		}
	}
	return lessons, start, nil
}

// StartLesson starts the lesson at index of the open skill.
func (c *Controller) StartLesson(ctx context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Snapshot().Lesson.Active || c.course.Empty() {
		return ErrNoActiveLesson
	}
	if index < 0 || index >= len(c.course.Lessons) {
		return fmt.Errorf("start lesson %d: out of range [0,%d)", index, len(c.course.Lessons))
	}
	return c.startLesson(ctx, index)
}

// startLesson moves the course cursor to index, persists it as the resume
// pointer and loads the lesson's questions. The course must not be empty.
func (c *Controller) startLesson(ctx context.Context, index int) error {
	c.course.Index = index
	course := c.course
	lesson, _ := course.Current()

	c.update(func(s *Snapshot) {
		s.Lesson.Loading = true
		s.Lesson.Active = true
		s.Lesson.Err = nil
		s.Lesson.SkillComplete = false
		s.Lesson.SkillTitle = course.SkillTitle
		s.Lesson.Lessons = course.Lessons
		s.Lesson.LessonIndex = course.Index
		s.Lesson.Lesson = lesson
		s.Lesson.Session = Session{}
	})

	c.repo.SetResumeLessonIndex(ctx, c.uid, course.SkillID, index)
	qs, err := c.repo.Questions(ctx, lesson)
	c.update(func(s *Snapshot) {
		s.Lesson.Loading = false
		if err != nil {
			s.Lesson.Err = err
			return
		}
		s.Lesson.Session = NewSession(qs)
	})
	c.setRetry(err, func(ctx context.Context) error { return c.startLesson(ctx, index) })
	c.touch(ctx)
	return err
}

// Answer records the outcome of the current question.
func (c *Controller) Answer(ctx context.Context, correct bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer(ctx, correct)
}

func (c *Controller) answer(ctx context.Context, correct bool) error {
	l := c.Snapshot().Lesson
	if err := l.ready(); err != nil {
		return err
	}
	sess := l.Session
	if err := sess.Answer(correct); err != nil {
		return err
	}
	c.update(func(s *Snapshot) { s.Lesson.Session = sess })

	if sess.Finished && c.history != nil {
		c.history.Record(ctx, c.uid, history.Attempt{
			SkillID:    l.SkillID,
			LessonID:   l.Lesson.ID,
			LessonType: l.Lesson.Type,
			Total:      sess.Total(),
			Correct:    sess.CorrectCount,
			FinishedAt: c.now(),
		})
	}
	c.touch(ctx)
	return nil
}

// Submit grades r against the current question and records the outcome.
func (c *Controller) Submit(ctx context.Context, r Response) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.Snapshot().Lesson
	if err := l.ready(); err != nil {
		return false, err
	}
	q, ok := l.Session.Current()
	if !ok {
		return false, ErrSessionFinished
	}
	correct := Grade(q, r)
	return correct, c.answer(ctx, correct)
}

// AdvanceToNextLesson starts the lesson after the current one. It returns
// false and sets SkillComplete when the current lesson was the last.
func (c *Controller) AdvanceToNextLesson(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.Snapshot().Lesson
	if !l.Active {
		return false, ErrNoActiveLesson
	}
	if !c.course.HasNext() {
		c.update(func(s *Snapshot) { s.Lesson.SkillComplete = true })
		return false, nil
	}
	return true, c.startLesson(ctx, c.course.Index+1)
}

// Reset discards the lesson state.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = nil
	c.course = Course{}
	c.update(func(s *Snapshot) { s.Lesson = LessonState{} })
}

// UnlockNextSkillAndRefresh completes the open skill, unlocks its successor,
// leaves the lesson and reloads the skill map.
func (c *Controller) UnlockNextSkillAndRefresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlockNextSkillAndRefresh(ctx)
}

func (c *Controller) unlockNextSkillAndRefresh(ctx context.Context) error {
	skillID := c.Snapshot().Lesson.SkillID
	if skillID == "" {
		return ErrNoActiveLesson
	}
	if !c.Snapshot().SkillMap.Loaded {
		if err := c.loadSkillMap(ctx); err != nil {
			return err
		}
	}

	c.update(func(s *Snapshot) {
		s.SkillMap.Loading = true
		s.SkillMap.Err = nil
	})
	err := c.completeSkill(ctx, skillID)
	if err != nil {
		c.update(func(s *Snapshot) {
			s.SkillMap.Loading = false
			s.SkillMap.Err = err
		})
		c.setRetry(err, c.unlockNextSkillAndRefresh)
		return err
	}

	c.course = Course{}
	c.update(func(s *Snapshot) { s.Lesson = LessonState{} })
	return c.loadSkillMap(ctx)
}

func (c *Controller) completeSkill(ctx context.Context, skillID string) error {
	uid, err := c.currentUser(ctx, "unlock next skill")
	if err != nil {
		return err
	}
	skills := c.Snapshot().SkillMap.Skills
	if len(skills) > 0 && skills[len(skills)-1].ID == skillID {
		return c.repo.CompleteSkill(ctx, uid, skillID)
	}
	return c.repo.UnlockNextSkill(ctx, uid, skillID)
}

// Retry runs the last intent that failed with a remote error again. It does
// nothing when there is nothing to retry.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retry == nil {
		return nil
	}
	fn := c.retry
	c.retry = nil
	return fn(ctx)
}

// CanRetry reports whether Retry has a failed intent to run.
func (c *Controller) CanRetry() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retry != nil
}
