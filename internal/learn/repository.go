// Package learn joins the shared catalog with each learner's progress and
// exposes the operations the lesson flow needs. Every operation returns an
// *Error on failure so callers can decide between prompting, retrying and
// ignoring.
package learn

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/docstore"
)

// Skill is a catalog skill joined with the learner's progress on it.
type Skill struct {
	catalog.Skill
	Unlocked           bool
	Progress           int
	CurrentLessonIndex int
}

// SkillProgress is the per-user, per-skill progress record.
type SkillProgress struct {
	Unlocked           bool
	Progress           int
	CurrentLessonIndex int
}

// ProgressCollection returns the skill progress collection of a user.
func ProgressCollection(uid string) string {
	return docstore.Join("users", uid, "skillProgress")
}

// ProgressPath returns the progress document of a user's skill.
func ProgressPath(uid, skillID string) string {
	return docstore.Join(ProgressCollection(uid), skillID)
}

func decodeProgress(fields map[string]any) SkillProgress {
	return SkillProgress{
		Unlocked:           docstore.Bool(fields, "unlocked", false),
		Progress:           docstore.Int(fields, "progress", 0),
		CurrentLessonIndex: docstore.Int(fields, "currentLessonIndex", 0),
	}
}

func defaultProgress() map[string]any {
	return map[string]any{"unlocked": true, "progress": 0, "currentLessonIndex": 0}
}

// Repository is the learner-facing view of the document store.
type Repository struct {
	store   docstore.Store
	catalog *catalog.Source
	logger  *slog.Logger
}

// NewRepository creates a Repository over store.
func NewRepository(store docstore.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:   store,
		catalog: catalog.NewSource(store),
		logger:  logger,
	}
}

func requireUser(op, uid string) error {
	if uid == "" {
		return &Error{Kind: KindUnauthenticated, Op: op, Err: ErrUnauthenticated}
	}
	return nil
}

// SkillsForUser returns the catalog in order, joined with the user's
// progress. When no skill is unlocked the first one is unlocked and the
// default progress for it is persisted.
func (r *Repository) SkillsForUser(ctx context.Context, uid string) ([]Skill, error) {
	const op = "fetch skills"
	if err := requireUser(op, uid); err != nil {
		return nil, err
	}

	cat, err := r.catalog.Skills(ctx)
	if err != nil {
		return nil, wrap(op, err)
	}
	progDocs, err := r.store.Query(ctx, ProgressCollection(uid), docstore.QueryOpts{})
	if err != nil {
		return nil, wrap(op, err)
	}
	progress := make(map[string]SkillProgress, len(progDocs))
	for _, d := range progDocs {
		progress[d.ID] = decodeProgress(d.Fields)
	}

	skills := make([]Skill, len(cat))
	anyUnlocked := false
	for i, c := range cat {
		p := progress[c.ID]
		skills[i] = Skill{
			Skill:              c,
			Unlocked:           p.Unlocked,
			Progress:           p.Progress,
			CurrentLessonIndex: p.CurrentLessonIndex,
		}
		anyUnlocked = anyUnlocked || p.Unlocked
	}

	if len(skills) > 0 && !anyUnlocked {
		first := skills[0].ID
		if err := r.store.SetMerge(ctx, ProgressPath(uid, first), defaultProgress()); err != nil {
			return nil, wrap(op, err)
		}
		skills[0].Unlocked = true
		r.logger.Info("unlocked first skill", "user", uid, "skill", first)
	}
	return skills, nil
}

// Lessons returns the lessons of a skill in catalog order.
func (r *Repository) Lessons(ctx context.Context, skillID string) ([]catalog.Lesson, error) {
	lessons, err := r.catalog.Lessons(ctx, skillID)
	if err != nil {
		return nil, wrap("fetch lessons", err)
	}
	return lessons, nil
}

// Questions returns the questions of a lesson, decoded by its type.
func (r *Repository) Questions(ctx context.Context, lesson catalog.Lesson) ([]catalog.Question, error) {
	qs, err := r.catalog.Questions(ctx, lesson)
	if err != nil {
		return nil, wrap("fetch questions", err)
	}
	return qs, nil
}

// Progress returns the user's progress on one skill; a missing record is the
// zero progress.
func (r *Repository) Progress(ctx context.Context, uid, skillID string) (SkillProgress, error) {
	const op = "fetch progress"
	if err := requireUser(op, uid); err != nil {
		return SkillProgress{}, err
	}
	d, err := r.store.Get(ctx, ProgressPath(uid, skillID))
	if errors.Is(err, docstore.ErrNotFound) {
		return SkillProgress{}, nil
	}
	if err != nil {
		return SkillProgress{}, wrap(op, err)
	}
	return decodeProgress(d.Fields), nil
}

// SetResumeLessonIndex persists the lesson the user is on. It is best-effort:
// failures are logged and dropped.
func (r *Repository) SetResumeLessonIndex(ctx context.Context, uid, skillID string, index int) {
	if uid == "" {
		return
	}
	if index < 0 {
		index = 0
	}
	err := r.store.SetMerge(ctx, ProgressPath(uid, skillID), map[string]any{"currentLessonIndex": index})
	if err != nil {
		r.logger.Warn("save resume index failed", "op", "set resume index", "user", uid, "skill", skillID, "index", index, "err", err)
	}
}

// UnlockNextSkill completes skillID and unlocks its successor in one batched
// write. It does nothing when skillID is the last skill or is unknown.
func (r *Repository) UnlockNextSkill(ctx context.Context, uid, skillID string) error {
	const op = "unlock next skill"
	if err := requireUser(op, uid); err != nil {
		return err
	}

	cat, err := r.catalog.Skills(ctx)
	if err != nil {
		return wrap(op, err)
	}
	i := -1
	for j, s := range cat {
		if s.ID == skillID {
			i = j
			break
		}
	}
	if i < 0 || i+1 >= len(cat) {
		return nil
	}
	next := cat[i+1].ID

	err = r.store.Batch(ctx, []docstore.Write{
		docstore.Merge(ProgressPath(uid, skillID), map[string]any{"progress": 100, "unlocked": true}),
		docstore.Merge(ProgressPath(uid, next), map[string]any{"unlocked": true}),
	})
	if err != nil {
		return wrap(op, err)
	}
	r.logger.Info("unlocked next skill", "user", uid, "skill", skillID, "next", next)
	return nil
}

// CompleteSkill marks skillID finished without unlocking anything. It is
// used for the last skill of the catalog.
func (r *Repository) CompleteSkill(ctx context.Context, uid, skillID string) error {
	const op = "complete skill"
	if err := requireUser(op, uid); err != nil {
		return err
	}
	err := r.store.SetMerge(ctx, ProgressPath(uid, skillID), map[string]any{"progress": 100, "unlocked": true})
	return wrap(op, err)
}

// EnsureProgressInitialized gives the first catalog skill default progress.
// Fields already stored are never overwritten, so calling it repeatedly is
// harmless.
func (r *Repository) EnsureProgressInitialized(ctx context.Context, uid string) error {
	const op = "init progress"
	if err := requireUser(op, uid); err != nil {
		return err
	}

	first, err := r.catalog.FirstSkill(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return wrap(op, err)
	}

	path := ProgressPath(uid, first.ID)
	existing := map[string]any{}
	d, err := r.store.Get(ctx, path)
	switch {
	case err == nil:
		existing = d.Fields
	case !errors.Is(err, docstore.ErrNotFound):
		return wrap(op, err)
	}

	missing := map[string]any{}
	for k, v := range defaultProgress() {
		if _, ok := existing[k]; !ok {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return wrap(op, r.store.SetMerge(ctx, path, missing))
}

// ResetProgress deletes all of the user's skill progress.
func (r *Repository) ResetProgress(ctx context.Context, uid string) error {
	const op = "reset progress"
	if err := requireUser(op, uid); err != nil {
		return err
	}
	return wrap(op, r.store.DeleteCollection(ctx, ProgressCollection(uid)))
}
