package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/dex/lingbook/internal/docstore"
)

// Source reads catalog content from a document store.
type Source struct {
	store docstore.Store
}

// NewSource creates a Source over store.
func NewSource(store docstore.Store) *Source {
	return &Source{store: store}
}

// Skills returns every skill in catalog order.
func (s *Source) Skills(ctx context.Context) ([]Skill, error) {
	docs, err := s.store.Query(ctx, SkillsCollection, docstore.QueryOpts{OrderBy: "order"})
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	skills := make([]Skill, 0, len(docs))
	for _, d := range docs {
		skills = append(skills, DecodeSkill(d))
	}
	// Stores order mixed-type values differently; the decoded order is authoritative.
	sort.SliceStable(skills, func(i, j int) bool { return skills[i].Order < skills[j].Order })
	return skills, nil
}

// FirstSkill returns the first skill in catalog order, or docstore.ErrNotFound
// for an empty catalog.
func (s *Source) FirstSkill(ctx context.Context) (Skill, error) {
	docs, err := s.store.Query(ctx, SkillsCollection, docstore.QueryOpts{OrderBy: "order", Limit: 1})
	if err != nil {
		return Skill{}, fmt.Errorf("first skill: %w", err)
	}
	if len(docs) == 0 {
		return Skill{}, docstore.ErrNotFound
	}
	return DecodeSkill(docs[0]), nil
}

// Skill returns a single skill.
func (s *Source) Skill(ctx context.Context, skillID string) (Skill, error) {
	d, err := s.store.Get(ctx, SkillPath(skillID))
	if err != nil {
		return Skill{}, fmt.Errorf("get skill %s: %w", skillID, err)
	}
	return DecodeSkill(*d), nil
}

// Lessons returns the lessons of a skill in order.
func (s *Source) Lessons(ctx context.Context, skillID string) ([]Lesson, error) {
	docs, err := s.store.Query(ctx, LessonsCollection(skillID), docstore.QueryOpts{OrderBy: "order"})
	if err != nil {
		return nil, fmt.Errorf("list lessons of %s: %w", skillID, err)
	}
	lessons := make([]Lesson, 0, len(docs))
	for _, d := range docs {
		lessons = append(lessons, DecodeLesson(skillID, d))
	}
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
	return lessons, nil
}

// Lesson returns a single lesson.
func (s *Source) Lesson(ctx context.Context, skillID, lessonID string) (Lesson, error) {
	d, err := s.store.Get(ctx, LessonPath(skillID, lessonID))
	if err != nil {
		return Lesson{}, fmt.Errorf("get lesson %s/%s: %w", skillID, lessonID, err)
	}
	return DecodeLesson(skillID, *d), nil
}

// Questions returns the questions of a lesson in order, decoded by the
// lesson's type.
func (s *Source) Questions(ctx context.Context, lesson Lesson) ([]Question, error) {
	docs, err := s.store.Query(ctx, QuestionsCollection(lesson.SkillID, lesson.ID), docstore.QueryOpts{OrderBy: "order"})
	if err != nil {
		return nil, fmt.Errorf("list questions of %s/%s: %w", lesson.SkillID, lesson.ID, err)
	}
	qs := make([]Question, 0, len(docs))
	for _, d := range docs {
		qs = append(qs, DecodeQuestion(lesson.Type, d))
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	return qs, nil
}
