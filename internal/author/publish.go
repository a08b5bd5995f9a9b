package author

import (
	"context"
	"fmt"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/docstore"
)

// Publish writes qs under lesson after its existing questions and updates
// the lesson's questionCount, all in one batch. With replace set the
// existing questions are removed first. It returns the stored questions
// with their assigned ids and order.
func Publish(ctx context.Context, store docstore.Store, lesson catalog.Lesson, qs []catalog.Question, replace bool) ([]catalog.Question, error) {
	src := catalog.NewSource(store)
	existing, err := src.Questions(ctx, lesson)
	if err != nil {
		return nil, err
	}

	var writes []docstore.Write
	if replace {
		for _, q := range existing {
			writes = append(writes, docstore.Remove(catalog.QuestionPath(lesson.SkillID, lesson.ID, q.ID)))
		}
		existing = nil
	}

	taken := make(map[string]bool, len(existing))
	order := 0
	for _, q := range existing {
		taken[q.ID] = true
		if q.Order != catalog.DefaultOrder && q.Order > order {
			order = q.Order
		}
	}
	if order < len(existing) {
		order = len(existing)
	}

	stored := make([]catalog.Question, 0, len(qs))
	next := order
	for _, q := range qs {
		next++
		id := fmt.Sprintf("q%02d", next)
		for n := next; taken[id]; n++ {
			id = fmt.Sprintf("q%02d-%d", next, n)
		}
		taken[id] = true
		q.ID = id
		q.Order = next
		stored = append(stored, q)
		writes = append(writes, docstore.Merge(catalog.QuestionPath(lesson.SkillID, lesson.ID, id), q.Fields()))
	}

	writes = append(writes, docstore.Merge(catalog.LessonPath(lesson.SkillID, lesson.ID), map[string]any{
		"questionCount": len(existing) + len(stored),
	}))
	if err := store.Batch(ctx, writes); err != nil {
		return nil, fmt.Errorf("publish questions to %s/%s: %w", lesson.SkillID, lesson.ID, err)
	}
	return stored, nil
}
