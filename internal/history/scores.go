package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dex/lingbook/internal/docstore"
	"github.com/dex/lingbook/internal/vocab"
)

// lessonProgressField holds the per-lesson scores inside the learner's
// userProgress document, next to the learned vocabulary.
const lessonProgressField = "lessonProgress"

// LessonScore is the result of the latest finished attempt at a lesson.
type LessonScore struct {
	LessonID       string
	Score          int
	TotalQuestions int
	CompletedAt    time.Time
}

// SaveScore merges the attempt into lessonProgress.{lessonId}, replacing the
// previous score of that lesson and leaving every other field alone.
func (r *Recorder) SaveScore(ctx context.Context, uid string, a Attempt) error {
	if uid == "" || a.LessonID == "" {
		return fmt.Errorf("save lesson score: empty user or lesson id")
	}
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	err := r.store.SetMerge(ctx, vocab.ProgressPath(uid), map[string]any{
		lessonProgressField: map[string]any{
			a.LessonID: map[string]any{
				"score":          a.Correct,
				"totalQuestions": a.Total,
				"completedAt":    a.FinishedAt.UnixMilli(),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("save lesson score: %w", err)
	}
	return nil
}

// Scores returns the saved score of every lesson the learner finished.
func (r *Recorder) Scores(ctx context.Context, uid string) (map[string]LessonScore, error) {
	doc, err := r.store.Get(ctx, vocab.ProgressPath(uid))
	if errors.Is(err, docstore.ErrNotFound) {
		return map[string]LessonScore{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lesson scores: %w", err)
	}
	progress := docstore.Map(doc.Fields, lessonProgressField)
	out := make(map[string]LessonScore, len(progress))
	for id, v := range progress {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[id] = LessonScore{
			LessonID:       id,
			Score:          docstore.Int(m, "score", 0),
			TotalQuestions: docstore.Int(m, "totalQuestions", 0),
			CompletedAt:    docstore.Time(m, "completedAt"),
		}
	}
	return out, nil
}
