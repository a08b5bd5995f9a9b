// Package history keeps an append-only log of finished lessons per user and
// the latest score of every lesson.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/docstore"
	"github.com/google/uuid"
)

// Attempt is one finished lesson.
type Attempt struct {
	ID         string
	SkillID    string
	LessonID   string
	LessonType catalog.LessonType
	Total      int
	Correct    int
	FinishedAt time.Time
}

// Accuracy returns the share of correct answers, 0..100.
func (a Attempt) Accuracy() int {
	if a.Total == 0 {
		return 0
	}
	return a.Correct * 100 / a.Total
}

// AttemptsCollection returns users/{uid}/attempts.
func AttemptsCollection(uid string) string {
	return docstore.Join("users", uid, "attempts")
}

func (a Attempt) fields() map[string]any {
	return map[string]any{
		"skillId":    a.SkillID,
		"lessonId":   a.LessonID,
		"lessonType": string(a.LessonType),
		"total":      a.Total,
		"correct":    a.Correct,
		"finishedAt": a.FinishedAt.UnixMilli(),
	}
}

func decodeAttempt(d docstore.Doc) Attempt {
	return Attempt{
		ID:         d.ID,
		SkillID:    docstore.String(d.Fields, "skillId", ""),
		LessonID:   docstore.String(d.Fields, "lessonId", ""),
		LessonType: catalog.ParseLessonType(docstore.String(d.Fields, "lessonType", "")),
		Total:      docstore.Int(d.Fields, "total", 0),
		Correct:    docstore.Int(d.Fields, "correct", 0),
		FinishedAt: docstore.Time(d.Fields, "finishedAt"),
	}
}

// Recorder appends and reads attempts.
type Recorder struct {
	store  docstore.Store
	logger *slog.Logger
	newID  func() string
}

// NewRecorder creates a Recorder. A nil logger discards.
func NewRecorder(store docstore.Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{store: store, logger: logger, newID: uuid.NewString}
}

// Append stores the attempt and returns its id.
func (r *Recorder) Append(ctx context.Context, uid string, a Attempt) (string, error) {
	if uid == "" {
		return "", fmt.Errorf("append attempt: empty user id")
	}
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	id := r.newID()
	if err := r.store.SetMerge(ctx, docstore.Join(AttemptsCollection(uid), id), a.fields()); err != nil {
		return "", fmt.Errorf("append attempt: %w", err)
	}
	return id, nil
}

// Record appends the attempt, saves it as the lesson's latest score and logs
// failures instead of returning them.
func (r *Recorder) Record(ctx context.Context, uid string, a Attempt) {
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}
	if _, err := r.Append(ctx, uid, a); err != nil {
		r.logger.Warn("record attempt failed", "op", "history.record", "user", uid,
			"skill", a.SkillID, "lesson", a.LessonID, "err", err)
	}
	if err := r.SaveScore(ctx, uid, a); err != nil {
		r.logger.Warn("save lesson score failed", "op", "history.score", "user", uid,
			"skill", a.SkillID, "lesson", a.LessonID, "err", err)
	}
}

// Recent returns up to limit attempts, newest first. limit <= 0 returns all.
func (r *Recorder) Recent(ctx context.Context, uid string, limit int) ([]Attempt, error) {
	docs, err := r.store.Query(ctx, AttemptsCollection(uid), docstore.QueryOpts{OrderBy: "finishedAt"})
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	out := make([]Attempt, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		out = append(out, decodeAttempt(docs[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SkillStats aggregates the attempts of one skill.
type SkillStats struct {
	SkillID    string
	Attempts   int
	Lessons    int // distinct lessons finished
	Questions  int
	Correct    int
	LastPlayed time.Time
}

// Accuracy returns the share of correct answers, 0..100.
func (s SkillStats) Accuracy() int {
	if s.Questions == 0 {
		return 0
	}
	return s.Correct * 100 / s.Questions
}

// Summarize groups attempts by skill, ordered by skill id.
func Summarize(attempts []Attempt) []SkillStats {
	bySkill := map[string]*SkillStats{}
	lessons := map[string]map[string]bool{}
	for _, a := range attempts {
		s, ok := bySkill[a.SkillID]
		if !ok {
			s = &SkillStats{SkillID: a.SkillID}
			bySkill[a.SkillID] = s
			lessons[a.SkillID] = map[string]bool{}
		}
		s.Attempts++
		s.Questions += a.Total
		s.Correct += a.Correct
		lessons[a.SkillID][a.LessonID] = true
		if a.FinishedAt.After(s.LastPlayed) {
			s.LastPlayed = a.FinishedAt
		}
	}
	out := make([]SkillStats, 0, len(bySkill))
	for id, s := range bySkill {
		s.Lessons = len(lessons[id])
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out
}
