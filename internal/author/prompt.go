package author

import (
	"fmt"
	"strings"

	"github.com/dex/lingbook/internal/catalog"
)

const systemPrompt = `You write exercises for a beginner language course.

Rules:
- Every exercise must fit the skill and lesson titles given.
- Use short, everyday sentences a beginner can read.
- Word order: "tokens" contains every word of "sentence" exactly once, scrambled. Keep punctuation attached to its word.
- Listen and choose: options are distinct, similar in length, and exactly one matches "ttsText".
- Image pick: option labels are distinct; exactly one matches "prompt".
- Translate to English: "source" is Vietnamese and "accepted" lists English translations. Translate to Vietnamese is the reverse.
- "answerIndex" is zero-based.
- Do not repeat any exercise from the "already in this lesson" list.`

func buildUserMessage(cfg Config, skill catalog.Skill, lesson catalog.Lesson, n int, avoid []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target language: %s\n", cfg.TargetLanguage)
	fmt.Fprintf(&b, "Learner language: %s\n", cfg.LearnerLanguage)
	fmt.Fprintf(&b, "Skill: %s\n", skill.Title)
	fmt.Fprintf(&b, "Lesson: %s\n", lesson.Title)
	fmt.Fprintf(&b, "Exercise type: %s\n", lesson.Type.Label())
	fmt.Fprintf(&b, "Number of exercises: %d\n", n)

	b.WriteString("\nAlready in this lesson:\n")
	b.WriteString(buildAvoid(avoid, cfg.MaxAvoid))
	return b.String()
}

// buildAvoid lists the most recent max entries, or "None".
func buildAvoid(avoid []string, max int) string {
	if len(avoid) == 0 {
		return "None"
	}
	if max > 0 && len(avoid) > max {
		avoid = avoid[len(avoid)-max:]
	}
	var b strings.Builder
	for i, a := range avoid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Describe returns the text that identifies a question for deduplication.
func Describe(q catalog.Question) string {
	switch {
	case q.WordOrder != nil:
		return q.WordOrder.Sentence
	case q.ListenChoose != nil:
		return q.ListenChoose.SpokenText()
	case q.ImagePick != nil:
		return q.ImagePick.Prompt
	case q.Translate != nil:
		return q.Translate.Source
	}
	return ""
}
