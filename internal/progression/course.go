package progression

import (
	"github.com/dex/lingbook/internal/catalog"
)

// Course is the ordered lesson list of the open skill and the cursor into it.
type Course struct {
	SkillID    string
	SkillTitle string
	Lessons    []catalog.Lesson
	Index      int
}

// NewCourse positions a course at start, clamped into the lesson range.
func NewCourse(skillID, title string, lessons []catalog.Lesson, start int) Course {
	c := Course{SkillID: skillID, SkillTitle: title, Lessons: lessons}
	c.Index = c.clamp(start)
	return c
}

func (c Course) clamp(i int) int {
	if i < 0 || len(c.Lessons) == 0 {
		return 0
	}
	if i >= len(c.Lessons) {
		return len(c.Lessons) - 1
	}
	return i
}

// Empty reports whether the skill has no lessons.
func (c Course) Empty() bool { return len(c.Lessons) == 0 }

// Current returns the lesson under the cursor.
func (c Course) Current() (catalog.Lesson, bool) {
	if c.Empty() {
		return catalog.Lesson{}, false
	}
	return c.Lessons[c.Index], true
}

// HasNext reports whether a lesson follows the current one.
func (c Course) HasNext() bool { return c.Index+1 < len(c.Lessons) }
