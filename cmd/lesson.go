package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/history"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Browse the lessons of a skill",
}

var lessonListCmd = &cobra.Command{
	Use:   "list <skill>",
	Short: "List the lessons of a skill in order, with your scores when signed in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		src := catalog.NewSource(rt.store)
		skill, err := src.Skill(ctx, args[0])
		if err != nil {
			return fmt.Errorf("skill %q: %w", args[0], err)
		}
		lessons, err := src.Lessons(ctx, skill.ID)
		if err != nil {
			return fmt.Errorf("load lessons: %w", err)
		}

		fmt.Printf("%s %s\n\n", skill.Icon, skill.Title)
		if len(lessons) == 0 {
			fmt.Println("No lessons yet.")
			return nil
		}
		scores := map[string]history.LessonScore{}
		if u, err := rt.identity().CurrentUser(ctx); err == nil {
			scores, err = history.NewRecorder(rt.store, rt.logger).Scores(ctx, u.ID)
			if err != nil {
				return err
			}
		}

		fmt.Printf("%3s  %-20s  %-30s  %-24s  %9s  %s\n", "#", "ID", "Title", "Type", "Questions", "Last score")
		fmt.Println(strings.Repeat("─", 106))
		for i, l := range lessons {
			last := "-"
			if sc, ok := scores[l.ID]; ok {
				last = fmt.Sprintf("%d/%d", sc.Score, sc.TotalQuestions)
			}
			fmt.Printf("%3d  %-20s  %-30s  %-24s  %9d  %s\n",
				i+1, l.ID, truncate(l.Title, 30), l.Type.Label(), l.QuestionCount, last)
		}
		return nil
	},
}

var lessonShowCmd = &cobra.Command{
	Use:   "show <skill> <lesson>",
	Short: "Print the questions of a lesson with their answers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		src := catalog.NewSource(rt.store)
		lesson, err := src.Lesson(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("lesson %s/%s: %w", args[0], args[1], err)
		}
		qs, err := src.Questions(ctx, lesson)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		fmt.Printf("%s (%s, %d questions)\n", lesson.Title, lesson.Type.Label(), len(qs))
		for i, q := range qs {
			fmt.Printf("\n── Question %d/%d [%s] ──\n", i+1, len(qs), q.ID)
			printQuestion(q, true)
		}
		return nil
	},
}

func init() {
	lessonCmd.AddCommand(lessonListCmd)
	lessonCmd.AddCommand(lessonShowCmd)
}

// printQuestion writes q to stdout. With answers set the correct answer is
// marked.
func printQuestion(q catalog.Question, answers bool) {
	switch {
	case q.WordOrder != nil:
		fmt.Printf("Tiles: %s\n", strings.Join(q.WordOrder.Shuffled, " · "))
		if answers {
			fmt.Printf("Answer: %s\n", q.WordOrder.Sentence)
		}
	case q.ListenChoose != nil:
		lc := q.ListenChoose
		if lc.AudioMode == catalog.AudioURL && lc.AudioURL != nil {
			fmt.Printf("Audio: %s\n", *lc.AudioURL)
		} else {
			fmt.Printf("Spoken: %q\n", lc.SpokenText())
		}
		printOptions(lc.Options, lc.AnswerIndex, answers)
	case q.ImagePick != nil:
		ip := q.ImagePick
		fmt.Printf("Pick: %s\n", ip.Prompt)
		labels := make([]string, len(ip.Options))
		for i, o := range ip.Options {
			labels[i] = o.Label
			if o.ImageURL != "" {
				labels[i] += "  🖼 " + o.ImageURL
			}
		}
		printOptions(labels, ip.AnswerIndex, answers)
	case q.Translate != nil:
		fmt.Printf("%s: %s\n", q.Type.Label(), q.Translate.Source)
		if answers {
			fmt.Printf("Accepted: %s\n", strings.Join(q.Translate.Accepted, " / "))
		}
	default:
		fmt.Println("(empty question)")
	}
}

func printOptions(opts []string, answer int, answers bool) {
	for i, o := range opts {
		mark := " "
		if answers && i == answer {
			mark = "✓"
		}
		fmt.Printf("  %s %d) %s\n", mark, i+1, o)
	}
}
