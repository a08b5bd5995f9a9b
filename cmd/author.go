package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/author"
	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/llm"
	"github.com/dex/lingbook/internal/progression"
)

var authorCmd = &cobra.Command{
	Use:   "author <skill> <lesson>",
	Short: "Generate new questions for a lesson with an LLM",
	Long: `Ask the configured LLM for new questions of the lesson's type, check
that each one is answerable, and append them to the lesson.

Use --dry-run to only print them, or --try to answer them yourself first.`,
	Args: cobra.ExactArgs(2),
	RunE: runAuthor,
}

func init() {
	authorCmd.Flags().IntP("count", "n", 5, "Number of questions to request")
	authorCmd.Flags().Bool("replace", false, "Replace the lesson's questions instead of appending")
	authorCmd.Flags().Bool("dry-run", false, "Print the generated questions without saving them")
	authorCmd.Flags().Bool("try", false, "Answer the generated questions before saving")
	authorCmd.Flags().String("language", "English", "Language the lesson teaches")
	authorCmd.Flags().String("learner-language", "English", "Language of the learner")
}

func runAuthor(cmd *cobra.Command, args []string) error {
	ctx := llm.WithPurpose(cmd.Context(), "author")
	count, _ := cmd.Flags().GetInt("count")
	replace, _ := cmd.Flags().GetBool("replace")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	try, _ := cmd.Flags().GetBool("try")

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
	lesson, err := src.Lesson(ctx, skill.ID, args[1])
	if err != nil {
		return fmt.Errorf("lesson %s/%s: %w", skill.ID, args[1], err)
	}
	existing, err := src.Questions(ctx, lesson)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	avoid := make([]string, 0, len(existing))
	for _, q := range existing {
		avoid = append(avoid, author.Describe(q))
	}

	provider, err := rt.provider(ctx)
	if err != nil {
		return err
	}
	cfg := author.DefaultConfig()
	cfg.TargetLanguage, _ = cmd.Flags().GetString("language")
	cfg.LearnerLanguage, _ = cmd.Flags().GetString("learner-language")

	fmt.Printf("Lesson: %s / %s (%s)\n", skill.Title, lesson.Title, lesson.Type.Label())
	fmt.Printf("Generating %d questions with %s...\n\n", count, provider.ModelID())

	batch, err := author.NewGenerator(provider, cfg).Generate(ctx, skill, lesson, count, avoid...)
	if batch != nil {
		for _, r := range batch.Rejected {
			fmt.Printf("Rejected item %d: %v\n", r.Index+1, r.Err)
		}
	}
	if err != nil {
		return err
	}

	if try {
		correct := quiz(os.Stdin, batch.Questions)
		fmt.Printf("── Summary: %d/%d correct ──\n\n", correct, len(batch.Questions))
	} else {
		for i, q := range batch.Questions {
			fmt.Printf("── Question %d/%d ──\n", i+1, len(batch.Questions))
			printQuestion(q, true)
			fmt.Println()
		}
	}

	if dryRun {
		fmt.Println("Dry run: nothing saved.")
		return nil
	}
	stored, err := author.Publish(ctx, rt.store, lesson, batch.Questions, replace)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d questions to %s/%s.\n", len(stored), skill.ID, lesson.ID)
	return nil
}

// quiz asks each question on the terminal and returns how many were answered
// correctly. Empty input skips a question.
func quiz(in io.Reader, qs []catalog.Question) int {
	scanner := bufio.NewScanner(in)
	var correct int
	for i, q := range qs {
		fmt.Printf("── Question %d/%d ──\n", i+1, len(qs))
		printQuestion(q, false)

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Println("(skipped)")
			fmt.Println()
			continue
		}

		if progression.Grade(q, parseResponse(answer)) {
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %s\n", answerText(q))
		}
		fmt.Println()
	}
	return correct
}

// parseResponse reads a typed answer: an option number for choice questions,
// otherwise the words of the sentence. Translations grade the raw text.
func parseResponse(answer string) progression.Response {
	if n, err := strconv.Atoi(answer); err == nil {
		return progression.Response{Option: n - 1, Text: answer}
	}
	return progression.Response{Tokens: strings.Fields(answer), Option: -1, Text: answer}
}

func answerText(q catalog.Question) string {
	switch {
	case q.WordOrder != nil:
		return q.WordOrder.Sentence
	case q.ListenChoose != nil:
		return q.ListenChoose.Options[q.ListenChoose.AnswerIndex]
	case q.ImagePick != nil:
		return q.ImagePick.Options[q.ImagePick.AnswerIndex].Label
	case q.Translate != nil:
		return strings.Join(q.Translate.Accepted, " / ")
	}
	return ""
}
