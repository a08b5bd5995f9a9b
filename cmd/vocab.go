package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/vocab"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Browse vocabulary and mark words as learned",
}

var vocabWordsCmd = &cobra.Command{
	Use:   "words",
	Short: "List vocabulary words, optionally of one topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		topic, _ := cmd.Flags().GetString("topic")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		repo := vocab.NewRepository(rt.store)
		words, err := repo.Words(ctx, topic)
		if err != nil {
			return fmt.Errorf("load words: %w", err)
		}
		if len(words) == 0 {
			topics, _ := repo.Topics(ctx)
			fmt.Println("No words found.")
			if len(topics) > 0 {
				fmt.Printf("Topics: %s\n", strings.Join(topics, ", "))
			}
			return nil
		}

		// Learned marks need a user; without one the list is still useful.
		progress := map[string]vocab.Progress{}
		if u, err := rt.identity().CurrentUser(ctx); err == nil {
			if p, err := repo.Progress(ctx, u.ID); err == nil {
				progress = p
			}
		}
		printWords(words, progress)
		return nil
	},
}

var vocabLearnedCmd = &cobra.Command{
	Use:   "learned",
	Short: "List the words you marked as learned",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.requireUser(ctx)
		if err != nil {
			return err
		}
		repo := vocab.NewRepository(rt.store)
		words, err := repo.LearnedWords(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("load learned words: %w", err)
		}
		if len(words) == 0 {
			fmt.Println("No learned words yet. Mark some with `lingbook vocab learn <word>`.")
			return nil
		}
		progress, err := repo.Progress(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		printWords(words, progress)
		return nil
	},
}

var vocabLearnCmd = &cobra.Command{
	Use:   "learn <word-id>...",
	Short: "Mark words as learned (or not, with --forget)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		forget, _ := cmd.Flags().GetBool("forget")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.requireUser(ctx)
		if err != nil {
			return err
		}
		repo := vocab.NewRepository(rt.store)
		for _, id := range args {
			if err := repo.SetLearned(ctx, u.ID, id, !forget); err != nil {
				return fmt.Errorf("update %s: %w", id, err)
			}
		}
		verb := "learned"
		if forget {
			verb = "not learned"
		}
		fmt.Printf("Marked %d word(s) as %s.\n", len(args), verb)
		return nil
	},
}

func init() {
	vocabWordsCmd.Flags().StringP("topic", "t", "", "Only words of this topic")
	vocabLearnCmd.Flags().Bool("forget", false, "Mark as not learned")

	vocabCmd.AddCommand(vocabWordsCmd)
	vocabCmd.AddCommand(vocabLearnedCmd)
	vocabCmd.AddCommand(vocabLearnCmd)
}

func printWords(words []vocab.Word, progress map[string]vocab.Progress) {
	fmt.Printf("%-1s  %-14s  %-16s  %-16s  %-10s  %s\n", "", "ID", "Word", "Pronunciation", "Topic", "Definition")
	fmt.Println(strings.Repeat("─", 90))
	for _, w := range words {
		mark := " "
		if progress[w.ID].IsLearned {
			mark = "✓"
		}
		fmt.Printf("%-1s  %-14s  %-16s  %-16s  %-10s  %s\n",
			mark, truncate(w.ID, 14), truncate(w.Word, 16), truncate(w.Pronunciation, 16),
			truncate(w.Topic, 10), w.Definition)
	}
	fmt.Printf("\n%d words\n", len(words))
}
