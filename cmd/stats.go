package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/history"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.requireUser(ctx)
		if err != nil {
			return err
		}
		attempts, err := history.NewRecorder(rt.store, rt.logger).Recent(ctx, u.ID, limit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(attempts) == 0 {
			fmt.Println("No lessons finished yet. Run `lingbook play` to start.")
			return nil
		}

		titles := map[string]string{}
		if skills, err := catalog.NewSource(rt.store).Skills(ctx); err == nil {
			for _, s := range skills {
				titles[s.ID] = s.Icon + " " + s.Title
			}
		}

		fmt.Println("By Skill")
		fmt.Println(strings.Repeat("─", 78))
		fmt.Printf("%-28s  %8s  %7s  %9s  %8s  %s\n",
			"Skill", "Attempts", "Lessons", "Questions", "Accuracy", "Last played")
		fmt.Println(strings.Repeat("─", 78))

		var questions, correct int
		for _, s := range history.Summarize(attempts) {
			title := titles[s.SkillID]
			if title == "" {
				title = s.SkillID
			}
			fmt.Printf("%-28s  %8d  %7d  %9d  %7d%%  %s\n",
				truncate(title, 28), s.Attempts, s.Lessons, s.Questions, s.Accuracy(),
				s.LastPlayed.Local().Format("2006-01-02 15:04"))
			questions += s.Questions
			correct += s.Correct
		}
		fmt.Println(strings.Repeat("─", 78))
		acc := 0
		if questions > 0 {
			acc = correct * 100 / questions
		}
		fmt.Printf("%-28s  %8d  %7s  %9d  %7d%%\n", "TOTAL", len(attempts), "", questions, acc)

		fmt.Println()
		fmt.Println("Recent Lessons")
		fmt.Println(strings.Repeat("─", 78))
		for i, a := range attempts {
			if i == 10 {
				break
			}
			fmt.Printf("%s  %-14s  %-20s  %-14s  %d/%d\n",
				a.FinishedAt.Local().Format("2006-01-02 15:04"), a.SkillID, a.LessonID,
				a.LessonType.Label(), a.Correct, a.Total)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 200, "Number of recent lessons to include")
}
