package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/catalog"
	"github.com/dex/lingbook/internal/learn"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Browse the skill catalog",
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills in order, with your progress when signed in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		var skills []learn.Skill
		if u, err := rt.identity().CurrentUser(ctx); err == nil {
			skills, err = learn.NewRepository(rt.store, rt.logger).SkillsForUser(ctx, u.ID)
			if err != nil {
				return fmt.Errorf("load skills: %w", err)
			}
		} else {
			plain, err := catalog.NewSource(rt.store).Skills(ctx)
			if err != nil {
				return fmt.Errorf("load skills: %w", err)
			}
			for _, s := range plain {
				skills = append(skills, learn.Skill{Skill: s})
			}
		}

		if len(skills) == 0 {
			fmt.Println("No skills yet. Run `lingbook seed` to install the starter catalog.")
			return nil
		}

		fmt.Printf("%-4s  %-20s  %-30s  %-8s  %s\n", "", "ID", "Title", "State", "Progress")
		fmt.Println(strings.Repeat("─", 80))
		for _, s := range skills {
			state := "locked"
			switch {
			case s.Progress >= 100:
				state = "done"
			case s.Unlocked:
				state = "open"
			}
			fmt.Printf("%-4s  %-20s  %-30s  %-8s  %3d%%\n",
				s.Icon, s.ID, truncate(s.Title, 30), state, s.Progress)
		}
		fmt.Printf("\n%d skills\n", len(skills))
		return nil
	},
}

func init() {
	skillCmd.AddCommand(skillListCmd)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
