package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/learn"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset your skill progress",
	Long: `Delete the learner's skill progress. The first skill is unlocked
again on the next start. Lesson history and learned words are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		yes, _ := cmd.Flags().GetBool("yes")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.requireUser(ctx)
		if err != nil {
			return err
		}

		if !yes {
			fmt.Printf("Reset all skill progress for %s? [y/N] ", u.Name())
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(line), "y") {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := learn.NewRepository(rt.store, rt.logger).ResetProgress(ctx, u.ID); err != nil {
			return err
		}
		fmt.Println("Progress reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
