package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lingbook",
	Short: "Bite-sized language lessons in your terminal",
	Long: `LingBook teaches a language through short lessons grouped into skills.
Finish every lesson of a skill to unlock the next one.

Run without a subcommand to start the interactive app.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, false, false)
	},
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides LINGBOOK_DB)")
	pf.String("backend", "", "Store backend: sqlite, mongo or memory (overrides LINGBOOK_BACKEND)")
	pf.String("user", "", "Learner id (overrides LINGBOOK_USER and LINGBOOK_TOKEN)")
	pf.String("log-file", "", "Write JSON logs to this file (overrides LINGBOOK_LOG_FILE)")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
