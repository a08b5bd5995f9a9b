package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/app"
	"github.com/dex/lingbook/internal/history"
	"github.com/dex/lingbook/internal/identity"
	"github.com/dex/lingbook/internal/learn"
	"github.com/dex/lingbook/internal/progression"
	"github.com/dex/lingbook/internal/reminder"
	"github.com/dex/lingbook/internal/screen"
	"github.com/dex/lingbook/internal/speech"
	"github.com/dex/lingbook/internal/vocab"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the interactive app",
	RunE: func(cmd *cobra.Command, args []string) error {
		resume, _ := cmd.Flags().GetBool("resume")
		skip, _ := cmd.Flags().GetBool("skip-intro")
		return runPlay(cmd, resume, skip)
	},
}

func init() {
	playCmd.Flags().Bool("resume", false, "Reopen skills at the lesson you last reached")
	playCmd.Flags().Bool("skip-intro", false, "Skip the welcome animation")
}

// runPlay opens the store, builds the learner session and launches the TUI.
func runPlay(cmd *cobra.Command, resume, skipIntro bool) error {
	ctx := cmd.Context()
	rt, err := openRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.ensureCatalog(ctx); err != nil {
		return err
	}

	users := rt.identity()
	// A missing user is not fatal: the skill map explains how to sign in.
	user, err := users.CurrentUser(ctx)
	if err == nil {
		if err := identity.SaveProfile(ctx, rt.store, user); err != nil {
			rt.logger.Warn("profile not saved", "op", "identity.save", "user", user.ID, "err", err)
		}
		if p, err := identity.LoadProfile(ctx, rt.store, user.ID); err == nil {
			user = p
		}
	} else {
		rt.logger.Info("starting signed out", "err", err)
	}

	recorder := history.NewRecorder(rt.store, rt.logger)
	ctrl := progression.NewController(
		learn.NewRepository(rt.store, rt.logger),
		users,
		progression.WithResume(resume),
		progression.WithHistory(recorder),
		progression.WithActivity(reminder.NewTracker(rt.store, rt.cfg.ReminderDelay)),
		progression.WithLogger(rt.logger),
	)
	defer ctrl.Close()

	deps := screen.Deps{
		Controller: ctrl,
		Vocab:      vocab.NewRepository(rt.store),
		History:    recorder,
		Voice:      speech.Background{Speaker: rt.speaker(), Logger: rt.logger},
		UserID:     user.ID,
		Language:   rt.cfg.Language,
	}
	var name string
	if user.ID != "" {
		name = user.Name()
	}
	if err := app.Run(ctx, app.Options{Deps: deps, UserName: name, SkipWelcome: skipIntro}); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}
