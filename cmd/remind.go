package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/reminder"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send an inactivity reminder when one is due",
	Long: `Check whether the learner has been inactive for the reminder delay
(LINGBOOK_REMINDER_DELAY, default 24h) and send one reminder if so.

Reminders are published to the AMQP exchange when LINGBOOK_AMQP_URI is set,
and printed otherwise. With --watch the check repeats until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.requireUser(ctx)
		if err != nil {
			return err
		}

		var notifier reminder.Notifier = reminder.Terminal{W: os.Stdout}
		if rt.cfg.AMQPURI != "" {
			pub, err := reminder.DialAMQP(rt.cfg.AMQPURI, rt.cfg.AMQPExchange)
			if err != nil {
				return err
			}
			defer pub.Close()
			notifier = pub
		}

		sched := &reminder.Scheduler{
			Tracker:  reminder.NewTracker(rt.store, rt.cfg.ReminderDelay),
			Notifier: notifier,
			UserID:   u.ID,
			Interval: interval,
			Logger:   rt.logger,
		}

		if watch {
			fmt.Printf("Watching %s every %s. Press Ctrl+C to stop.\n", u.ID, interval)
			err := sched.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		sent, err := sched.Tick(ctx)
		if err != nil {
			return err
		}
		if !sent {
			fmt.Println("No reminder due.")
		}
		return nil
	},
}

func init() {
	remindCmd.Flags().Bool("watch", false, "Keep checking until interrupted")
	remindCmd.Flags().Duration("interval", 15*time.Minute, "Time between checks with --watch")
}
