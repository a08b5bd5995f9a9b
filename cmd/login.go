package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/identity"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Create your learner profile and print a sign-in token",
	Long: `Create or update the learner profile and mint a signed token for it.
The token is signed with LINGBOOK_TOKEN_SECRET; export it as LINGBOOK_TOKEN
to stay signed in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		level, _ := cmd.Flags().GetString("level")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.cfg.User == "" {
			return errors.New("pass the learner id with --user")
		}
		if rt.cfg.TokenSecret == "" {
			return errors.New("set LINGBOOK_TOKEN_SECRET to sign tokens")
		}

		u := identity.User{ID: rt.cfg.User, DisplayName: name, Email: email, CurrentLevel: level}
		if err := identity.SaveProfile(ctx, rt.store, u); err != nil {
			return err
		}
		token, err := identity.Issue(u, []byte(rt.cfg.TokenSecret), ttl, time.Now())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		fmt.Printf("Signed in as %s.\n\n", u.Name())
		fmt.Printf("export LINGBOOK_TOKEN=%s\n", token)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("name", "", "Display name")
	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().String("level", "", "Current level, e.g. A1")
	loginCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
}
