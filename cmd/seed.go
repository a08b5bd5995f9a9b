package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dex/lingbook/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Install a lesson catalog from a YAML file (default: the starter catalog)",
	Long: `Replace the stored catalog with the skills, lessons, questions and
vocabulary of a YAML seed file. Without a file the built-in starter catalog
is used. Nothing is written when the stored catalog version is the same or
newer, unless --force is given. Learner progress is kept.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		var (
			f   *seed.File
			err error
		)
		if len(args) == 1 {
			f, err = seed.Load(args[0])
		} else {
			f, err = seed.Starter()
		}
		if err != nil {
			return err
		}

		rt, err := openRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := seed.Apply(ctx, rt.store, f, force)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Printf("Catalog %s is already installed (stored: %s). Use --force to reinstall.\n",
				res.Version, res.StoredVersion)
			return nil
		}
		fmt.Printf("Installed catalog %s: %d skills, %d documents.\n", res.Version, len(f.Skills), res.Documents)
		return nil
	},
}

func init() {
	seedCmd.Flags().Bool("force", false, "Reinstall even when the stored catalog is not older")
}
