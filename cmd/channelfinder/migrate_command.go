package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathieu-neron/channelfinder/internal/db"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the channel store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if err := db.Migrate(cmd.Context(), a.Pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
}
