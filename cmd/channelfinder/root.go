package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	var noCache bool

	ctx := newCommandContext(&logLevel, &noCache)

	rootCmd := &cobra.Command{
		Use:           "channelfinder",
		Short:         "Discover and verify public Telegram channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cobra.OnFinalize(ctx.close)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or invalidate the Redis cache")

	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newPopularCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newCategoriesCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newPublishCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}
