// Package cli implements the silvasync command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	LogLevel string
	Version  string
}

var validLogLevels = []string{"", "debug", "info", "warn", "error"}

// NewRootCommand creates the silvasync root command
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Version: version}

	cmd := &cobra.Command{
		Use:   "silvasync",
		Short: "Synchronize a Shopware store with Silvasoft",
		Long: `silvasync exports products, customers and orders from the Shopware store
database to Silvasoft, keeps stock in step in both directions and merges
guest accounts. "silvasync serve" receives store webhooks and runs the
periodic order and stock tasks.

Configuration is read from config.toml and SILVASYNC_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validLogLevels, opts.LogLevel) {
				return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", opts.LogLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	cmd.AddCommand(
		newProductsCommand(opts),
		newCustomersCommand(opts),
		newOrdersCommand(opts),
		newStockCommand(opts),
		newMergeGuestsCommand(opts),
		newServeCommand(opts),
		newMigrateCommand(opts),
		newLogsCommand(opts),
	)
	return cmd
}
