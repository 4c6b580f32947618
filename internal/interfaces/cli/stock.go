package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	appintegration "github.com/boodo/silvasync/internal/application/integration"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
)

// Stock sync directions
const (
	DirectionPull = "pull"
	DirectionPush = "push"
)

// StockOptions holds flags for the stock command
type StockOptions struct {
	Direction        string
	ImportCategories bool
}

func newStockCommand(opts *RootOptions) *cobra.Command {
	sopts := &StockOptions{}

	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Synchronize stock between Silvasoft and the store",
		Long: `pull copies stock levels from Silvasoft into the store; push sends the store's
stock levels to Silvasoft. With --import-categories a pull also links products
to the category path stored in their Silvasoft category field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sopts.Direction != DirectionPull && sopts.Direction != DirectionPush {
				return fmt.Errorf("invalid direction %q: use %q or %q", sopts.Direction, DirectionPull, DirectionPush)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.connect(ctx, true); err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				svc := appintegration.NewStockSyncService(a.api, a.repos.Products, a.repos.Categories, a.builder(),
					a.cfg.Silvasoft.PageSize, a.serviceOptions(logger.ChannelStockSync, p)...)

				if sopts.Direction == DirectionPull {
					p.line("Pulling stock from Silvasoft and updating the store...")
					updated, err := svc.Pull(ctx, sopts.ImportCategories)
					if err != nil {
						return err
					}
					p.line("Stock pulled from Silvasoft: %d products updated", updated)
					return nil
				}

				p.line("Pushing stock from the store to Silvasoft...")
				result, err := svc.Push(ctx)
				if err != nil {
					return err
				}
				p.summary("Stock push", result)
				return runError(result)
			})
		},
	}

	cmd.Flags().StringVar(&sopts.Direction, "direction", DirectionPull, "pull (Silvasoft to store) or push (store to Silvasoft)")
	cmd.Flags().BoolVar(&sopts.ImportCategories, "import-categories", false, "link pulled products to their Silvasoft category path")
	return cmd
}

func newMergeGuestsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge-guests",
		Short: "Merge guest accounts into the matching customer",
		Long: `Move the orders of every guest customer to the customer with the same email
in the same sales channel, preferring registered accounts, and delete the
guest once its orders moved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.connect(ctx, false); err != nil {
					return err
				}
				svc := appintegration.NewGuestMergeService(a.repos.Customers, a.repos.Orders,
					a.serviceOptions(logger.ChannelCustomerSync, nil)...)

				merged, err := svc.MergeGuests(ctx)
				newPrinter(cmd.OutOrStdout()).merged(merged)
				return err
			})
		},
	}
}
