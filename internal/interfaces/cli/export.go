package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	appintegration "github.com/boodo/silvasync/internal/application/integration"
	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
)

func newProductsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "Export every store product to Silvasoft",
		Long: `Create every store product in Silvasoft. Variants inherit unit, net price
and tax rate from their parent product.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.connect(ctx, true); err != nil {
					return err
				}
				p := newPrinter(cmd.OutOrStdout())
				svc := appintegration.NewProductExportService(a.api, a.repos.Products, a.builder(),
					a.serviceOptions(logger.ChannelProductSync, p)...)

				p.line("Start products export to Silvasoft")
				result, err := svc.ExportProducts(ctx)
				if err != nil {
					return err
				}
				p.summary("Product export", result)
				return runError(result)
			})
		},
	}
}

// CustomerOptions holds flags for the customers command
type CustomerOptions struct {
	Date       string
	FromNumber string
}

func newCustomersCommand(opts *RootOptions) *cobra.Command {
	copts := &CustomerOptions{}

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Export store customers to Silvasoft as private relations",
		Long: `Create a Silvasoft private relation for every store customer created on or
after --date, or with a customer number of at least --from-customer-number.
Customers already known by email are skipped.

Example:
  silvasync customers --date 2024-06-01
  silvasync customers --from-customer-number 10450`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				date := copts.Date
				if date == "" {
					date = a.cfg.Sync.CustomerSince
				}
				filter, err := appintegration.ParseCustomerFilter(date, copts.FromNumber)
				if err != nil {
					return err
				}
				if err := a.connect(ctx, true); err != nil {
					return err
				}

				p := newPrinter(cmd.OutOrStdout())
				svc := appintegration.NewCustomerExportService(a.api, a.repos.Customers, a.builder(),
					a.serviceOptions(logger.ChannelCustomerSync, p)...)

				if filter.FromNumber != nil {
					p.line("Start customers export to Silvasoft from customer number %d", *filter.FromNumber)
				} else {
					p.line("Start customers export to Silvasoft from date %s", filter.Since.Format(appintegration.DateLayoutYMD))
				}
				result, err := svc.ExportCustomers(ctx, filter)
				if err != nil {
					return err
				}
				p.summary("Customer export", result)
				return runError(result)
			})
		},
	}

	cmd.Flags().StringVarP(&copts.Date, "date", "d", "", "export customers created on or after this date (YYYY-MM-DD, default sync.customer_since)")
	cmd.Flags().StringVar(&copts.FromNumber, "from-customer-number", "", "export customers from this customer number on; takes precedence over --date")
	return cmd
}

// OrderOptions holds flags for the orders command
type OrderOptions struct {
	Date     string
	Document string
}

func newOrdersCommand(opts *RootOptions) *cobra.Command {
	oopts := &OrderOptions{}

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Export store orders to Silvasoft as sales invoices",
		Long: `Send every order placed on or after --date to Silvasoft. Orders that already
carry a Silvasoft number are skipped, so the command can be rerun safely.

Example:
  silvasync orders --date 2025-03-01
  silvasync orders --document order`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				date := oopts.Date
				if date == "" {
					date = a.cfg.Sync.OrderSince
				}
				since, err := appintegration.ParseSinceDate(date, appintegration.DefaultOrderSince)
				if err != nil {
					return err
				}
				kind := integration.DocumentKind(oopts.Document)
				if !kind.IsValid() {
					return fmt.Errorf("%w: %q must be invoice or order", integration.ErrInvalidDocumentKind, oopts.Document)
				}
				if err := a.connect(ctx, true); err != nil {
					return err
				}

				p := newPrinter(cmd.OutOrStdout())
				svc := appintegration.NewOrderExportService(a.api, a.repos.Orders, a.builder(),
					a.serviceOptions(logger.ChannelOrderSync, p)...)

				p.line("Start %s export to Silvasoft from date %s", kind, since.Format(appintegration.DateLayoutYMD))
				result, err := svc.ExportOrders(ctx, shop.OrderFilter{Since: since}, kind)
				if err != nil {
					return err
				}
				p.summary("Order export", result)
				return runError(result)
			})
		},
	}

	cmd.Flags().StringVarP(&oopts.Date, "date", "d", "", "export orders placed on or after this date (YYYY-MM-DD, default sync.order_since)")
	cmd.Flags().StringVar(&oopts.Document, "document", string(integration.DocumentKindInvoice), "Silvasoft document to create (invoice|order)")
	return cmd
}
