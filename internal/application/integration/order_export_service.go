package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

var (
	errAlreadySynced    = errors.New("order already synced")
	errNotExportable    = errors.New("order state is not exported")
	errMissingAddresses = errors.New("missing billing or shipping address")
)

// OrderExportService sends store orders to Silvasoft as sales invoices or
// sales orders. An order that carries a remote document number is never sent
// again.
type OrderExportService struct {
	api     integration.AccountingAPI
	orders  shop.OrderRepository
	builder *PayloadBuilder
	opts    options
	now     func() time.Time
}

// NewOrderExportService creates a new OrderExportService
func NewOrderExportService(
	api integration.AccountingAPI,
	orders shop.OrderRepository,
	builder *PayloadBuilder,
	opts ...Option,
) *OrderExportService {
	return &OrderExportService{
		api:     api,
		orders:  orders,
		builder: builder,
		opts:    newOptions(opts),
		now:     time.Now,
	}
}

// ---------------------------------------------------------------------------
// Bulk export
// ---------------------------------------------------------------------------

// ExportOrders sends every exportable order placed on or after filter.Since.
// A rejected invoice is retried once with the customer number instead of
// the email.
func (s *OrderExportService) ExportOrders(ctx context.Context, filter shop.OrderFilter, kind integration.DocumentKind) (*integration.SyncResult, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrInvalidDocumentKind, kind)
	}

	orders, err := s.orders.FindForExport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	s.opts.logger.Info("Exporting orders",
		zap.Int("count", len(orders)),
		zap.Time("since", filter.Since),
		zap.String("document", kind.String()),
	)

	run := s.opts.startRun(FlowOrders)
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return run.finish(), err
		}
		order := &orders[i]
		if !order.State.ExportableState() {
			s.opts.logger.Info("Order state is not exported, skip",
				zap.String("order_number", order.OrderNumber),
				zap.String("state", order.State.String()),
			)
			s.record(run, order, errNotExportable)
			continue
		}
		s.record(run, order, s.submit(ctx, order, kind, ExportStyle, true))
	}
	return run.finish(), nil
}

// SyncUnsynced sends up to limit orders without a remote marker that were
// placed within lookback.
func (s *OrderExportService) SyncUnsynced(ctx context.Context, lookback time.Duration, limit int) (*integration.SyncResult, error) {
	orders, err := s.orders.FindUnsynced(ctx, shop.OrderFilter{
		Since: s.now().Add(-lookback),
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("load unsynced orders: %w", err)
	}

	run := s.opts.startRun(FlowOrders)
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return run.finish(), err
		}
		order := &orders[i]
		s.record(run, order, s.syncPlaced(ctx, order))
	}
	return run.finish(), nil
}

func (s *OrderExportService) record(run *run, order *shop.Order, err error) {
	switch {
	case err == nil:
		run.success(order.OrderNumber)
	case errors.Is(err, errAlreadySynced), errors.Is(err, errNotExportable):
		run.skipped(order.OrderNumber, err)
	default:
		run.failed(order.OrderNumber, err)
	}
}

// ---------------------------------------------------------------------------
// Placed orders
// ---------------------------------------------------------------------------

// SyncPlacedOrder makes sure the customer exists as a relation and then
// sends the order as a sales invoice. The order state is not checked since a
// freshly placed order is still open.
func (s *OrderExportService) SyncPlacedOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	err = s.syncPlaced(ctx, order)
	switch {
	case err == nil:
		s.opts.recorder.RecordItem(FlowOrders, OutcomeSuccess)
		return nil
	case errors.Is(err, errAlreadySynced), errors.Is(err, errNotExportable):
		s.opts.recorder.RecordItem(FlowOrders, OutcomeSkipped)
		return nil
	default:
		s.opts.recorder.RecordItem(FlowOrders, OutcomeFailed)
		return err
	}
}

func (s *OrderExportService) syncPlaced(ctx context.Context, order *shop.Order) error {
	if order.IsSynced() {
		s.logSkip(order)
		return errAlreadySynced
	}
	if order.BillingAddress == nil || order.ShippingAddress == nil {
		s.opts.logger.Error("Missing billing or shipping address", zap.String("order_number", order.OrderNumber))
		return fmt.Errorf("%w: %s: %v", integration.ErrOrderSyncInvalidOrder, order.OrderNumber, errMissingAddresses)
	}

	s.ensureRelation(ctx, order)
	return s.submit(ctx, order, integration.DocumentKindInvoice, PlacedStyle, false)
}

// ensureRelation creates the relation of the order's customer when Silvasoft
// does not know the email. Failures are logged; the invoice is still sent.
func (s *OrderExportService) ensureRelation(ctx context.Context, order *shop.Order) {
	log := s.opts.logger.With(zap.String("order_number", order.OrderNumber))

	found, err := s.api.CheckRelation(ctx, order.Email())
	if err != nil {
		log.Error("Error checking customer in Silvasoft", zap.String("email", order.Email()), zap.Error(err))
		return
	}
	if found {
		return
	}

	err = s.api.AddPrivateRelation(ctx, s.builder.OrderRelation(*order))
	switch {
	case errors.Is(err, integration.ErrRelationExists):
		log.Info("Relation already exists in Silvasoft")
	case err != nil:
		log.Error("Error adding customer to Silvasoft", zap.Error(err))
	default:
		log.Info("Customer added to Silvasoft during order sync",
			zap.String("customer_number", order.CustomerNumberOrGuest()),
		)
	}
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

func (s *OrderExportService) submit(ctx context.Context, order *shop.Order, kind integration.DocumentKind, style DocumentStyle, retryByNumber bool) error {
	log := s.opts.logger.With(zap.String("order_number", order.OrderNumber))

	if order.IsSynced() {
		s.logSkip(order)
		return errAlreadySynced
	}
	if order.BillingAddress == nil || order.ShippingAddress == nil {
		log.Error("Missing billing or shipping address")
		return fmt.Errorf("%w: %s: %v", integration.ErrOrderSyncInvalidOrder, order.OrderNumber, errMissingAddresses)
	}

	var (
		number string
		err    error
	)
	switch kind {
	case integration.DocumentKindOrder:
		number, err = s.sendOrder(ctx, order, style, retryByNumber)
	default:
		number, err = s.sendInvoice(ctx, order, style, retryByNumber)
	}
	if err != nil {
		log.Error("Order sync failed", zap.String("document", kind.String()), zap.Error(err))
		return err
	}

	if number == "" {
		log.Warn("Silvasoft returned no document number", zap.String("document", kind.String()))
		number = shop.UnknownRemoteNumber
	}
	fields := map[string]any{
		shop.RemoteInvoiceField:  number,
		shop.RemoteDocumentField: kind.String(),
	}
	if err := s.orders.SetCustomFields(ctx, order.ID, fields); err != nil {
		log.Error("Failed to store Silvasoft document number",
			zap.String("remote_number", number),
			zap.Error(err),
		)
		return fmt.Errorf("store marker for order %s: %w", order.OrderNumber, err)
	}
	if order.CustomFields == nil {
		order.CustomFields = map[string]any{}
	}
	for k, v := range fields {
		order.CustomFields[k] = v
	}

	log.Info("Order synced to Silvasoft",
		zap.String("document", kind.String()),
		zap.String("remote_number", number),
	)
	return nil
}

func (s *OrderExportService) sendInvoice(ctx context.Context, order *shop.Order, style DocumentStyle, retryByNumber bool) (string, error) {
	payload := s.builder.Invoice(*order, style)
	number, err := s.api.AddSalesInvoice(ctx, payload)
	if retryByNumber && errors.Is(err, integration.ErrPlatformBadRequest) {
		s.opts.logger.Warn("Invoice rejected by email, retrying with customer number",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		number, err = s.api.AddSalesInvoice(ctx, InvoiceByNumber(payload, order.CustomerNumberOrGuest()))
	}
	return number, err
}

func (s *OrderExportService) sendOrder(ctx context.Context, order *shop.Order, style DocumentStyle, retryByNumber bool) (string, error) {
	payload := s.builder.Order(*order, style)
	number, err := s.api.AddOrder(ctx, payload)
	if retryByNumber && errors.Is(err, integration.ErrPlatformBadRequest) {
		s.opts.logger.Warn("Order rejected by email, retrying with customer number",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		payload.CustomerEmail = ""
		payload.CustomerNumber = order.CustomerNumberOrGuest()
		number, err = s.api.AddOrder(ctx, payload)
	}
	return number, err
}

func (s *OrderExportService) logSkip(order *shop.Order) {
	s.opts.logger.Info("Order already synced, skip",
		zap.String("order_number", order.OrderNumber),
		zap.String("remote_number", order.RemoteInvoiceNumber()),
	)
}

// ---------------------------------------------------------------------------
// State changes
// ---------------------------------------------------------------------------

// UpdateRemoteStatus forwards a state change of an order that was sent as a
// Silvasoft sales order. Orders sent as invoices are left alone.
func (s *OrderExportService) UpdateRemoteStatus(ctx context.Context, orderID uuid.UUID, state shop.OrderState) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	log := s.opts.logger.With(zap.String("order_number", order.OrderNumber))

	if !order.IsSynced() || order.RemoteDocument() != integration.DocumentKindOrder.String() {
		log.Debug("Order has no Silvasoft sales order, skip status update")
		return nil
	}
	if order.RemoteInvoiceNumber() == shop.UnknownRemoteNumber {
		log.Warn("Silvasoft order number unknown, cannot update status")
		return nil
	}
	if state.IsValid() {
		order.State = state
	}

	if err := s.api.UpdateOrder(ctx, s.builder.OrderStatus(*order)); err != nil {
		log.Error("Order status update failed", zap.String("state", order.State.String()), zap.Error(err))
		return err
	}
	log.Info("Order status updated in Silvasoft", zap.String("state", order.State.String()))
	return nil
}
