package integration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// Default lower bounds of the export filters
const (
	DefaultCustomerSince = "2020-01-01"
	DefaultOrderSince    = "2025-01-01"
)

var errNoAddress = errors.New("customer has no address")

// ParseSinceDate parses a YYYY-MM-DD date. An empty value uses fallback.
func ParseSinceDate(value, fallback string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	t, err := time.Parse(DateLayoutYMD, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", shop.ErrInvalidFilter, value)
	}
	return t, nil
}

// ParseCustomerFilter builds the customer export filter. A customer number
// takes precedence over the date.
func ParseCustomerFilter(date, fromNumber string) (shop.CustomerFilter, error) {
	if fromNumber = strings.TrimSpace(fromNumber); fromNumber != "" {
		n, err := strconv.Atoi(fromNumber)
		if err != nil || n < 0 {
			return shop.CustomerFilter{}, fmt.Errorf("%w: customer number %q is not a non-negative integer", shop.ErrInvalidFilter, fromNumber)
		}
		return shop.CustomerFilter{FromNumber: &n}, nil
	}
	since, err := ParseSinceDate(date, DefaultCustomerSince)
	if err != nil {
		return shop.CustomerFilter{}, err
	}
	return shop.CustomerFilter{Since: since}, nil
}

// CustomerExportService sends store customers to Silvasoft as private relations
type CustomerExportService struct {
	api       integration.AccountingAPI
	customers shop.CustomerRepository
	builder   *PayloadBuilder
	opts      options
}

// NewCustomerExportService creates a new CustomerExportService
func NewCustomerExportService(
	api integration.AccountingAPI,
	customers shop.CustomerRepository,
	builder *PayloadBuilder,
	opts ...Option,
) *CustomerExportService {
	return &CustomerExportService{
		api:       api,
		customers: customers,
		builder:   builder,
		opts:      newOptions(opts),
	}
}

// ExportCustomers creates a relation for every customer matching filter.
// Relations Silvasoft already knows count as skipped.
func (s *CustomerExportService) ExportCustomers(ctx context.Context, filter shop.CustomerFilter) (*integration.SyncResult, error) {
	log := s.opts.logger

	customers, err := s.customers.FindForExport(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}
	log.Info("Exporting customers", zap.Int("count", len(customers)))

	run := s.opts.startRun(FlowCustomers)
	for _, customer := range customers {
		if err := ctx.Err(); err != nil {
			return run.finish(), err
		}

		address := customer.PreferredAddress()
		if address == nil {
			log.Warn("Customer has no address, skipping",
				zap.String("customer_number", customer.CustomerNumber),
				zap.String("email", customer.Email),
			)
			run.skipped(customer.CustomerNumber, errNoAddress)
			continue
		}

		err := s.api.AddPrivateRelation(ctx, s.builder.Relation(customer, address))
		switch {
		case errors.Is(err, integration.ErrRelationExists):
			log.Info("Relation already exists in Silvasoft",
				zap.String("customer_number", customer.CustomerNumber),
			)
			run.skipped(customer.CustomerNumber, err)
		case err != nil:
			log.Error("Customer export failed",
				zap.String("customer_number", customer.CustomerNumber),
				zap.Error(err),
			)
			run.failed(customer.CustomerNumber, fmt.Errorf("%w: %v", integration.ErrCustomerSyncFailed, err))
		default:
			log.Info("Customer exported", zap.String("customer_number", customer.CustomerNumber))
			run.success(customer.CustomerNumber)
		}
	}

	return run.finish(), nil
}

// RegisterCustomer creates the relation of a newly registered customer.
// Customers without a billing address are skipped.
func (s *CustomerExportService) RegisterCustomer(ctx context.Context, customerID uuid.UUID) error {
	log := s.opts.logger

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("load customer %s: %w", customerID, err)
	}

	billing := customer.BillingAddress()
	if billing == nil {
		log.Warn("Registered customer has no billing address, skipping",
			zap.String("customer_id", customerID.String()),
		)
		s.opts.recorder.RecordItem(FlowCustomers, OutcomeSkipped)
		return nil
	}

	err = s.api.AddPrivateRelation(ctx, s.builder.Relation(*customer, billing))
	switch {
	case errors.Is(err, integration.ErrRelationExists):
		log.Info("Relation already exists in Silvasoft", zap.String("customer_number", customer.CustomerNumber))
		s.opts.recorder.RecordItem(FlowCustomers, OutcomeSkipped)
		return nil
	case err != nil:
		s.opts.recorder.RecordItem(FlowCustomers, OutcomeFailed)
		return fmt.Errorf("%w: %s: %v", integration.ErrCustomerSyncFailed, customer.CustomerNumber, err)
	}
	log.Info("Registered customer synced", zap.String("customer_number", customer.CustomerNumber))
	s.opts.recorder.RecordItem(FlowCustomers, OutcomeSuccess)
	return nil
}
