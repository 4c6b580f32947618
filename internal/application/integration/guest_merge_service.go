package integration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shop"
)

// GuestMergeService folds guest accounts into an existing account with the
// same email in the same sales channel.
type GuestMergeService struct {
	customers shop.CustomerRepository
	orders    shop.OrderRepository
	opts      options
}

// NewGuestMergeService creates a new GuestMergeService
func NewGuestMergeService(customers shop.CustomerRepository, orders shop.OrderRepository, opts ...Option) *GuestMergeService {
	return &GuestMergeService{
		customers: customers,
		orders:    orders,
		opts:      newOptions(opts),
	}
}

// MergeGuests moves the orders of every guest to its match and deletes the
// guest. The returned map holds the merged-into customer per email.
//
// A non-guest match is preferred; otherwise any customer with the lowest
// customer number is taken. Guests without orders to move are kept.
func (s *GuestMergeService) MergeGuests(ctx context.Context) (map[string]shop.Customer, error) {
	log := s.opts.logger

	guests, err := s.customers.FindGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load guests: %w", err)
	}
	log.Info("Merging guest accounts", zap.Int("guests", len(guests)))

	run := s.opts.startRun(FlowGuestMerge)
	merged := make(map[string]shop.Customer)
	for i := range guests {
		if err := ctx.Err(); err != nil {
			run.finish()
			return merged, err
		}
		guest := &guests[i]

		target, err := s.findTarget(ctx, guest)
		if err != nil {
			log.Error("Guest match lookup failed", zap.String("email", guest.Email), zap.Error(err))
			run.failed(guest.Email, err)
			continue
		}
		if target == nil || target.ID == guest.ID {
			run.skipped(guest.Email, nil)
			continue
		}

		moved, err := s.orders.ReassignCustomer(ctx, guest.ID, target)
		if err != nil {
			log.Error("Reassigning guest orders failed",
				zap.String("email", guest.Email),
				zap.String("guest_id", guest.ID.String()),
				zap.Error(err),
			)
			run.failed(guest.Email, err)
			continue
		}
		if moved == 0 {
			run.skipped(guest.Email, nil)
			continue
		}

		if err := s.customers.Delete(ctx, guest.ID); err != nil {
			log.Error("Deleting merged guest failed",
				zap.String("email", guest.Email),
				zap.String("guest_id", guest.ID.String()),
				zap.Int64("orders_moved", moved),
				zap.Error(err),
			)
			run.failed(guest.Email, err)
			continue
		}

		log.Info("Guest merged",
			zap.String("email", guest.Email),
			zap.String("into_customer_number", target.CustomerNumber),
			zap.Int64("orders_moved", moved),
		)
		merged[guest.Email] = *target
		run.success(guest.Email)
	}

	run.finish()
	return merged, nil
}

func (s *GuestMergeService) findTarget(ctx context.Context, guest *shop.Customer) (*shop.Customer, error) {
	isGuest := false
	target, err := s.customers.FindFirstByEmailAndChannel(ctx, guest.Email, guest.SalesChannelID, &isGuest)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, shop.ErrCustomerNotFound) {
		return nil, err
	}

	target, err = s.customers.FindFirstByEmailAndChannel(ctx, guest.Email, guest.SalesChannelID, nil)
	if errors.Is(err, shop.ErrCustomerNotFound) {
		return nil, nil
	}
	return target, err
}
