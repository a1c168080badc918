package workshop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/store"
)

// NewOrder holds the fields of an order to create.
type NewOrder struct {
	ClientID string     `json:"clientId" validate:"required"`
	Title    string     `json:"title" validate:"required,max=256"`
	Priority string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// CreateOrder opens an order for an existing client, assigned to the actor.
func (s *Service) CreateOrder(ctx context.Context, actor store.User, in NewOrder) (store.Order, error) {
	if err := authorize(actor, auth.CapViewOrders); err != nil {
		return store.Order{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return store.Order{}, err
	}
	if _, err := s.client(ctx, in.ClientID); err != nil {
		return store.Order{}, err
	}

	priority := in.Priority
	if priority == "" {
		priority = store.PriorityMedium
	}
	now := s.clock()
	o := store.Order{
		ClientID:   in.ClientID,
		Title:      in.Title,
		Status:     store.OrderStatusProcessing,
		Priority:   priority,
		AssignedTo: actor.ID,
		Deadline:   in.Deadline,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Orders.Create(ctx, &o); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor.ID, "order_created", "created order "+o.Title); err != nil {
			return err
		}
		return s.notify(ctx, tx, actor.ID, store.NotificationNewOrder, "New order", "Order created: "+o.Title)
	})
	if err != nil {
		return store.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", zap.String("order_id", o.ID), zap.String("client_id", o.ClientID))
	return o, nil
}

// Order returns an order the actor may see. Without manage_orders only
// orders assigned to the actor are visible.
func (s *Service) Order(ctx context.Context, actor store.User, orderID string) (store.Order, error) {
	if err := authorize(actor, auth.CapViewOrders); err != nil {
		return store.Order{}, err
	}
	o, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return store.Order{}, err
	}
	if o.AssignedTo != actor.ID && !actor.Capabilities.Has(auth.CapManageOrders) {
		return store.Order{}, fmt.Errorf("%w: order %s is assigned to someone else", ErrForbidden, orderID)
	}
	return o, nil
}

// ListOrders returns the orders matching f, newest first. Without
// manage_orders the list is limited to the actor's own orders.
func (s *Service) ListOrders(ctx context.Context, actor store.User, f store.OrderFilter) ([]store.Order, error) {
	if err := authorize(actor, auth.CapViewOrders); err != nil {
		return nil, err
	}
	if !actor.Capabilities.Has(auth.CapManageOrders) {
		f.AssignedTo = actor.ID
	}
	return s.store.Orders.List(ctx, f)
}

// UpdateOrderStatus moves an order along its workflow.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor store.User, orderID, status string) error {
	switch status {
	case store.OrderStatusProcessing, store.OrderStatusInProduction, store.OrderStatusReady,
		store.OrderStatusDelivered, store.OrderStatusCancelled:
	default:
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, status)
	}
	if _, err := s.Order(ctx, actor, orderID); err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Orders.UpdateStatus(ctx, orderID, status, s.clock()); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "order_status_changed", fmt.Sprintf("order %s is now %s", orderID, status))
	})
}
