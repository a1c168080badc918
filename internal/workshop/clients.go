package workshop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/store"
)

// NewClient holds the fields of a client to create.
type NewClient struct {
	CompanyName   string `json:"companyName" validate:"required,max=256"`
	ContactPerson string `json:"contactPerson" validate:"max=128"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"max=32"`
}

// CreateClient registers a client assigned to the actor.
func (s *Service) CreateClient(ctx context.Context, actor store.User, in NewClient) (store.Client, error) {
	if err := authorize(actor, auth.CapManageClients); err != nil {
		return store.Client{}, err
	}
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if err := s.check(in); err != nil {
		return store.Client{}, err
	}

	now := s.clock()
	c := store.Client{
		CompanyName:   in.CompanyName,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Status:        store.ClientStatusNew,
		AssignedTo:    actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Clients.Create(ctx, &c); err != nil {
			return err
		}
		if err := s.audit(ctx, tx, actor.ID, "client_created", "created client "+c.CompanyName); err != nil {
			return err
		}
		return s.notify(ctx, tx, actor.ID, store.NotificationNewClient, "New client", "Client created: "+c.CompanyName)
	})
	if err != nil {
		return store.Client{}, fmt.Errorf("create client: %w", err)
	}

	s.logger.Info("client created", zap.String("client_id", c.ID), zap.String("by", actor.ID))
	return c, nil
}

// ListClients returns clients matching query, newest first.
func (s *Service) ListClients(ctx context.Context, actor store.User, query string) ([]store.Client, error) {
	if err := authorize(actor, auth.CapManageClients); err != nil {
		return nil, err
	}
	return s.store.Clients.List(ctx, strings.TrimSpace(query))
}

// UpdateClientStatus moves a client to another status.
func (s *Service) UpdateClientStatus(ctx context.Context, actor store.User, clientID, status string) error {
	if err := authorize(actor, auth.CapManageClients); err != nil {
		return err
	}
	switch status {
	case store.ClientStatusNew, store.ClientStatusActive, store.ClientStatusInactive:
	default:
		return fmt.Errorf("%w: unknown client status %q", ErrInvalidInput, status)
	}

	return s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Clients.UpdateStatus(ctx, clientID, status, s.clock()); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "client_status_changed", fmt.Sprintf("client %s is now %s", clientID, status))
	})
}

func (s *Service) client(ctx context.Context, id string) (store.Client, error) {
	c, err := s.store.Clients.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Client{}, fmt.Errorf("%w: client %q does not exist", ErrInvalidInput, id)
	}
	return c, err
}
