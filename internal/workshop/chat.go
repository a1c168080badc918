package workshop

import (
	"context"
	"fmt"
	"strings"

	"github.com/Simplici0/printdesk/internal/store"
)

// NewMessage is a chat message posted on an order.
type NewMessage struct {
	Message string   `json:"message" validate:"required,max=4000"`
	To      string   `json:"to,omitempty"`
	Files   []string `json:"files,omitempty" validate:"max=20,dive,required,max=512"`
}

// SendMessage posts a message on an order. The order's assignee is notified
// unless they sent it themselves.
func (s *Service) SendMessage(ctx context.Context, actor store.User, orderID string, in NewMessage) (store.ChatMessage, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.check(in); err != nil {
		return store.ChatMessage{}, err
	}
	o, err := s.Order(ctx, actor, orderID)
	if err != nil {
		return store.ChatMessage{}, err
	}

	m := store.ChatMessage{
		OrderID:   o.ID,
		From:      actor.ID,
		To:        in.To,
		Message:   in.Message,
		Files:     in.Files,
		CreatedAt: s.clock(),
	}
	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Chat.Create(ctx, &m); err != nil {
			return err
		}
		if o.AssignedTo == "" || o.AssignedTo == actor.ID {
			return nil
		}
		return s.notify(ctx, tx, o.AssignedTo, store.NotificationNewMessage, "New chat message", m.Message)
	})
	if err != nil {
		return store.ChatMessage{}, fmt.Errorf("send message: %w", err)
	}
	return m, nil
}

// Messages lists the chat of an order, oldest first.
func (s *Service) Messages(ctx context.Context, actor store.User, orderID string) ([]store.ChatMessage, error) {
	if _, err := s.Order(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.store.Chat.ListByOrder(ctx, orderID)
}
