package workshop

import (
	"context"
	"fmt"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/store"
)

// RecentNotifications returns the actor's newest notifications and marks the
// returned ones as read. The result shows the state before marking.
func (s *Service) RecentNotifications(ctx context.Context, actor store.User) ([]store.Notification, error) {
	var recent []store.Notification
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		var err error
		recent, err = tx.Notifications.Recent(ctx, actor.ID, recentNotifications)
		if err != nil {
			return err
		}
		unread := make([]string, 0, len(recent))
		for _, n := range recent {
			if !n.IsRead {
				unread = append(unread, n.ID)
			}
		}
		return tx.Notifications.MarkRead(ctx, actor.ID, unread)
	})
	if err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	return recent, nil
}

// UnreadCount returns the number of unread notifications of the actor.
func (s *Service) UnreadCount(ctx context.Context, actor store.User) (int, error) {
	return s.store.Notifications.CountUnread(ctx, actor.ID)
}

// AuditLog lists audit entries, newest first.
func (s *Service) AuditLog(ctx context.Context, actor store.User, f store.AuditFilter) ([]store.AuditEntry, error) {
	if err := authorize(actor, auth.CapViewAuditLog); err != nil {
		return nil, err
	}
	return s.store.Audit.List(ctx, f)
}
