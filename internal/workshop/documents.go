package workshop

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/documents"
	"github.com/Simplici0/printdesk/internal/store"
)

// GenerateDocument renders a document of docType for an order and records it.
func (s *Service) GenerateDocument(ctx context.Context, actor store.User, orderID, docType string) (store.Document, error) {
	o, err := s.Order(ctx, actor, orderID)
	if err != nil {
		return store.Document{}, err
	}
	c, err := s.store.Clients.Get(ctx, o.ClientID)
	if err != nil {
		return store.Document{}, err
	}

	now := s.clock()
	d := store.Document{
		ID:          store.NewID("doc"),
		Type:        docType,
		OrderID:     o.ID,
		ClientID:    c.ID,
		GeneratedBy: actor.ID,
		Status:      store.DocumentStatusGenerated,
		CreatedAt:   now,
	}
	out, err := s.docs.Generate(documents.Input{DocumentID: d.ID, Type: docType, Order: o, Client: c, GeneratedAt: now})
	if errors.Is(err, documents.ErrUnknownType) {
		return store.Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("generate document: %w", err)
	}
	d.FileName, d.FilePath = out.FileName, out.FilePath

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Documents.Create(ctx, &d); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "document_generated", "generated "+d.FileName)
	})
	if err != nil {
		if rmErr := s.docs.Remove(out); rmErr != nil {
			s.logger.Warn("remove unrecorded document", zap.String("file", out.FilePath), zap.Error(rmErr))
		}
		return store.Document{}, fmt.Errorf("record document: %w", err)
	}

	s.metrics.DocumentGenerated()
	s.logger.Info("document generated", zap.String("document_id", d.ID), zap.String("file", d.FilePath))
	return d, nil
}

// Documents lists the documents of an order, newest first.
func (s *Service) Documents(ctx context.Context, actor store.User, orderID string) ([]store.Document, error) {
	if _, err := s.Order(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.store.Documents.ListByOrder(ctx, orderID)
}

// Document returns one document record if the actor may see its order.
func (s *Service) Document(ctx context.Context, actor store.User, documentID string) (store.Document, error) {
	d, err := s.store.Documents.Get(ctx, documentID)
	if err != nil {
		return store.Document{}, err
	}
	if _, err := s.Order(ctx, actor, d.OrderID); err != nil {
		return store.Document{}, err
	}
	return d, nil
}
