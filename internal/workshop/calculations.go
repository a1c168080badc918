package workshop

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/auth"
	"github.com/Simplici0/printdesk/internal/metrics"
	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

// ListCalculators returns every stored calculator.
func (s *Service) ListCalculators(ctx context.Context, actor store.User) ([]store.Calculator, error) {
	if err := authorize(actor, auth.CapUseCalculator); err != nil {
		return nil, err
	}
	return s.store.Calculators.List(ctx)
}

// SaveCalculator creates or replaces a calculator. Its pricing tables must
// pass validation.
func (s *Service) SaveCalculator(ctx context.Context, actor store.User, c store.Calculator) (store.Calculator, error) {
	if err := authorize(actor, auth.CapManageCalculators); err != nil {
		return store.Calculator{}, err
	}
	if c.ID == "" || c.Name == "" {
		return store.Calculator{}, fmt.Errorf("%w: calculator id and name are required", ErrInvalidInput)
	}
	if err := c.Pricing.Validate(); err != nil {
		return store.Calculator{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.clock()
	c.UpdatedAt = now
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		existing, err := tx.Calculators.Get(ctx, c.ID)
		switch {
		case err == nil:
			c.CreatedAt = existing.CreatedAt
		case errors.Is(err, store.ErrNotFound):
			c.CreatedAt = now
		default:
			return err
		}
		if err := tx.Calculators.Upsert(ctx, c); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "calculator_saved", "saved calculator "+c.ID)
	})
	if err != nil {
		return store.Calculator{}, fmt.Errorf("save calculator: %w", err)
	}

	if codes := c.Pricing.IndivisibleFormats(); len(codes) > 0 {
		s.logger.Warn("calculator has formats that cannot be quoted",
			zap.String("calculator_id", c.ID), zap.Strings("formats", codes))
	}
	return c, nil
}

// Calculate prices req with the tables of a stored calculator.
func (s *Service) Calculate(ctx context.Context, actor store.User, calculatorID string, req pricing.CalculationRequest) (pricing.CalculationResult, error) {
	if err := authorize(actor, auth.CapUseCalculator); err != nil {
		return pricing.CalculationResult{}, err
	}
	return s.calculate(ctx, calculatorID, req)
}

func (s *Service) calculate(ctx context.Context, calculatorID string, req pricing.CalculationRequest) (pricing.CalculationResult, error) {
	c, err := s.store.Calculators.Get(ctx, calculatorID)
	if err != nil {
		s.metrics.ObserveCalculation(calculatorID, metrics.OutcomeError)
		return pricing.CalculationResult{}, err
	}
	if !c.IsActive {
		s.metrics.ObserveCalculation(calculatorID, metrics.OutcomeInvalid)
		return pricing.CalculationResult{}, fmt.Errorf("%w: %s", ErrCalculatorInactive, calculatorID)
	}

	res, err := pricing.Calculate(c.Pricing, req)
	if err != nil {
		outcome := metrics.OutcomeError
		if isRequestError(err) {
			outcome = metrics.OutcomeInvalid
		}
		s.metrics.ObserveCalculation(calculatorID, outcome)
		return pricing.CalculationResult{}, err
	}

	s.metrics.ObserveCalculation(calculatorID, metrics.OutcomeOK)
	s.logger.Debug("calculated",
		zap.String("calculator_id", calculatorID),
		zap.String("format", req.FormatCode),
		zap.Int("quantity", req.Quantity),
		zap.Stringer("total", res.TotalCost))
	return res, nil
}

func isRequestError(err error) bool {
	return errors.Is(err, pricing.ErrInvalidRequest) ||
		errors.Is(err, pricing.ErrUnknownFormat) ||
		errors.Is(err, pricing.ErrIndivisibleFormat)
}

// Attachment asks for a calculation to be stored on an order.
type Attachment struct {
	CalculatorID string                     `json:"calculatorId" validate:"required"`
	Request      pricing.CalculationRequest `json:"request"`
	Packaging    *pricing.PackagingOptions  `json:"packaging,omitempty"`
}

// AttachCalculation prices the request and stores the result on the order as
// a snapshot. A later change of the price tables does not alter it.
func (s *Service) AttachCalculation(ctx context.Context, actor store.User, orderID string, in Attachment) (store.CalculationSnapshot, error) {
	if err := authorize(actor, auth.CapUseCalculator); err != nil {
		return store.CalculationSnapshot{}, err
	}
	if err := s.check(in); err != nil {
		return store.CalculationSnapshot{}, err
	}
	if _, err := s.Order(ctx, actor, orderID); err != nil {
		return store.CalculationSnapshot{}, err
	}

	res, err := s.calculate(ctx, in.CalculatorID, in.Request)
	if err != nil {
		return store.CalculationSnapshot{}, err
	}

	snapshot := store.CalculationSnapshot{
		CalculatorID: in.CalculatorID,
		Request:      in.Request,
		Result:       res,
		CalculatedBy: actor.ID,
		CalculatedAt: s.clock(),
	}
	if in.Packaging != nil {
		cfg, err := s.store.Calculators.Config(ctx, in.CalculatorID)
		if err != nil {
			return store.CalculationSnapshot{}, err
		}
		quote, err := pricing.QuotePackaging(cfg, in.Request.Quantity, *in.Packaging)
		if err != nil {
			return store.CalculationSnapshot{}, err
		}
		snapshot.Packaging = &quote
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.Orders.AttachCalculation(ctx, orderID, snapshot); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor.ID, "calculation_attached",
			fmt.Sprintf("attached %s calculation to order %s: %s", in.CalculatorID, orderID, res.TotalCost))
	})
	if err != nil {
		return store.CalculationSnapshot{}, fmt.Errorf("attach calculation: %w", err)
	}
	return snapshot, nil
}
