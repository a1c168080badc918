package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownFormat is returned when the requested format code is not configured.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrIndivisibleFormat is returned when the format occupies more than one page
	// (MaxSheetsPerPage == 0) and no sheet yield can be derived from it.
	ErrIndivisibleFormat = errors.New("indivisible format")
	// ErrInvalidRequest is returned for non-positive dimensions or quantity and unknown options.
	ErrInvalidRequest = errors.New("invalid calculation request")
	// ErrInvalidConfiguration is returned when the tier tables cannot drive a calculation.
	ErrInvalidConfiguration = errors.New("invalid pricing configuration")
)

// Complexity describes how demanding the artwork is.
type Complexity string

const (
	ComplexityStandard  Complexity = "standard"
	ComplexityDifficult Complexity = "difficult"
)

// Sides describes single or double sided printing.
type Sides string

const (
	SidesSingle Sides = "single"
	SidesDouble Sides = "double"
)

var (
	squareCmToSquareM = decimal.New(1, -4)

	difficultMultiplier  = decimal.RequireFromString("1.5")
	doubleSideMultiplier = decimal.RequireFromString("1.8")
)

// CalculationRequest holds the physical parameters of an order item.
type CalculationRequest struct {
	FormatCode string          `json:"formatCode"`
	WidthCm    decimal.Decimal `json:"widthCm"`
	HeightCm   decimal.Decimal `json:"heightCm"`
	Quantity   int             `json:"quantity"`
	Complexity Complexity      `json:"complexity"`
	Sides      Sides           `json:"sides"`
}

// CalculationResult contains every derived value of a calculation.
type CalculationResult struct {
	TotalAreaSquareMeters decimal.Decimal `json:"totalAreaSquareMeters"`
	SheetsNeeded          int             `json:"sheetsNeeded"`
	PrintCost             decimal.Decimal `json:"printCost"`
	TransferCost          decimal.Decimal `json:"transferCost"`
	ComplexityMultiplier  decimal.Decimal `json:"complexityMultiplier"`
	SidesMultiplier       decimal.Decimal `json:"sidesMultiplier"`
	TotalCost             decimal.Decimal `json:"totalCost"`
	UnitPrice             decimal.Decimal `json:"unitPrice"`
	MatchedFormat         Format          `json:"matchedFormat"`
	AreaLeadTime          string          `json:"areaLeadTime,omitempty"`
	TransferLeadTime      string          `json:"transferLeadTime,omitempty"`
}

// Calculate prices an order item against the tier tables of cfg.
// It has no side effects and is safe for concurrent use.
func Calculate(cfg Configuration, req CalculationRequest) (CalculationResult, error) {
	if err := validateRequest(req); err != nil {
		return CalculationResult{}, err
	}

	format, ok := cfg.Formats[req.FormatCode]
	if !ok {
		return CalculationResult{}, fmt.Errorf("%w: %q", ErrUnknownFormat, req.FormatCode)
	}

	quantity := decimal.NewFromInt(int64(req.Quantity))
	itemArea := req.WidthCm.Mul(req.HeightCm).Mul(squareCmToSquareM)
	totalArea := itemArea.Mul(quantity)

	sheets, err := sheetsNeeded(req.FormatCode, format, req.Quantity)
	if err != nil {
		return CalculationResult{}, err
	}

	areaTier, err := matchAreaTier(cfg.AreaTiers, totalArea)
	if err != nil {
		return CalculationResult{}, err
	}
	quantityTier, err := matchQuantityTier(cfg.QuantityTiers, req.Quantity)
	if err != nil {
		return CalculationResult{}, err
	}

	printCost := totalArea.Mul(areaTier.PricePerSquareMeter)
	transferCost := quantity.Mul(quantityTier.PricePerUnit)

	complexity := decimal.NewFromInt(1)
	if req.Complexity == ComplexityDifficult {
		complexity = difficultMultiplier
	}
	sides := decimal.NewFromInt(1)
	if req.Sides == SidesDouble {
		sides = doubleSideMultiplier
	}

	total := printCost.Add(transferCost).Mul(complexity).Mul(sides)
	// Per-unit price equals total/quantity but is built by multiplication, so
	// unit * quantity reproduces the total exactly for any input precision.
	unit := itemArea.Mul(areaTier.PricePerSquareMeter).Add(quantityTier.PricePerUnit).Mul(complexity).Mul(sides)

	return CalculationResult{
		TotalAreaSquareMeters: totalArea,
		SheetsNeeded:          sheets,
		PrintCost:             printCost,
		TransferCost:          transferCost,
		ComplexityMultiplier:  complexity,
		SidesMultiplier:       sides,
		TotalCost:             total,
		UnitPrice:             unit,
		MatchedFormat:         format,
		AreaLeadTime:          areaTier.LeadTime,
		TransferLeadTime:      quantityTier.LeadTime,
	}, nil
}

func validateRequest(req CalculationRequest) error {
	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidRequest, req.Quantity)
	}
	if !req.WidthCm.IsPositive() {
		return fmt.Errorf("%w: width must be positive, got %s", ErrInvalidRequest, req.WidthCm)
	}
	if !req.HeightCm.IsPositive() {
		return fmt.Errorf("%w: height must be positive, got %s", ErrInvalidRequest, req.HeightCm)
	}
	switch req.Complexity {
	case "", ComplexityStandard, ComplexityDifficult:
	default:
		return fmt.Errorf("%w: unknown complexity %q", ErrInvalidRequest, req.Complexity)
	}
	switch req.Sides {
	case "", SidesSingle, SidesDouble:
	default:
		return fmt.Errorf("%w: unknown sides %q", ErrInvalidRequest, req.Sides)
	}
	return nil
}

// sheetsNeeded is ceil(quantity / MaxSheetsPerPage). Zero-yield formats are rejected.
func sheetsNeeded(code string, format Format, quantity int) (int, error) {
	if format.MaxSheetsPerPage == 0 {
		return 0, fmt.Errorf("%w: %q occupies more than one page", ErrIndivisibleFormat, code)
	}
	sheets := quantity / format.MaxSheetsPerPage
	if quantity%format.MaxSheetsPerPage != 0 {
		sheets++
	}
	return sheets, nil
}
