package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PackagingOptions selects which packaging add-ons apply to every unit.
type PackagingOptions struct {
	Package bool `json:"package"`
	Barcode bool `json:"barcode"`
	Bag     bool `json:"bag"`
}

// PackagingQuote is the packaging add-on for an order. It is quoted separately
// and never included in CalculationResult.TotalCost.
type PackagingQuote struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// QuotePackaging prices the selected packaging add-ons for quantity units.
func QuotePackaging(cfg Configuration, quantity int, opts PackagingOptions) (PackagingQuote, error) {
	if quantity < 1 {
		return PackagingQuote{}, fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidRequest, quantity)
	}

	tier, ok := matchPackagingTier(cfg.PackagingTiers, quantity)
	if !ok {
		return PackagingQuote{}, fmt.Errorf("%w: no packaging tiers", ErrInvalidConfiguration)
	}

	unit := decimal.Zero
	if opts.Package {
		unit = unit.Add(tier.PackagePrice)
	}
	if opts.Barcode {
		unit = unit.Add(tier.BarcodePrice)
	}
	if opts.Bag {
		unit = unit.Add(tier.BagPrice)
	}

	return PackagingQuote{
		UnitPrice: unit,
		Total:     unit.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}
