package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// matchAreaTier returns the first tier whose range contains area.
// When no range contains it the first tier applies.
func matchAreaTier(tiers []AreaTier, area decimal.Decimal) (AreaTier, error) {
	if len(tiers) == 0 {
		return AreaTier{}, fmt.Errorf("%w: no area tiers", ErrInvalidConfiguration)
	}

	for _, t := range tiers {
		if area.LessThan(t.MinArea) {
			continue
		}
		if t.MaxArea == nil || area.LessThanOrEqual(*t.MaxArea) {
			return t, nil
		}
	}

	return tiers[0], nil
}

// matchQuantityTier returns the last open threshold not exceeding quantity.
// Unlike area lookup the scan does not stop at the first hit. When no threshold
// qualifies the first tier applies.
func matchQuantityTier(tiers []QuantityTier, quantity int) (QuantityTier, error) {
	if len(tiers) == 0 {
		return QuantityTier{}, fmt.Errorf("%w: no quantity tiers", ErrInvalidConfiguration)
	}

	var matched *QuantityTier
	for i := range tiers {
		if tiers[i].MaxQuantity != nil {
			continue
		}
		if quantity >= tiers[i].MinQuantity {
			matched = &tiers[i]
		}
	}
	if matched == nil {
		return tiers[0], nil
	}

	return *matched, nil
}

// matchPackagingTier follows the same threshold rules as matchQuantityTier.
func matchPackagingTier(tiers []PackagingTier, quantity int) (PackagingTier, bool) {
	if len(tiers) == 0 {
		return PackagingTier{}, false
	}

	var matched *PackagingTier
	for i := range tiers {
		if tiers[i].MaxQuantity != nil {
			continue
		}
		if quantity >= tiers[i].MinQuantity {
			matched = &tiers[i]
		}
	}
	if matched == nil {
		return tiers[0], true
	}

	return *matched, true
}
