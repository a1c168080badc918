package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Format is a named sheet size with its print yield.
// MaxSheetsPerPage == 0 marks a format that occupies more than one page.
type Format struct {
	Width            decimal.Decimal `json:"width"`
	Height           decimal.Decimal `json:"height"`
	MaxSheetsPerPage int             `json:"maxSheetsPerPage"`
}

// AreaTier prices a range of total print area in square meters.
// A nil MaxArea means the range is unbounded.
type AreaTier struct {
	MinArea             decimal.Decimal  `json:"minArea"`
	MaxArea             *decimal.Decimal `json:"maxArea,omitempty"`
	PricePerSquareMeter decimal.Decimal  `json:"pricePerSquareMeter"`
	LeadTime            string           `json:"leadTime,omitempty"`
}

// QuantityTier prices transfers from MinQuantity upwards.
//
// A tier with MaxQuantity set describes a negotiated band. It is kept for display
// and round-tripping but automatic lookup only considers open thresholds.
type QuantityTier struct {
	MinQuantity  int             `json:"minQuantity"`
	MaxQuantity  *int            `json:"maxQuantity,omitempty"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	LeadTime     string          `json:"leadTime,omitempty"`
}

// PackagingTier holds per-unit packaging add-on prices from MinQuantity upwards.
type PackagingTier struct {
	MinQuantity  int             `json:"minQuantity"`
	MaxQuantity  *int            `json:"maxQuantity,omitempty"`
	PackagePrice decimal.Decimal `json:"packagePrice"`
	BarcodePrice decimal.Decimal `json:"barcodePrice"`
	BagPrice     decimal.Decimal `json:"bagPrice"`
}

// Configuration is the reference data of one calculator.
type Configuration struct {
	Formats        map[string]Format `json:"formats"`
	AreaTiers      []AreaTier        `json:"areaPriceTiers"`
	QuantityTiers  []QuantityTier    `json:"quantityPriceTiers"`
	PackagingTiers []PackagingTier   `json:"packagingTiers,omitempty"`
}

// FormatCodes returns the configured format codes in lexical order.
func (c Configuration) FormatCodes() []string {
	codes := make([]string, 0, len(c.Formats))
	for code := range c.Formats {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// IndivisibleFormats returns the codes of formats that cannot be priced
// because they occupy more than one page.
func (c Configuration) IndivisibleFormats() []string {
	var codes []string
	for _, code := range c.FormatCodes() {
		if c.Formats[code].MaxSheetsPerPage == 0 {
			codes = append(codes, code)
		}
	}
	return codes
}

// Validate checks that the tables can drive Calculate: both lookup tables are
// non-empty and ascending, prices are non-negative and formats have a size.
func (c Configuration) Validate() error {
	if len(c.Formats) == 0 {
		return fmt.Errorf("%w: no formats", ErrInvalidConfiguration)
	}
	for _, code := range c.FormatCodes() {
		f := c.Formats[code]
		if !f.Width.IsPositive() || !f.Height.IsPositive() {
			return fmt.Errorf("%w: format %q must have positive dimensions", ErrInvalidConfiguration, code)
		}
		if f.MaxSheetsPerPage < 0 {
			return fmt.Errorf("%w: format %q has negative sheet yield", ErrInvalidConfiguration, code)
		}
	}

	if len(c.AreaTiers) == 0 {
		return fmt.Errorf("%w: no area tiers", ErrInvalidConfiguration)
	}
	for i, t := range c.AreaTiers {
		if t.PricePerSquareMeter.IsNegative() {
			return fmt.Errorf("%w: area tier %d has negative price", ErrInvalidConfiguration, i)
		}
		if t.MaxArea != nil && t.MaxArea.LessThan(t.MinArea) {
			return fmt.Errorf("%w: area tier %d ends before it starts", ErrInvalidConfiguration, i)
		}
		if i > 0 && t.MinArea.LessThan(c.AreaTiers[i-1].MinArea) {
			return fmt.Errorf("%w: area tiers are not ascending at %d", ErrInvalidConfiguration, i)
		}
	}

	if len(c.QuantityTiers) == 0 {
		return fmt.Errorf("%w: no quantity tiers", ErrInvalidConfiguration)
	}
	for i, t := range c.QuantityTiers {
		if t.PricePerUnit.IsNegative() {
			return fmt.Errorf("%w: quantity tier %d has negative price", ErrInvalidConfiguration, i)
		}
		if i > 0 && t.MinQuantity < c.QuantityTiers[i-1].MinQuantity {
			return fmt.Errorf("%w: quantity tiers are not ascending at %d", ErrInvalidConfiguration, i)
		}
	}

	for i, t := range c.PackagingTiers {
		if t.PackagePrice.IsNegative() || t.BarcodePrice.IsNegative() || t.BagPrice.IsNegative() {
			return fmt.Errorf("%w: packaging tier %d has negative price", ErrInvalidConfiguration, i)
		}
		if i > 0 && t.MinQuantity < c.PackagingTiers[i-1].MinQuantity {
			return fmt.Errorf("%w: packaging tiers are not ascending at %d", ErrInvalidConfiguration, i)
		}
	}

	return nil
}
