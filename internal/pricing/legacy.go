package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Legacy tables describe every tier with a range string: "5-10" is a bounded
// range, "10" an open threshold.

type legacyFormat struct {
	Width     decimal.Decimal `json:"width"`
	Height    decimal.Decimal `json:"height"`
	MaxSheets int             `json:"maxSheets"`
}

type legacyPriceTier struct {
	Range string          `json:"range"`
	Price decimal.Decimal `json:"price"`
	Time  string          `json:"time"`
}

type legacyPackagingTier struct {
	Range        string          `json:"range"`
	PackagePrice decimal.Decimal `json:"packagePrice"`
	BarcodePrice decimal.Decimal `json:"barcodePrice"`
	BagPrice     decimal.Decimal `json:"bagPrice"`
}

type legacyPricing struct {
	Formats          map[string]legacyFormat `json:"formats"`
	MeterPricing     []legacyPriceTier       `json:"meterPricing"`
	TransferPricing  []legacyPriceTier       `json:"transferPricing"`
	PackagingPricing []legacyPackagingTier   `json:"packagingPricing"`
}

// LegacyCalculator is a calculator record of the browser-stored database.
type LegacyCalculator struct {
	ID            string
	Name          string
	Technology    string
	IsActive      bool
	Configuration Configuration
}

// ParseLegacyPricing converts a legacy "pricing" object into a Configuration.
func ParseLegacyPricing(raw []byte) (Configuration, error) {
	var lp legacyPricing
	if err := json.Unmarshal(raw, &lp); err != nil {
		return Configuration{}, fmt.Errorf("decode legacy pricing: %w", err)
	}
	return lp.configuration()
}

// ParseLegacyDatabase extracts the calculators from a full legacy database export.
func ParseLegacyDatabase(raw []byte) ([]LegacyCalculator, error) {
	var export struct {
		Calculators []struct {
			ID         string        `json:"id"`
			Name       string        `json:"name"`
			Technology string        `json:"technology"`
			IsActive   bool          `json:"isActive"`
			Pricing    legacyPricing `json:"pricing"`
		} `json:"calculators"`
	}
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, fmt.Errorf("decode legacy database: %w", err)
	}

	calculators := make([]LegacyCalculator, 0, len(export.Calculators))
	for _, c := range export.Calculators {
		cfg, err := c.Pricing.configuration()
		if err != nil {
			return nil, fmt.Errorf("calculator %q: %w", c.ID, err)
		}
		calculators = append(calculators, LegacyCalculator{
			ID:            c.ID,
			Name:          c.Name,
			Technology:    c.Technology,
			IsActive:      c.IsActive,
			Configuration: cfg,
		})
	}
	return calculators, nil
}

func (lp legacyPricing) configuration() (Configuration, error) {
	cfg := Configuration{Formats: make(map[string]Format, len(lp.Formats))}

	for code, f := range lp.Formats {
		cfg.Formats[code] = Format{Width: f.Width, Height: f.Height, MaxSheetsPerPage: f.MaxSheets}
	}

	for _, t := range lp.MeterPricing {
		lower, upper, err := splitRange(t.Range)
		if err != nil {
			return Configuration{}, fmt.Errorf("meter pricing: %w", err)
		}
		minArea, err := decimal.NewFromString(lower)
		if err != nil {
			return Configuration{}, fmt.Errorf("meter pricing range %q: %w", t.Range, err)
		}
		tier := AreaTier{MinArea: minArea, PricePerSquareMeter: t.Price, LeadTime: t.Time}
		if upper != "" {
			maxArea, err := decimal.NewFromString(upper)
			if err != nil {
				return Configuration{}, fmt.Errorf("meter pricing range %q: %w", t.Range, err)
			}
			tier.MaxArea = &maxArea
		}
		cfg.AreaTiers = append(cfg.AreaTiers, tier)
	}

	for _, t := range lp.TransferPricing {
		minQ, maxQ, err := quantityRange(t.Range)
		if err != nil {
			return Configuration{}, fmt.Errorf("transfer pricing: %w", err)
		}
		cfg.QuantityTiers = append(cfg.QuantityTiers, QuantityTier{
			MinQuantity:  minQ,
			MaxQuantity:  maxQ,
			PricePerUnit: t.Price,
			LeadTime:     t.Time,
		})
	}

	for _, t := range lp.PackagingPricing {
		minQ, maxQ, err := quantityRange(t.Range)
		if err != nil {
			return Configuration{}, fmt.Errorf("packaging pricing: %w", err)
		}
		cfg.PackagingTiers = append(cfg.PackagingTiers, PackagingTier{
			MinQuantity:  minQ,
			MaxQuantity:  maxQ,
			PackagePrice: t.PackagePrice,
			BarcodePrice: t.BarcodePrice,
			BagPrice:     t.BagPrice,
		})
	}

	return cfg, nil
}

func splitRange(raw string) (lower, upper string, err error) {
	raw = strings.TrimSpace(raw)
	lower, upper, _ = strings.Cut(raw, "-")
	lower, upper = strings.TrimSpace(lower), strings.TrimSpace(upper)
	if lower == "" {
		return "", "", fmt.Errorf("malformed range %q", raw)
	}
	return lower, upper, nil
}

func quantityRange(raw string) (int, *int, error) {
	lower, upper, err := splitRange(raw)
	if err != nil {
		return 0, nil, err
	}
	minQ, err := strconv.Atoi(lower)
	if err != nil {
		return 0, nil, fmt.Errorf("range %q: %w", raw, err)
	}
	if upper == "" {
		return minQ, nil, nil
	}
	maxQ, err := strconv.Atoi(upper)
	if err != nil {
		return 0, nil, fmt.Errorf("range %q: %w", raw, err)
	}
	return minQ, &maxQ, nil
}
