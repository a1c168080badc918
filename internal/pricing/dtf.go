package pricing

import "github.com/shopspring/decimal"

// DTFCalculatorID identifies the DTF calculator seeded on first start.
const DTFCalculatorID = "dtf_calculator"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int {
	return &v
}

// DefaultDTF returns the DTF price list the shop starts with.
func DefaultDTF() Configuration {
	return Configuration{
		Formats: map[string]Format{
			"A1": {Width: dec("59.4"), Height: dec("84.1"), MaxSheetsPerPage: 0},
			"A2": {Width: dec("42.0"), Height: dec("59.4"), MaxSheetsPerPage: 1},
			"A3": {Width: dec("29.7"), Height: dec("42.0"), MaxSheetsPerPage: 3},
			"A4": {Width: dec("21.0"), Height: dec("29.7"), MaxSheetsPerPage: 6},
			"A5": {Width: dec("14.8"), Height: dec("21.0"), MaxSheetsPerPage: 12},
			"A6": {Width: dec("10.5"), Height: dec("14.8"), MaxSheetsPerPage: 30},
			"A7": {Width: dec("7.4"), Height: dec("10.5"), MaxSheetsPerPage: 65},
		},
		AreaTiers: []AreaTier{
			{MinArea: dec("1"), MaxArea: decPtr("5"), PricePerSquareMeter: dec("1100"), LeadTime: "1д"},
			{MinArea: dec("5"), MaxArea: decPtr("10"), PricePerSquareMeter: dec("1000"), LeadTime: "1д"},
			{MinArea: dec("10"), MaxArea: decPtr("30"), PricePerSquareMeter: dec("900"), LeadTime: "1д"},
			{MinArea: dec("30"), MaxArea: decPtr("50"), PricePerSquareMeter: dec("850"), LeadTime: "1д"},
			{MinArea: dec("50"), MaxArea: decPtr("100"), PricePerSquareMeter: dec("800"), LeadTime: "2д"},
			{MinArea: dec("100"), MaxArea: decPtr("1000"), PricePerSquareMeter: dec("750"), LeadTime: "от 2 до 9д"},
		},
		QuantityTiers: []QuantityTier{
			{MinQuantity: 10, PricePerUnit: dec("100"), LeadTime: "1д"},
			{MinQuantity: 50, PricePerUnit: dec("55"), LeadTime: "1д"},
			{MinQuantity: 100, PricePerUnit: dec("50"), LeadTime: "1д"},
			{MinQuantity: 500, PricePerUnit: dec("45"), LeadTime: "2д"},
			{MinQuantity: 1000, PricePerUnit: dec("40"), LeadTime: "3-4д"},
			{MinQuantity: 1000, MaxQuantity: intPtr(10000), PricePerUnit: dec("35"), LeadTime: "обговаривается"},
		},
		PackagingTiers: []PackagingTier{
			{MinQuantity: 10, PackagePrice: dec("30"), BarcodePrice: dec("4"), BagPrice: dec("8")},
			{MinQuantity: 50, PackagePrice: dec("25"), BarcodePrice: dec("4"), BagPrice: dec("8")},
			{MinQuantity: 100, PackagePrice: dec("23"), BarcodePrice: dec("4"), BagPrice: dec("8")},
			{MinQuantity: 500, PackagePrice: dec("20"), BarcodePrice: dec("4"), BagPrice: dec("8")},
			{MinQuantity: 1000, PackagePrice: dec("20"), BarcodePrice: dec("3"), BagPrice: dec("7")},
			{MinQuantity: 1000, MaxQuantity: intPtr(10000), PackagePrice: dec("19"), BarcodePrice: dec("3"), BagPrice: dec("7")},
		},
	}
}
