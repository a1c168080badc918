package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func decimalEqual(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", name, got, want)
	}
}

func a4Request(quantity int) CalculationRequest {
	return CalculationRequest{
		FormatCode: "A4",
		WidthCm:    dec("21.0"),
		HeightCm:   dec("29.7"),
		Quantity:   quantity,
		Complexity: ComplexityStandard,
		Sides:      SidesSingle,
	}
}

func TestCalculate_WorkedExampleArithmetic(t *testing.T) {
	cfg := DefaultDTF()
	cfg.AreaTiers = []AreaTier{
		{MinArea: dec("0"), MaxArea: decPtr("10"), PricePerSquareMeter: dec("1000")},
	}

	result, err := Calculate(cfg, a4Request(10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	decimalEqual(t, "totalArea", result.TotalAreaSquareMeters, "0.6237")
	decimalEqual(t, "printCost", result.PrintCost, "623.7")
	decimalEqual(t, "transferCost", result.TransferCost, "1000")
	decimalEqual(t, "totalCost", result.TotalCost, "1623.7")
	decimalEqual(t, "unitPrice", result.UnitPrice, "162.37")
	if result.SheetsNeeded != 2 {
		t.Fatalf("sheetsNeeded = %d, want 2", result.SheetsNeeded)
	}
	if result.MatchedFormat.MaxSheetsPerPage != 6 {
		t.Fatalf("matched format = %+v, want A4", result.MatchedFormat)
	}
}

func TestCalculate_DefaultTableSmallOrderFallsBackToFirstAreaTier(t *testing.T) {
	result, err := Calculate(DefaultDTF(), a4Request(10))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// 0.6237 m² is below the first range (1-5), so the first tier price applies.
	decimalEqual(t, "printCost", result.PrintCost, "686.07")
	decimalEqual(t, "transferCost", result.TransferCost, "1000")
	decimalEqual(t, "totalCost", result.TotalCost, "1686.07")
	decimalEqual(t, "unitPrice", result.UnitPrice, "168.607")
	if result.AreaLeadTime != "1д" || result.TransferLeadTime != "1д" {
		t.Fatalf("lead times = %q/%q", result.AreaLeadTime, result.TransferLeadTime)
	}
}

func TestCalculate_AreaBelowFirstTierUsesFirstTierPrice(t *testing.T) {
	cfg := DefaultDTF()
	cfg.AreaTiers = []AreaTier{
		{MinArea: dec("1"), MaxArea: decPtr("5"), PricePerSquareMeter: dec("1100")},
		{MinArea: dec("5"), MaxArea: decPtr("10"), PricePerSquareMeter: dec("1000")},
	}
	req := CalculationRequest{FormatCode: "A4", WidthCm: dec("50"), HeightCm: dec("100"), Quantity: 1}

	result, err := Calculate(cfg, req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	decimalEqual(t, "totalArea", result.TotalAreaSquareMeters, "0.5")
	decimalEqual(t, "printCost", result.PrintCost, "550")
}

func TestCalculate_AreaAboveLastTierUsesFirstTierPrice(t *testing.T) {
	req := CalculationRequest{FormatCode: "A2", WidthCm: dec("42.0"), HeightCm: dec("59.4"), Quantity: 5000}

	result, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	decimalEqual(t, "totalArea", result.TotalAreaSquareMeters, "1247.4")
	decimalEqual(t, "printCost", result.PrintCost, "1372140")
	decimalEqual(t, "transferCost", result.TransferCost, "200000")
	decimalEqual(t, "totalCost", result.TotalCost, "1572140")
	if result.SheetsNeeded != 5000 {
		t.Fatalf("sheetsNeeded = %d, want 5000", result.SheetsNeeded)
	}
}

func TestCalculate_SharedAreaBoundaryPicksFirstTier(t *testing.T) {
	req := CalculationRequest{FormatCode: "A4", WidthCm: dec("100"), HeightCm: dec("100"), Quantity: 5}

	result, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// 5 m² belongs to both 1-5 and 5-10; the first one wins.
	decimalEqual(t, "printCost", result.PrintCost, "5500")
	// 5 units is below the first threshold (10), so its price applies.
	decimalEqual(t, "transferCost", result.TransferCost, "500")
	decimalEqual(t, "unitPrice", result.UnitPrice, "1200")
}

func TestCalculate_QuantityThresholdIsInclusive(t *testing.T) {
	cfg := DefaultDTF()

	at, err := Calculate(cfg, a4Request(50))
	if err != nil {
		t.Fatalf("Calculate(50): %v", err)
	}
	below, err := Calculate(cfg, a4Request(49))
	if err != nil {
		t.Fatalf("Calculate(49): %v", err)
	}

	decimalEqual(t, "transferCost(50)", at.TransferCost, "2750")
	decimalEqual(t, "transferCost(49)", below.TransferCost, "4900")
}

func TestCalculate_NegotiatedBandIsNeverMatched(t *testing.T) {
	for _, quantity := range []int{1000, 5000, 10000} {
		result, err := Calculate(DefaultDTF(), a4Request(quantity))
		if err != nil {
			t.Fatalf("Calculate(%d): %v", quantity, err)
		}
		want := decimal.NewFromInt(int64(quantity) * 40)
		if !result.TransferCost.Equal(want) {
			t.Fatalf("transferCost(%d) = %s, want %s", quantity, result.TransferCost, want)
		}
		if result.TransferLeadTime != "3-4д" {
			t.Fatalf("transferLeadTime(%d) = %q", quantity, result.TransferLeadTime)
		}
	}
}

func TestCalculate_Multipliers(t *testing.T) {
	cfg := DefaultDTF()
	base, err := Calculate(cfg, a4Request(120))
	if err != nil {
		t.Fatalf("Calculate base: %v", err)
	}

	difficult := a4Request(120)
	difficult.Complexity = ComplexityDifficult
	hard, err := Calculate(cfg, difficult)
	if err != nil {
		t.Fatalf("Calculate difficult: %v", err)
	}

	double := a4Request(120)
	double.Sides = SidesDouble
	twoSided, err := Calculate(cfg, double)
	if err != nil {
		t.Fatalf("Calculate double: %v", err)
	}

	both := difficult
	both.Sides = SidesDouble
	hardTwoSided, err := Calculate(cfg, both)
	if err != nil {
		t.Fatalf("Calculate difficult double: %v", err)
	}

	if !hard.TotalCost.Equal(base.TotalCost.Mul(dec("1.5"))) {
		t.Fatalf("difficult total = %s, want %s * 1.5", hard.TotalCost, base.TotalCost)
	}
	if !twoSided.TotalCost.Equal(base.TotalCost.Mul(dec("1.8"))) {
		t.Fatalf("double total = %s, want %s * 1.8", twoSided.TotalCost, base.TotalCost)
	}
	if !hardTwoSided.TotalCost.Equal(base.TotalCost.Mul(dec("2.7"))) {
		t.Fatalf("difficult double total = %s, want %s * 2.7", hardTwoSided.TotalCost, base.TotalCost)
	}
	decimalEqual(t, "complexityMultiplier", hard.ComplexityMultiplier, "1.5")
	decimalEqual(t, "sidesMultiplier", twoSided.SidesMultiplier, "1.8")
}

func TestCalculate_EmptyOptionsMeanStandardSingle(t *testing.T) {
	req := a4Request(10)
	req.Complexity = ""
	req.Sides = ""

	result, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	decimalEqual(t, "totalCost", result.TotalCost, "1686.07")
}

func TestCalculate_IsDeterministic(t *testing.T) {
	req := a4Request(777)
	req.Complexity = ComplexityDifficult

	first, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	second, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if first.TotalCost.String() != second.TotalCost.String() || first.UnitPrice.String() != second.UnitPrice.String() {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestCalculate_UnitPriceTimesQuantityIsTotal(t *testing.T) {
	for _, quantity := range []int{1, 3, 7, 10, 49, 333, 1001} {
		result, err := Calculate(DefaultDTF(), a4Request(quantity))
		if err != nil {
			t.Fatalf("Calculate(%d): %v", quantity, err)
		}
		if result.TotalCost.IsNegative() {
			t.Fatalf("totalCost(%d) is negative: %s", quantity, result.TotalCost)
		}
		if back := result.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))); !back.Equal(result.TotalCost) {
			t.Fatalf("unitPrice(%d) * quantity = %s, want %s", quantity, back, result.TotalCost)
		}
	}
}

func TestCalculate_UnitPriceKeepsFullPrecision(t *testing.T) {
	req := a4Request(3)
	req.WidthCm = dec("0.1234567891")
	req.HeightCm = dec("0.9876543211")

	result, err := Calculate(DefaultDTF(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	// The quotient has more digits than decimal division keeps.
	decimalEqual(t, "unitPrice", result.UnitPrice, "100.0134125894346121018011")
	decimalEqual(t, "totalCost", result.TotalCost, "300.0402377683038363054033")
}

func TestCalculate_SheetsForLargestQuantity(t *testing.T) {
	result, err := Calculate(DefaultDTF(), a4Request(math.MaxInt))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if want := math.MaxInt/6 + 1; result.SheetsNeeded != want {
		t.Fatalf("sheetsNeeded = %d, want %d", result.SheetsNeeded, want)
	}

	result, err = Calculate(DefaultDTF(), a4Request(12))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if result.SheetsNeeded != 2 {
		t.Fatalf("sheetsNeeded = %d, want 2", result.SheetsNeeded)
	}
}

func TestCalculate_BulkDiscountIsMonotonic(t *testing.T) {
	cfg := DefaultDTF()

	previous, err := Calculate(cfg, a4Request(1))
	if err != nil {
		t.Fatalf("Calculate(1): %v", err)
	}
	// A4 stays below the last area range up to 2000 units, where both tables descend.
	for quantity := 2; quantity <= 2000; quantity++ {
		current, err := Calculate(cfg, a4Request(quantity))
		if err != nil {
			t.Fatalf("Calculate(%d): %v", quantity, err)
		}
		if current.UnitPrice.GreaterThan(previous.UnitPrice) {
			t.Fatalf("unitPrice(%d) = %s > unitPrice(%d) = %s", quantity, current.UnitPrice, quantity-1, previous.UnitPrice)
		}
		previous = current
	}
}

func TestCalculate_Errors(t *testing.T) {
	cfg := DefaultDTF()

	cases := map[string]struct {
		req  CalculationRequest
		want error
	}{
		"unknown format":  {CalculationRequest{FormatCode: "B5", WidthCm: dec("10"), HeightCm: dec("10"), Quantity: 1}, ErrUnknownFormat},
		"indivisible":     {CalculationRequest{FormatCode: "A1", WidthCm: dec("59.4"), HeightCm: dec("84.1"), Quantity: 1}, ErrIndivisibleFormat},
		"zero quantity":   {CalculationRequest{FormatCode: "A4", WidthCm: dec("10"), HeightCm: dec("10"), Quantity: 0}, ErrInvalidRequest},
		"zero width":      {CalculationRequest{FormatCode: "A4", WidthCm: dec("0"), HeightCm: dec("10"), Quantity: 1}, ErrInvalidRequest},
		"negative height": {CalculationRequest{FormatCode: "A4", WidthCm: dec("10"), HeightCm: dec("-1"), Quantity: 1}, ErrInvalidRequest},
		"bad complexity":  {CalculationRequest{FormatCode: "A4", WidthCm: dec("10"), HeightCm: dec("10"), Quantity: 1, Complexity: "extreme"}, ErrInvalidRequest},
		"bad sides":       {CalculationRequest{FormatCode: "A4", WidthCm: dec("10"), HeightCm: dec("10"), Quantity: 1, Sides: "triple"}, ErrInvalidRequest},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Calculate(cfg, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCalculate_EmptyTablesFail(t *testing.T) {
	cfg := DefaultDTF()
	cfg.QuantityTiers = nil

	if _, err := Calculate(cfg, a4Request(10)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}
