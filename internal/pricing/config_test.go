package pricing

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefaultDTFIsValid(t *testing.T) {
	if err := DefaultDTF().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestIndivisibleFormats(t *testing.T) {
	got := DefaultDTF().IndivisibleFormats()
	if !reflect.DeepEqual(got, []string{"A1"}) {
		t.Fatalf("IndivisibleFormats = %v, want [A1]", got)
	}
}

func TestValidate_RejectsBrokenTables(t *testing.T) {
	cases := map[string]func(*Configuration){
		"no formats":          func(c *Configuration) { c.Formats = nil },
		"no area tiers":       func(c *Configuration) { c.AreaTiers = nil },
		"no quantity tiers":   func(c *Configuration) { c.QuantityTiers = nil },
		"zero width":          func(c *Configuration) { c.Formats["A4"] = Format{Width: dec("0"), Height: dec("1"), MaxSheetsPerPage: 1} },
		"negative yield":      func(c *Configuration) { c.Formats["A4"] = Format{Width: dec("1"), Height: dec("1"), MaxSheetsPerPage: -1} },
		"descending area":     func(c *Configuration) { c.AreaTiers[0], c.AreaTiers[1] = c.AreaTiers[1], c.AreaTiers[0] },
		"inverted area range": func(c *Configuration) { c.AreaTiers[0].MaxArea = decPtr("0.5") },
		"negative area price": func(c *Configuration) { c.AreaTiers[2].PricePerSquareMeter = dec("-1") },
		"descending quantity": func(c *Configuration) { c.QuantityTiers[0].MinQuantity = 60 },
		"negative bag price":  func(c *Configuration) { c.PackagingTiers[1].BagPrice = dec("-8") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultDTF()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("Validate err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestQuotePackaging(t *testing.T) {
	cfg := DefaultDTF()

	all, err := QuotePackaging(cfg, 10, PackagingOptions{Package: true, Barcode: true, Bag: true})
	if err != nil {
		t.Fatalf("QuotePackaging(10): %v", err)
	}
	decimalEqual(t, "unit(10)", all.UnitPrice, "42")
	decimalEqual(t, "total(10)", all.Total, "420")

	bulk, err := QuotePackaging(cfg, 1000, PackagingOptions{Package: true, Bag: true})
	if err != nil {
		t.Fatalf("QuotePackaging(1000): %v", err)
	}
	decimalEqual(t, "unit(1000)", bulk.UnitPrice, "27")

	small, err := QuotePackaging(cfg, 3, PackagingOptions{Barcode: true})
	if err != nil {
		t.Fatalf("QuotePackaging(3): %v", err)
	}
	decimalEqual(t, "total(3)", small.Total, "12")

	if _, err := QuotePackaging(Configuration{}, 10, PackagingOptions{Package: true}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}
