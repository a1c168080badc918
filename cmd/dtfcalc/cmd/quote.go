package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/printdesk/internal/pricing"
)

type quoteOptions struct {
	format    string
	width     string
	height    string
	quantity  int
	difficult bool
	double    bool
	packaging pricing.PackagingOptions
	asJSON    bool
}

type quoteOutput struct {
	Request   pricing.CalculationRequest `json:"request"`
	Result    pricing.CalculationResult  `json:"result"`
	Packaging *pricing.PackagingQuote    `json:"packaging,omitempty"`
}

func newQuoteCmd(root *rootOptions) *cobra.Command {
	opts := &quoteOptions{}

	c := &cobra.Command{
		Use:   "quote",
		Short: "Price one order item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, root, opts)
		},
	}

	c.Flags().StringVarP(&opts.format, "format", "f", "", "sheet format code, e.g. A4")
	c.Flags().StringVar(&opts.width, "width", "", "design width in cm")
	c.Flags().StringVar(&opts.height, "height", "", "design height in cm")
	c.Flags().IntVarP(&opts.quantity, "quantity", "q", 1, "number of items")
	c.Flags().BoolVar(&opts.difficult, "difficult", false, "difficult design (x1.5)")
	c.Flags().BoolVar(&opts.double, "double", false, "double-sided print (x1.8)")
	c.Flags().BoolVar(&opts.packaging.Package, "package", false, "quote individual packaging")
	c.Flags().BoolVar(&opts.packaging.Barcode, "barcode", false, "quote barcode labels")
	c.Flags().BoolVar(&opts.packaging.Bag, "bag", false, "quote bags")
	c.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	_ = c.MarkFlagRequired("format")
	_ = c.MarkFlagRequired("width")
	_ = c.MarkFlagRequired("height")
	return c
}

func runQuote(cmd *cobra.Command, root *rootOptions, opts *quoteOptions) error {
	width, err := decimal.NewFromString(opts.width)
	if err != nil {
		return fmt.Errorf("invalid --width %q: %w", opts.width, err)
	}
	height, err := decimal.NewFromString(opts.height)
	if err != nil {
		return fmt.Errorf("invalid --height %q: %w", opts.height, err)
	}

	req := pricing.CalculationRequest{
		FormatCode: opts.format,
		WidthCm:    width,
		HeightCm:   height,
		Quantity:   opts.quantity,
		Complexity: pricing.ComplexityStandard,
		Sides:      pricing.SidesSingle,
	}
	if opts.difficult {
		req.Complexity = pricing.ComplexityDifficult
	}
	if opts.double {
		req.Sides = pricing.SidesDouble
	}

	cfg, err := root.configuration(cmd.Context())
	if err != nil {
		return err
	}
	res, err := pricing.Calculate(cfg, req)
	if err != nil {
		return err
	}
	root.log().Debug("quoted", zap.String("format", req.FormatCode), zap.Stringer("total", res.TotalCost))

	out := quoteOutput{Request: req, Result: res}
	if opts.packaging.Package || opts.packaging.Barcode || opts.packaging.Bag {
		quote, err := pricing.QuotePackaging(cfg, req.Quantity, opts.packaging)
		if err != nil {
			return err
		}
		out.Packaging = &quote
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Format\t%s (%s x %s cm, %d per sheet)\n",
		req.FormatCode, res.MatchedFormat.Width, res.MatchedFormat.Height, res.MatchedFormat.MaxSheetsPerPage)
	fmt.Fprintf(tw, "Total area\t%s m2\n", res.TotalAreaSquareMeters.StringFixed(4))
	fmt.Fprintf(tw, "Sheets needed\t%d\n", res.SheetsNeeded)
	fmt.Fprintf(tw, "Print cost\t%s\n", res.PrintCost.StringFixed(2))
	fmt.Fprintf(tw, "Transfer cost\t%s\n", res.TransferCost.StringFixed(2))
	fmt.Fprintf(tw, "Multipliers\tx%s complexity, x%s sides\n", res.ComplexityMultiplier, res.SidesMultiplier)
	fmt.Fprintf(tw, "Total\t%s\n", res.TotalCost.StringFixed(2))
	fmt.Fprintf(tw, "Unit price\t%s\n", res.UnitPrice.StringFixed(2))
	if res.TransferLeadTime != "" {
		fmt.Fprintf(tw, "Lead time\t%s\n", res.TransferLeadTime)
	}
	if out.Packaging != nil {
		fmt.Fprintf(tw, "Packaging\t%s per unit, %s total\n",
			out.Packaging.UnitPrice.StringFixed(2), out.Packaging.Total.StringFixed(2))
	}
	return tw.Flush()
}
