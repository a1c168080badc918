// Package documents renders order paperwork as xlsx workbooks.
package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printdesk/internal/store"
)

const (
	TypeEstimate = "estimate"
	TypeInvoice  = "invoice"

	sheetName = "Estimate"
)

// ErrUnknownType is returned for a document type the generator cannot render.
var ErrUnknownType = errors.New("unknown document type")

var titles = map[string]string{
	TypeEstimate: "Cost estimate",
	TypeInvoice:  "Invoice",
}

// Generator writes workbooks into a directory.
type Generator struct {
	dir string
}

// NewGenerator returns a Generator writing into dir. The directory is
// created on first use.
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Input is everything a document is rendered from. DocumentID keeps the
// file of every generated document distinct.
type Input struct {
	DocumentID  string
	Type        string
	Order       store.Order
	Client      store.Client
	GeneratedAt time.Time
}

// Output locates a written document.
type Output struct {
	FileName string
	FilePath string
}

// FileName returns "<type>_<orderID>_<company>_<documentID>.xlsx" with the
// company name reduced to a filesystem-safe token.
func FileName(docType, orderID, documentID, companyName string) string {
	return fmt.Sprintf("%s_%s_%s_%s.xlsx", docType, orderID, sanitize(companyName), documentID)
}

// Generate renders in and saves the workbook.
func (g *Generator) Generate(in Input) (Output, error) {
	title, ok := titles[in.Type]
	if !ok {
		return Output{}, fmt.Errorf("%w: %q", ErrUnknownType, in.Type)
	}

	if in.DocumentID == "" {
		return Output{}, errors.New("document id is required")
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create documents dir: %w", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), sheetName); err != nil {
		return Output{}, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{
		{title},
		{},
		{"Order", in.Order.ID},
		{"Title", in.Order.Title},
		{"Client", in.Client.CompanyName},
		{"Contact", in.Client.ContactPerson},
		{"Email", in.Client.Email},
		{"Phone", in.Client.Phone},
		{"Date", in.GeneratedAt.UTC().Format("2006-01-02")},
	}
	if in.Order.Deadline != nil {
		rows = append(rows, []any{"Deadline", in.Order.Deadline.UTC().Format("2006-01-02")})
	}
	rows = append(rows, []any{})
	rows = append(rows, calculationRows(in.Order.Calculation)...)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return Output{}, err
		}
		if err := xl.SetSheetRow(sheetName, cell, &row); err != nil {
			return Output{}, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := xl.SetColWidth(sheetName, "A", "A", 28); err != nil {
		return Output{}, fmt.Errorf("set column width: %w", err)
	}

	out := Output{FileName: FileName(in.Type, in.Order.ID, in.DocumentID, in.Client.CompanyName)}
	out.FilePath = filepath.Join(g.dir, out.FileName)
	if err := xl.SaveAs(out.FilePath); err != nil {
		return Output{}, fmt.Errorf("save %s: %w", out.FileName, err)
	}
	return out, nil
}

// Remove deletes a written document. A file that is already gone is not an error.
func (g *Generator) Remove(out Output) error {
	if err := os.Remove(out.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", out.FileName, err)
	}
	return nil
}

func calculationRows(c *store.CalculationSnapshot) [][]any {
	if c == nil {
		return [][]any{{"Calculation", "not attached"}}
	}

	req, res := c.Request, c.Result
	rows := [][]any{
		{"Calculator", c.CalculatorID},
		{"Format", req.FormatCode},
		{"Design size, cm", fmt.Sprintf("%s x %s", req.WidthCm, req.HeightCm)},
		{"Quantity", req.Quantity},
		{"Complexity", string(req.Complexity)},
		{"Sides", string(req.Sides)},
		{"Sheets needed", res.SheetsNeeded},
		{"Total area, m2", money(res.TotalAreaSquareMeters)},
		{"Print cost", money(res.PrintCost)},
		{"Transfer cost", money(res.TransferCost)},
		{"Total", money(res.TotalCost)},
		{"Unit price", money(res.UnitPrice)},
	}
	if c.Packaging != nil {
		rows = append(rows,
			[]any{"Packaging per unit", money(c.Packaging.UnitPrice)},
			[]any{"Packaging total", money(c.Packaging.Total)},
		)
	}
	if res.TransferLeadTime != "" {
		rows = append(rows, []any{"Lead time", res.TransferLeadTime})
	}
	return rows
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "client"
	}
	return b.String()
}
