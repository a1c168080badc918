package documents

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printdesk/internal/pricing"
	"github.com/Simplici0/printdesk/internal/store"
)

func TestFileName_SanitizesCompany(t *testing.T) {
	assert.Equal(t, "estimate_order_1_Acme_Print__Co_doc_1.xlsx", FileName(TypeEstimate, "order_1", "doc_1", "Acme Print/ Co"))
	assert.Equal(t, "invoice_order_2_client_doc_2.xlsx", FileName(TypeInvoice, "order_2", "doc_2", "  "))
}

func TestGenerate_WritesReadableWorkbook(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	gen := NewGenerator(dir)

	cfg := pricing.DefaultDTF()
	req := pricing.CalculationRequest{
		FormatCode: "A4",
		WidthCm:    decimal.NewFromInt(10),
		HeightCm:   decimal.NewFromInt(10),
		Quantity:   100,
	}
	res, err := pricing.Calculate(cfg, req)
	require.NoError(t, err)

	out, err := gen.Generate(Input{
		DocumentID: "doc_1",
		Type:       TypeEstimate,
		Order: store.Order{
			ID:    "order_1",
			Title: "Team shirts",
			Calculation: &store.CalculationSnapshot{
				CalculatorID: pricing.DTFCalculatorID,
				Request:      req,
				Result:       res,
			},
		},
		Client:      store.Client{CompanyName: "Acme"},
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "estimate_order_1_Acme_doc_1.xlsx", out.FileName)
	assert.Equal(t, filepath.Join(dir, out.FileName), out.FilePath)

	xl, err := excelize.OpenFile(out.FilePath)
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	rows, err := xl.GetRows(sheetName)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Cost estimate", rows[0][0])

	values := map[string]string{}
	for _, row := range rows {
		if len(row) >= 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "order_1", values["Order"])
	assert.Equal(t, "2024-03-01", values["Date"])
	assert.Equal(t, "A4", values["Format"])
	assert.Equal(t, "100", values["Quantity"])
	assert.NotEmpty(t, values["Total"])
}

func TestGenerate_WithoutCalculation(t *testing.T) {
	gen := NewGenerator(t.TempDir())

	out, err := gen.Generate(Input{
		DocumentID: "doc_9",
		Type:       TypeInvoice,
		Order:      store.Order{ID: "order_9"},
		Client:     store.Client{CompanyName: "Beta"},
	})
	require.NoError(t, err)

	xl, err := excelize.OpenFile(out.FilePath)
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	v, err := xl.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice", v)
}

func TestGenerate_UnknownType(t *testing.T) {
	_, err := NewGenerator(t.TempDir()).Generate(Input{Type: "poster"})
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestGenerate_KeepsEachDocumentAndRemoves(t *testing.T) {
	gen := NewGenerator(t.TempDir())
	in := Input{Type: TypeEstimate, Order: store.Order{ID: "order_3"}, Client: store.Client{CompanyName: "Gamma"}}

	in.DocumentID = "doc_a"
	first, err := gen.Generate(in)
	require.NoError(t, err)
	in.DocumentID = "doc_b"
	second, err := gen.Generate(in)
	require.NoError(t, err)
	assert.NotEqual(t, first.FilePath, second.FilePath)

	require.NoError(t, gen.Remove(first))
	_, err = os.Stat(first.FilePath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(second.FilePath)
	assert.NoError(t, err)

	assert.NoError(t, gen.Remove(first))

	_, err = gen.Generate(Input{Type: TypeInvoice, Order: store.Order{ID: "order_3"}})
	assert.Error(t, err)
}
