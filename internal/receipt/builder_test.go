package receipt

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungku/poscore/internal/domain"
)

var testShop = ShopInfo{
	Name:    "Warung Kopi Sudirman",
	Address: "Jl. Sudirman No. 12",
	Phone:   "021-5550123",
}

func testMeta() OrderMeta {
	return OrderMeta{
		OrderNumber: "ORD-2026-0042",
		Cashier:     "Dewi",
		Timestamp:   time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
	}
}

func testTotals(t *testing.T) domain.OrderTotals {
	t.Helper()
	lines := []domain.LineInput{
		{ProductID: "p1", Name: "Kopi Susu", UnitPrice: 50000, Quantity: 2, StockOnHand: 10,
			Discount: &domain.DiscountSpec{Kind: domain.DiscountPercentage, Value: 10}},
	}
	totals, err := domain.ComputeTotals(lines, &domain.DiscountSpec{Kind: domain.DiscountPercentage, Value: 10}, 11, 89910)
	require.NoError(t, err)
	return totals
}

func findLine(doc Document, text string) (Line, bool) {
	for _, l := range doc.Lines {
		if strings.TrimSpace(l.Text) == text || strings.Contains(l.Text, text) {
			return l, true
		}
	}
	return Line{}, false
}

// ============================================================================
// Build Tests
// ============================================================================

func TestBuild_HeaderComesFirst(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthNarrow)

	require.NotEmpty(t, doc.Lines)
	assert.Equal(t, "Warung Kopi Sudirman", doc.Lines[0].Text)
	assert.Equal(t, AlignCenter, doc.Lines[0].Align)
	assert.Equal(t, EmphasisDoubleHeight, doc.Lines[0].Emphasis)
	assert.Equal(t, "Jl. Sudirman No. 12", doc.Lines[1].Text)
	assert.Equal(t, "021-5550123", doc.Lines[2].Text)
}

func TestBuild_MetadataSection(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthNarrow)

	_, ok := findLine(doc, "ORD-2026-0042")
	assert.True(t, ok)
	_, ok = findLine(doc, "Dewi")
	assert.True(t, ok)
	_, ok = findLine(doc, "30/08/2026 14:05")
	assert.True(t, ok)
}

func TestBuild_CustomerShownOnlyWhenPresent(t *testing.T) {
	meta := testMeta()
	doc := Build(testTotals(t), testShop, meta, 1, 1, WidthNarrow)
	_, ok := findLine(doc, "Pelanggan")
	assert.False(t, ok)

	meta.CustomerName = "Budi"
	doc = Build(testTotals(t), testShop, meta, 1, 1, WidthNarrow)
	_, ok = findLine(doc, "Budi")
	assert.True(t, ok)
}

func TestBuild_TwoColumnRowsFillExactWidth(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthNarrow)

	for _, l := range doc.Lines {
		if strings.Contains(l.Text, "Subtotal") || strings.Contains(l.Text, "TOTAL") {
			assert.Len(t, l.Text, WidthNarrow, "row %q must fill the paper width", l.Text)
		}
	}
}

func TestBuild_TotalsSection(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthNarrow)

	line, ok := findLine(doc, "Subtotal")
	require.True(t, ok)
	assert.Contains(t, line.Text, "100.000")

	line, ok = findLine(doc, "Diskon item")
	require.True(t, ok)
	assert.Contains(t, line.Text, "-10.000")

	line, ok = findLine(doc, "Diskon order")
	require.True(t, ok)
	assert.Contains(t, line.Text, "-9.000")

	line, ok = findLine(doc, "Pajak (11%)")
	require.True(t, ok)
	assert.Contains(t, line.Text, "8.910")

	line, ok = findLine(doc, "TOTAL")
	require.True(t, ok)
	assert.Contains(t, line.Text, "89.910")
	assert.Equal(t, EmphasisBold, line.Emphasis)
}

func TestBuild_ZeroValuedTotalsRowsOmitted(t *testing.T) {
	lines := []domain.LineInput{
		{ProductID: "p1", Name: "Teh Tawar", UnitPrice: 5000, Quantity: 1, StockOnHand: 5},
	}
	totals, err := domain.ComputeTotals(lines, nil, 0, 5000)
	require.NoError(t, err)

	doc := Build(totals, testShop, testMeta(), 1, 1, WidthNarrow)
	_, ok := findLine(doc, "Diskon item")
	assert.False(t, ok)
	_, ok = findLine(doc, "Diskon order")
	assert.False(t, ok)
	_, ok = findLine(doc, "Pajak")
	assert.False(t, ok)
}

func TestBuild_PartialPaymentShowsRemaining(t *testing.T) {
	lines := []domain.LineInput{
		{ProductID: "p1", Name: "Kopi", UnitPrice: 50000, Quantity: 2, StockOnHand: 5},
	}
	totals, err := domain.ComputeTotals(lines, nil, 0, 40000)
	require.NoError(t, err)

	doc := Build(totals, testShop, testMeta(), 1, 1, WidthNarrow)
	line, ok := findLine(doc, "Sisa")
	require.True(t, ok)
	assert.Contains(t, line.Text, "60.000")
}

func TestBuild_OverpaymentShowsChange(t *testing.T) {
	lines := []domain.LineInput{
		{ProductID: "p1", Name: "Kopi", UnitPrice: 50000, Quantity: 2, StockOnHand: 5},
	}
	totals, err := domain.ComputeTotals(lines, nil, 0, 150000)
	require.NoError(t, err)

	doc := Build(totals, testShop, testMeta(), 1, 1, WidthNarrow)
	line, ok := findLine(doc, "Kembali")
	require.True(t, ok)
	assert.Contains(t, line.Text, "50.000")
}

func TestBuild_CopyMarkerOnlyForMultipleCopies(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthNarrow)
	_, ok := findLine(doc, "SALINAN")
	assert.False(t, ok)

	doc = Build(testTotals(t), testShop, testMeta(), 2, 3, WidthNarrow)
	line, ok := findLine(doc, "SALINAN 2/3")
	require.True(t, ok)
	assert.Equal(t, EmphasisBold, line.Emphasis)
	assert.Equal(t, AlignCenter, line.Align)

	_, ok = findLine(doc, "Salinan 2 dari 3")
	assert.True(t, ok)
}

func TestBuild_ReprintMarker(t *testing.T) {
	meta := testMeta()
	meta.Reprint = true

	doc := Build(testTotals(t), testShop, meta, 1, 1, WidthNarrow)
	line, ok := findLine(doc, "CETAK ULANG")
	require.True(t, ok)
	assert.Equal(t, EmphasisBold, line.Emphasis)
}

func TestBuild_LongProductNameTruncatedWithEllipsis(t *testing.T) {
	lines := []domain.LineInput{
		{ProductID: "p1", Name: strings.Repeat("Nasi Goreng Spesial ", 4), UnitPrice: 25000, Quantity: 1, StockOnHand: 5},
	}
	totals, err := domain.ComputeTotals(lines, nil, 0, 25000)
	require.NoError(t, err)

	doc := Build(totals, testShop, testMeta(), 1, 1, WidthNarrow)
	line, ok := findLine(doc, "...")
	require.True(t, ok)
	assert.Len(t, line.Text, WidthNarrow)
	assert.True(t, strings.HasSuffix(line.Text, "..."))
}

func TestBuild_AccentedNameRowsFillExactWidth(t *testing.T) {
	b := &builder{width: WidthNarrow}
	b.row("Kopi Spésial", "25.000")

	require.Len(t, b.lines, 1)
	assert.Equal(t, WidthNarrow, utf8.RuneCountInString(b.lines[0].Text),
		"row %q must print exactly %d characters", b.lines[0].Text, WidthNarrow)
}

func TestBuild_TruncateKeepsRuneBoundaries(t *testing.T) {
	got := truncate("ééééé", 3)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 3, utf8.RuneCountInString(got))

	got = truncate("Café Latté Spécial Besar Sekali Panjang", 20)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestBuild_WideValueGetsOwnRightAlignedLine(t *testing.T) {
	b := &builder{width: 12}
	b.row("Subtotal", "1.250.000.000")

	require.Len(t, b.lines, 2)
	assert.Equal(t, "Subtotal", b.lines[0].Text)
	assert.Equal(t, "1.250.000.000", b.lines[1].Text)
	assert.Equal(t, AlignRight, b.lines[1].Align)
}

func TestBuild_NotesSection(t *testing.T) {
	meta := testMeta()
	meta.Notes = "Tanpa gula"

	doc := Build(testTotals(t), testShop, meta, 1, 1, WidthNarrow)
	_, ok := findLine(doc, "Catatan:")
	require.True(t, ok)
	_, ok = findLine(doc, "Tanpa gula")
	assert.True(t, ok)
}

func TestBuild_FooterThankYou(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthWide)
	line, ok := findLine(doc, "Terima kasih!")
	require.True(t, ok)
	assert.Equal(t, AlignCenter, line.Align)
}

func TestBuild_WideWidthRowsFillExactWidth(t *testing.T) {
	doc := Build(testTotals(t), testShop, testMeta(), 1, 1, WidthWide)
	line, ok := findLine(doc, "Subtotal")
	require.True(t, ok)
	assert.Len(t, line.Text, WidthWide)
}
