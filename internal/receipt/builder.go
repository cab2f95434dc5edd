package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/warungku/poscore/internal/domain"
)

// Paper widths in characters for the two supported roll sizes.
const (
	WidthNarrow = 32
	WidthWide   = 40
)

// Build renders an order into a receipt document at the given width.
// It is a pure function; concurrent callers share no state.
//
// Sections appear in fixed order: shop header, order metadata, an optional
// copy marker, one block per line item, totals, optional notes, footer.
func Build(totals domain.OrderTotals, shop ShopInfo, meta OrderMeta, copyIndex, totalCopies, width int) Document {
	b := &builder{width: width}

	b.header(shop)
	b.rule()
	b.metadata(meta)
	b.copyMarker(meta, copyIndex, totalCopies)
	b.rule()
	for _, item := range totals.Lines {
		b.lineItem(item)
	}
	b.rule()
	b.totals(totals)
	b.notes(meta.Notes)
	b.footer(copyIndex, totalCopies)

	return Document{Width: width, Lines: b.lines}
}

type builder struct {
	width int
	lines []Line
}

func (b *builder) add(text string, align Alignment, emph Emphasis) {
	b.lines = append(b.lines, Line{Text: text, Align: align, Emphasis: emph})
}

func (b *builder) rule() {
	b.add(strings.Repeat("-", b.width), AlignLeft, EmphasisNormal)
}

func (b *builder) blank() {
	b.add("", AlignLeft, EmphasisNormal)
}

func (b *builder) header(shop ShopInfo) {
	b.add(truncate(shop.Name, b.width), AlignCenter, EmphasisDoubleHeight)
	if shop.Address != "" {
		b.add(truncate(shop.Address, b.width), AlignCenter, EmphasisNormal)
	}
	if shop.Phone != "" {
		b.add(truncate(shop.Phone, b.width), AlignCenter, EmphasisNormal)
	}
}

func (b *builder) metadata(meta OrderMeta) {
	b.row("No", meta.OrderNumber)
	b.row("Kasir", truncate(meta.Cashier, b.width/2))
	b.row("Waktu", meta.Timestamp.Format("02/01/2006 15:04"))
	if meta.CustomerName != "" {
		b.row("Pelanggan", truncate(meta.CustomerName, b.width/2))
	}
}

func (b *builder) copyMarker(meta OrderMeta, copyIndex, totalCopies int) {
	if meta.Reprint {
		b.add("*** CETAK ULANG ***", AlignCenter, EmphasisBold)
		return
	}
	if totalCopies > 1 {
		b.add(fmt.Sprintf("SALINAN %d/%d", copyIndex, totalCopies), AlignCenter, EmphasisBold)
	}
}

func (b *builder) lineItem(item domain.LineItem) {
	b.add(truncate(item.Name, b.width), AlignLeft, EmphasisNormal)
	left := fmt.Sprintf("%d x %s", item.Quantity, item.UnitPrice.Format())
	b.row(left, item.Total.Format())
	if item.DiscountAmount > 0 {
		b.row("  Diskon", "-"+item.DiscountAmount.Format())
	}
}

func (b *builder) totals(t domain.OrderTotals) {
	b.row("Subtotal", t.Subtotal.Format())
	if t.ItemDiscountTotal > 0 {
		b.row("Diskon item", "-"+t.ItemDiscountTotal.Format())
	}
	if t.OrderDiscountAmount > 0 {
		b.row("Diskon order", "-"+t.OrderDiscountAmount.Format())
	}
	if t.TaxAmount > 0 {
		b.row(fmt.Sprintf("Pajak (%d%%)", t.TaxPercent), t.TaxAmount.Format())
	}
	b.boldRow("TOTAL", t.GrandTotal.Format())

	switch t.State {
	case domain.Unpaid:
		b.row("Belum dibayar", t.RemainingBalance.Format())
	case domain.PartiallyPaid:
		b.row("Dibayar", t.AmountPaid.Format())
		b.row("Sisa", t.RemainingBalance.Format())
	case domain.OverpaidWithChange:
		b.row("Dibayar", t.AmountPaid.Format())
		b.row("Kembali", t.ChangeDue.Format())
	default:
		b.row("Dibayar", t.AmountPaid.Format())
	}
}

func (b *builder) notes(notes string) {
	if notes == "" {
		return
	}
	b.rule()
	b.add("Catatan:", AlignLeft, EmphasisNormal)
	b.add(truncate(notes, b.width), AlignLeft, EmphasisNormal)
}

func (b *builder) footer(copyIndex, totalCopies int) {
	b.rule()
	b.add("Terima kasih!", AlignCenter, EmphasisNormal)
	if totalCopies > 1 {
		b.add(fmt.Sprintf("Salinan %d dari %d", copyIndex, totalCopies), AlignCenter, EmphasisNormal)
	}
	b.blank()
}

// row emits a two-column label/value line padded to exactly the paper width.
// The label is truncated with an ellipsis before the value is ever touched;
// a value too wide for any label column gets a full-width line of its own so
// numbers are never clipped.
func (b *builder) row(left, right string) {
	b.twoCol(left, right, EmphasisNormal)
}

func (b *builder) boldRow(left, right string) {
	b.twoCol(left, right, EmphasisBold)
}

const minLabelWidth = 4

// Width math counts runes, not bytes: the encoder emits exactly one printer
// byte per rune (substituting '?' outside the code page), so the rune count
// is the printed column count even for accented names.
//
// A value too wide to share a row is demoted to the two-line form instead of
// being clipped; losing digits of a money amount is never acceptable.
func (b *builder) twoCol(left, right string, emph Emphasis) {
	lw, rw := printedWidth(left), printedWidth(right)
	if lw+rw+1 <= b.width {
		gap := b.width - lw - rw
		b.add(left+strings.Repeat(" ", gap)+right, AlignLeft, emph)
		return
	}

	labelBudget := b.width - rw - 1
	if labelBudget >= minLabelWidth {
		b.add(truncate(left, labelBudget)+" "+right, AlignLeft, emph)
		return
	}

	b.add(truncate(left, b.width), AlignLeft, emph)
	b.add(right, AlignRight, emph)
}

func printedWidth(s string) int {
	return utf8.RuneCountInString(s)
}

// truncate slices on rune boundaries so a multi-byte character is never cut
// in half.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
