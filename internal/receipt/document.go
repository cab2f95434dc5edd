package receipt

import "time"

// Alignment positions a line on the paper.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Emphasis selects the print style of a line.
type Emphasis int

const (
	EmphasisNormal Emphasis = iota
	EmphasisBold
	EmphasisDoubleHeight
)

// Line is one rendered receipt line.
type Line struct {
	Text     string
	Align    Alignment
	Emphasis Emphasis
}

// Document is an ordered sequence of lines at a fixed character width.
// It carries no printer commands; encoding is a separate concern.
type Document struct {
	Width int
	Lines []Line
}

// ShopInfo is the header block printed on every receipt.
type ShopInfo struct {
	Name    string
	Address string
	Phone   string
}

// OrderMeta identifies the order a receipt belongs to.
type OrderMeta struct {
	OrderNumber  string
	Cashier      string
	Timestamp    time.Time
	CustomerName string
	Notes        string
	Reprint      bool
}
