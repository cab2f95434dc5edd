// Package escpos serializes receipt documents into the ESC/POS command
// stream understood by common thermal printers.
package escpos

import (
	"github.com/warungku/poscore/internal/receipt"
)

const (
	esc byte = 0x1B
	gs  byte = 0x1D
)

// Code page 0 (CP437) is the single-byte character set the target printers
// boot with. Characters outside it are substituted, never fatal.
const codePage byte = 0

// substitute replaces any character the code page cannot express.
const substitute byte = '?'

// Encoder turns a receipt.Document into printer bytes. It tracks the
// printer's current alignment and style so control sequences are only
// emitted on change; the rendered output is identical either way.
type Encoder struct {
	buf          []byte
	align        receipt.Alignment
	bold         bool
	doubleHeight bool
}

// NewEncoder returns a ready encoder. Encoders are single-use per document.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode renders the document: an initialization preamble, one text line per
// receipt line with any needed style changes, then a feed and paper cut.
func (e *Encoder) Encode(doc receipt.Document) []byte {
	// ESC @ resets the printer, so encoder state starts at the defaults.
	e.buf = append(e.buf, esc, '@')
	e.buf = append(e.buf, esc, 't', codePage)
	e.align = receipt.AlignLeft
	e.bold = false
	e.doubleHeight = false

	for _, line := range doc.Lines {
		e.setAlign(line.Align)
		e.setEmphasis(line.Emphasis)
		e.writeText(line.Text)
		e.buf = append(e.buf, '\n')
	}

	// Feed past the tear bar, then partial cut.
	e.buf = append(e.buf, esc, 'd', 4)
	e.buf = append(e.buf, gs, 'V', 66, 0)
	return e.buf
}

func (e *Encoder) setAlign(a receipt.Alignment) {
	if a == e.align {
		return
	}
	e.buf = append(e.buf, esc, 'a', byte(a))
	e.align = a
}

func (e *Encoder) setEmphasis(emph receipt.Emphasis) {
	bold := emph == receipt.EmphasisBold
	double := emph == receipt.EmphasisDoubleHeight

	if bold != e.bold {
		var n byte
		if bold {
			n = 1
		}
		e.buf = append(e.buf, esc, 'E', n)
		e.bold = bold
	}
	if double != e.doubleHeight {
		var n byte
		if double {
			n = sizeDoubleHeight
		}
		e.buf = append(e.buf, gs, '!', n)
		e.doubleHeight = double
	}
}

// GS ! packs width and height multipliers as ((w-1)<<4)|(h-1).
const sizeDoubleHeight byte = 0x01

// writeText appends the line's text in the printer code page. Anything
// outside printable ASCII is replaced with a placeholder so one odd
// character never aborts a job.
func (e *Encoder) writeText(text string) {
	for _, r := range text {
		if r < 0x20 || r > 0x7E {
			e.buf = append(e.buf, substitute)
			continue
		}
		e.buf = append(e.buf, byte(r))
	}
}
