package escpos

import (
	"fmt"

	"github.com/warungku/poscore/internal/receipt"
)

// Decode parses a byte stream produced by Encode back into lines with their
// alignment and emphasis. It understands only the command subset this
// package emits; it exists for diagnostics and round-trip verification.
func Decode(data []byte) ([]receipt.Line, error) {
	var (
		lines   []receipt.Line
		text    []byte
		align   = receipt.AlignLeft
		bold    bool
		double  bool
		sawInit bool
	)

	emphasisOf := func() receipt.Emphasis {
		switch {
		case double:
			return receipt.EmphasisDoubleHeight
		case bold:
			return receipt.EmphasisBold
		default:
			return receipt.EmphasisNormal
		}
	}

	for i := 0; i < len(data); {
		b := data[i]
		switch b {
		case esc:
			if i+1 >= len(data) {
				return nil, fmt.Errorf("escpos: truncated ESC sequence at offset %d", i)
			}
			switch data[i+1] {
			case '@':
				sawInit = true
				align = receipt.AlignLeft
				bold = false
				double = false
				i += 2
			case 't', 'd':
				i += 3
			case 'a':
				if i+2 >= len(data) {
					return nil, fmt.Errorf("escpos: truncated align sequence at offset %d", i)
				}
				align = receipt.Alignment(data[i+2])
				i += 3
			case 'E':
				if i+2 >= len(data) {
					return nil, fmt.Errorf("escpos: truncated emphasis sequence at offset %d", i)
				}
				bold = data[i+2] == 1
				i += 3
			default:
				return nil, fmt.Errorf("escpos: unknown ESC command 0x%02X at offset %d", data[i+1], i)
			}
		case gs:
			if i+1 >= len(data) {
				return nil, fmt.Errorf("escpos: truncated GS sequence at offset %d", i)
			}
			switch data[i+1] {
			case '!':
				if i+2 >= len(data) {
					return nil, fmt.Errorf("escpos: truncated size sequence at offset %d", i)
				}
				double = data[i+2] == sizeDoubleHeight
				i += 3
			case 'V':
				i += 4
			default:
				return nil, fmt.Errorf("escpos: unknown GS command 0x%02X at offset %d", data[i+1], i)
			}
		case '\n':
			lines = append(lines, receipt.Line{Text: string(text), Align: align, Emphasis: emphasisOf()})
			text = text[:0]
			i++
		default:
			text = append(text, b)
			i++
		}
	}

	if !sawInit {
		return nil, fmt.Errorf("escpos: stream missing initialization preamble")
	}
	return lines, nil
}
