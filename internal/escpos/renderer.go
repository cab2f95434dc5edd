package escpos

import "github.com/warungku/poscore/internal/receipt"

// Renderer adapts the encoder to the print pipeline's rendering capability.
type Renderer struct{}

// Render encodes one document with a fresh encoder.
func (Renderer) Render(doc receipt.Document) []byte {
	return NewEncoder().Encode(doc)
}
