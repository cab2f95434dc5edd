package repository

import (
	"context"

	"github.com/warungku/poscore/internal/domain"
)

// HoldRepository defines the interface for held-order persistence.
type HoldRepository interface {
	// Get retrieves a held order by its ID.
	Get(ctx context.Context, id string) (*domain.HeldOrder, error)

	// List returns all currently held orders.
	List(ctx context.Context) ([]*domain.HeldOrder, error)

	// Save persists a held order, overwriting any existing hold with the same ID.
	Save(ctx context.Context, hold *domain.HeldOrder) error

	// Delete removes a held order by its ID.
	Delete(ctx context.Context, id string) error
}
