package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/internal/repository"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

// HoldInput parks the current cart under a label so the till can start a new
// sale.
type HoldInput struct {
	Label         string               `json:"label" validate:"required"`
	CustomerName  string               `json:"customer_name"`
	Lines         []domain.LineInput   `json:"lines" validate:"required,min=1,dive"`
	OrderDiscount *domain.DiscountSpec `json:"order_discount,omitempty"`
	Notes         string               `json:"notes"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// HoldService manages parked carts.
type HoldService struct {
	repo   repository.HoldRepository
	logger *slog.Logger
}

// NewHoldService creates a hold service.
func NewHoldService(repo repository.HoldRepository, logger *slog.Logger) *HoldService {
	return &HoldService{repo: repo, logger: logger}
}

// Hold validates and parks a cart. Lines are priced up front so a hold that
// cannot check out is rejected immediately rather than at resume time.
func (s *HoldService) Hold(ctx context.Context, input *HoldInput) (*domain.HeldOrder, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("hold input is required")
	}
	if input.Label == "" {
		return nil, apperrors.InvalidInput("hold label is required")
	}

	if _, err := domain.ComputeTotals(input.Lines, input.OrderDiscount, 0, 0); err != nil {
		if errors.Is(err, domain.ErrEmptyOrder) || errors.Is(err, domain.ErrInvalidPricingInput) {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, err
	}

	now := nowUTC()
	hold := &domain.HeldOrder{
		ID:            uuid.New().String(),
		Label:         input.Label,
		CustomerName:  input.CustomerName,
		Lines:         input.Lines,
		OrderDiscount: input.OrderDiscount,
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, hold); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order held",
		slog.String("hold_id", hold.ID),
		slog.String("label", hold.Label),
	)
	return hold, nil
}

// List returns all currently held orders.
func (s *HoldService) List(ctx context.Context) ([]*domain.HeldOrder, error) {
	return s.repo.List(ctx)
}

// Get returns one held order.
func (s *HoldService) Get(ctx context.Context, id string) (*domain.HeldOrder, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("hold id is required")
	}
	return s.repo.Get(ctx, id)
}

// Resume returns a held order and removes it from the store, handing the
// cart back to the till.
func (s *HoldService) Resume(ctx context.Context, id string) (*domain.HeldOrder, error) {
	hold, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order resumed", slog.String("hold_id", id))
	return hold, nil
}

// Delete discards a held order.
func (s *HoldService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("hold id is required")
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
