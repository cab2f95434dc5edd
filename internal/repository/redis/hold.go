package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/warungku/poscore/internal/domain"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

const keyPrefix = "hold:"

// HoldRepository implements repository.HoldRepository using Redis. Holds are
// transient by design: Redis expires them after the configured TTL so an
// abandoned tab does not linger forever.
type HoldRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHoldRepository creates a new Redis-backed held-order repository.
func NewHoldRepository(client *redis.Client, ttl time.Duration) *HoldRepository {
	return &HoldRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a held order by ID.
func (r *HoldRepository) Get(ctx context.Context, id string) (*domain.HeldOrder, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("held order", id)
		}
		return nil, fmt.Errorf("redis get hold: %w", err)
	}

	var hold domain.HeldOrder
	if err := json.Unmarshal(data, &hold); err != nil {
		return nil, fmt.Errorf("unmarshal hold: %w", err)
	}

	return &hold, nil
}

// List returns all held orders.
func (r *HoldRepository) List(ctx context.Context) ([]*domain.HeldOrder, error) {
	var holds []*domain.HeldOrder

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if err == redis.Nil {
				// Expired between scan and get.
				continue
			}
			return nil, fmt.Errorf("redis get hold: %w", err)
		}

		var hold domain.HeldOrder
		if err := json.Unmarshal(data, &hold); err != nil {
			return nil, fmt.Errorf("unmarshal hold: %w", err)
		}
		holds = append(holds, &hold)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan holds: %w", err)
	}

	return holds, nil
}

// Save persists a held order with the configured TTL.
func (r *HoldRepository) Save(ctx context.Context, hold *domain.HeldOrder) error {
	data, err := json.Marshal(hold)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+hold.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set hold: %w", err)
	}

	return nil
}

// Delete removes a held order by ID.
func (r *HoldRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del hold: %w", err)
	}

	return nil
}
