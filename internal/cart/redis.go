package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/redis"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisPersister stores one customer's cart collection as two keys: the
// JSON-serialized cart mapping and the plain active pharmacy pointer.
type RedisPersister struct {
	kv        kvStore
	cartsKey  string
	activeKey string
	logg      *logger.Logger
}

// NewRedisPersister builds a persister scoped to one customer.
func NewRedisPersister(client *redis.Client, customerID string, logg *logger.Logger) *RedisPersister {
	return &RedisPersister{
		kv:        client,
		cartsKey:  client.CartsKey(customerID),
		activeKey: client.ActivePharmacyKey(customerID),
		logg:      logg,
	}
}

// Load reads both keys. An absent key means an empty collection; a corrupt
// blob is discarded with a warning rather than failing the load.
func (p *RedisPersister) Load(ctx context.Context) (Collection, error) {
	col := Collection{Carts: map[string]*PharmacyCart{}}

	raw, err := p.kv.Get(ctx, p.cartsKey)
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return col, fmt.Errorf("load cart snapshot: %w", err)
	default:
		var carts map[string]*PharmacyCart
		if err := json.Unmarshal([]byte(raw), &carts); err != nil {
			if p.logg != nil {
				p.logg.Warn(ctx, "discarding corrupt cart snapshot")
			}
		} else if carts != nil {
			col.Carts = carts
		}
	}

	active, err := p.kv.Get(ctx, p.activeKey)
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return col, fmt.Errorf("load active pharmacy: %w", err)
	default:
		col.ActivePharmacyID = active
	}

	return col, nil
}

func (p *RedisPersister) SaveCarts(ctx context.Context, carts map[string]*PharmacyCart) error {
	payload, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	if err := p.kv.Set(ctx, p.cartsKey, string(payload), 0); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

func (p *RedisPersister) SaveActive(ctx context.Context, activePharmacyID string) error {
	if activePharmacyID == "" {
		if err := p.kv.Del(ctx, p.activeKey); err != nil {
			return fmt.Errorf("clear active pharmacy: %w", err)
		}
		return nil
	}
	if err := p.kv.Set(ctx, p.activeKey, activePharmacyID, 0); err != nil {
		return fmt.Errorf("write active pharmacy: %w", err)
	}
	return nil
}

// Clear deletes both keys instead of writing empty placeholders.
func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.kv.Del(ctx, p.cartsKey, p.activeKey); err != nil {
		return fmt.Errorf("clear cart keys: %w", err)
	}
	return nil
}
