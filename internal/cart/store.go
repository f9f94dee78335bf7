package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/metrics"
	"github.com/curocart/curocart-backend/pkg/types"
)

// Store owns one customer's cart collection: one aggregate per pharmacy plus
// the active cart pointer. All mutations run under a single lock and end with
// a full totals recompute and an ordered snapshot write. Reads always see the
// in-memory state; persistence catches up behind the queue.
type Store struct {
	mu  sync.RWMutex
	col Collection

	defaults  DeliveryConfig
	persister Persister
	queue     *writeQueue
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
	now       func() time.Time
}

// StoreParams configures a Store.
type StoreParams struct {
	Persister Persister
	Defaults  DeliveryConfig
	QueueSize int
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// NewStore loads the persisted collection and builds the aggregate around it.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Persister == nil {
		return nil, fmt.Errorf("cart persister required")
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}

	col, err := params.Persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart collection: %w", err)
	}
	if col.Carts == nil {
		col.Carts = map[string]*PharmacyCart{}
	}

	return &Store{
		col:       col,
		defaults:  params.Defaults,
		persister: params.Persister,
		queue:     newWriteQueue(params.QueueSize, params.Logger, params.Metrics),
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       params.Clock,
	}, nil
}

// Close drains the snapshot write queue.
func (s *Store) Close() error {
	return s.queue.close()
}

// CreateCart inserts an empty cart for the pharmacy and makes it active.
// No-op when the cart already exists.
func (s *Store) CreateCart(ctx context.Context, pharmacyID, pharmacyName string) error {
	if pharmacyID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.col.Carts[pharmacyID]; exists {
		return nil
	}

	s.ensureCartLocked(pharmacyID, pharmacyName, nil, nil)
	s.col.ActivePharmacyID = pharmacyID
	s.metrics.IncMutation("create_cart")
	s.persistCartsLocked()
	s.persistActiveLocked()
	return nil
}

// SetActiveCart repoints the active cart. The cart does not have to exist
// yet; the UI may foreground a pharmacy before the first item is added.
func (s *Store) SetActiveCart(ctx context.Context, pharmacyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.col.ActivePharmacyID = pharmacyID
	s.metrics.IncMutation("set_active_cart")
	s.persistActiveLocked()
}

// ClearCart removes one pharmacy's cart entirely.
func (s *Store) ClearCart(ctx context.Context, pharmacyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.col.Carts[pharmacyID]; !exists {
		return
	}
	delete(s.col.Carts, pharmacyID)
	s.metrics.IncMutation("clear_cart")
	s.persistCartsLocked()
	if s.col.ActivePharmacyID == pharmacyID {
		s.col.ActivePharmacyID = ""
		s.persistActiveLocked()
	}
}

// ClearAllCarts empties the collection and deletes the persisted keys.
func (s *Store) ClearAllCarts(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.col = Collection{Carts: map[string]*PharmacyCart{}}
	s.metrics.IncMutation("clear_all_carts")
	s.queue.enqueue(func(ctx context.Context) error {
		return s.persister.Clear(ctx)
	})
}

// AddItem adds the catalog snapshot to the pharmacy's cart, creating the cart
// lazily when needed. Adding a product already in the cart increases the
// existing line's quantity, clamped silently at its maximum.
func (s *Store) AddItem(ctx context.Context, pharmacyID string, input ItemInput) (MutationResult, error) {
	if err := validateItemInput(pharmacyID, input); err != nil {
		return MutationResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cart := s.ensureCartLocked(pharmacyID, input.PharmacyName, input.PharmacyLocation, input.Delivery)

	result := MutationResult{}
	if line := findLineByProduct(cart, input.ProductID); line != nil {
		requested := line.Quantity + input.Quantity
		final := requested
		if final > line.MaxQuantity {
			final = line.MaxQuantity
			result.Clamped = true
		}
		result.Accepted = final - line.Quantity
		line.Quantity = final
		line.UpdatedAt = now
	} else {
		minQty := input.MinQuantity
		if minQty < 1 {
			minQty = 1
		}
		final := input.Quantity
		if final < minQty {
			final = minQty
			result.Clamped = true
		}
		if final > input.MaxQuantity {
			final = input.MaxQuantity
			result.Clamped = true
		}
		result.Accepted = final
		cart.Items = append(cart.Items, LineItem{
			ID:                newLineID(pharmacyID, input.ProductID, now),
			ProductID:         input.ProductID,
			Name:              input.Name,
			Brand:             input.Brand,
			Strength:          input.Strength,
			UnitPrice:         input.UnitPrice,
			ListPrice:         input.ListPrice,
			Discount:          input.Discount,
			Quantity:          final,
			MinQuantity:       minQty,
			MaxQuantity:       input.MaxQuantity,
			InStock:           input.InStock,
			RequiresApproval:  input.RequiresApproval,
			ApprovalSatisfied: input.ApprovalSatisfied,
			PharmacyID:        pharmacyID,
			PharmacyName:      cart.PharmacyName,
			AddedAt:           now,
			UpdatedAt:         now,
		})
	}

	cart.UpdatedAt = now
	recomputeTotals(cart)
	s.col.ActivePharmacyID = pharmacyID

	s.metrics.IncMutation("add_item")
	if result.Clamped {
		s.metrics.IncClamp()
	}
	s.persistCartsLocked()
	s.persistActiveLocked()
	return result, nil
}

// UpdateQuantity sets a line's quantity, clamped into its bounds. A requested
// quantity of zero or less removes the line; a cart left empty is removed
// with it.
func (s *Store) UpdateQuantity(ctx context.Context, pharmacyID, lineID string, quantity int) (MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return MutationResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	idx := findLineIndex(cart, lineID)
	if idx < 0 {
		return MutationResult{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	now := s.now()
	result := MutationResult{}

	if quantity <= 0 {
		result.Accepted = -cart.Items[idx].Quantity
		s.removeLineLocked(cart, idx, now)
	} else {
		line := &cart.Items[idx]
		final := quantity
		if final < line.MinQuantity {
			final = line.MinQuantity
			result.Clamped = true
		}
		if final > line.MaxQuantity {
			final = line.MaxQuantity
			result.Clamped = true
		}
		result.Accepted = final - line.Quantity
		line.Quantity = final
		line.UpdatedAt = now
		cart.UpdatedAt = now
		recomputeTotals(cart)
	}

	s.metrics.IncMutation("update_quantity")
	if result.Clamped {
		s.metrics.IncClamp()
	}
	s.persistCartsLocked()
	return result, nil
}

// RemoveItem deletes the line unconditionally. A cart left empty is removed.
func (s *Store) RemoveItem(ctx context.Context, pharmacyID, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	idx := findLineIndex(cart, lineID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	s.removeLineLocked(cart, idx, s.now())
	s.metrics.IncMutation("remove_item")
	s.persistCartsLocked()
	return nil
}

// ensureCartLocked is the single chokepoint through which every lazy cart
// creation flows. Existing carts are returned untouched.
func (s *Store) ensureCartLocked(pharmacyID, pharmacyName string, location *types.GeoPoint, override *DeliveryConfig) *PharmacyCart {
	if cart, exists := s.col.Carts[pharmacyID]; exists {
		return cart
	}

	delivery := s.defaults
	if override != nil {
		delivery = *override
	}

	now := s.now()
	cart := &PharmacyCart{
		PharmacyID:   pharmacyID,
		PharmacyName: pharmacyName,
		Location:     location,
		Items:        []LineItem{},
		Totals:       zeroTotals(),
		Delivery:     delivery,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.col.Carts[pharmacyID] = cart
	return cart
}

// removeLineLocked deletes a line and, when it was the last one, the cart
// itself. An empty cart has no totals worth displaying.
func (s *Store) removeLineLocked(cart *PharmacyCart, idx int, now time.Time) {
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if len(cart.Items) == 0 {
		delete(s.col.Carts, cart.PharmacyID)
		if s.col.ActivePharmacyID == cart.PharmacyID {
			s.col.ActivePharmacyID = ""
			s.persistActiveLocked()
		}
		return
	}
	cart.UpdatedAt = now
	recomputeTotals(cart)
}

func (s *Store) persistCartsLocked() {
	snapshot := cloneCollection(s.col).Carts
	s.queue.enqueue(func(ctx context.Context) error {
		return s.persister.SaveCarts(ctx, snapshot)
	})
}

func (s *Store) persistActiveLocked() {
	active := s.col.ActivePharmacyID
	s.queue.enqueue(func(ctx context.Context) error {
		return s.persister.SaveActive(ctx, active)
	})
}

func validateItemInput(pharmacyID string, input ItemInput) error {
	if pharmacyID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}
	if input.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.PharmacyName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "pharmacy name is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
	}
	if input.MaxQuantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item max quantity must be at least 1")
	}
	if input.MinQuantity > input.MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "item quantity bounds are inverted")
	}
	if input.UnitPrice.IsNegative() || input.ListPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "item prices must be non-negative")
	}
	if !input.Discount.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount kind")
	}
	if input.Discount.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be non-negative")
	}
	return nil
}

func findLineByProduct(cart *PharmacyCart, productID string) *LineItem {
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i]
		}
	}
	return nil
}

func findLineIndex(cart *PharmacyCart, lineID string) int {
	for i := range cart.Items {
		if cart.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}

// newLineID builds an identifier unique across the collection: the pharmacy,
// the catalog item, and the creation instant.
func newLineID(pharmacyID, productID string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", pharmacyID, productID, now.UnixNano())
}
