package cart

import (
	"sort"

	"github.com/curocart/curocart-backend/pkg/geo"
	"github.com/curocart/curocart-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// The selector surface is read-only and pure over the current collection.
// Each call takes the read lock and returns copies, never live aggregates.

// Cart returns a copy of one pharmacy's cart.
func (s *Store) Cart(pharmacyID string) (*PharmacyCart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return nil, false
	}
	return cloneCart(cart), true
}

// Collection returns a copy of the whole collection.
func (s *Store) Collection() Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCollection(s.col)
}

// ActivePharmacyID returns the active cart pointer, empty when none.
func (s *Store) ActivePharmacyID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.ActivePharmacyID
}

// ItemCount sums line quantities across every cart.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, cart := range s.col.Carts {
		count += cartItemCount(cart)
	}
	return count
}

// PharmacyItemCount sums line quantities for one pharmacy, 0 when absent.
func (s *Store) PharmacyItemCount(pharmacyID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return 0
	}
	return cartItemCount(cart)
}

// TotalAmount sums cart totals across every cart.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, cart := range s.col.Carts {
		total = total.Add(cart.Totals.Total)
	}
	return total
}

// PharmacyTotal returns one cart's total, zero when absent.
func (s *Store) PharmacyTotal(pharmacyID string) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return decimal.Zero
	}
	return cart.Totals.Total
}

// HasProduct reports whether the pharmacy's cart holds the catalog item.
func (s *Store) HasProduct(pharmacyID, productID string) bool {
	return s.ProductQuantity(pharmacyID, productID) > 0
}

// ProductQuantity returns the carted quantity of a catalog item, 0 if absent.
func (s *Store) ProductQuantity(pharmacyID, productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return 0
	}
	for _, line := range cart.Items {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Previews returns a per-pharmacy summary for multi-cart UI surfaces, sorted
// by pharmacy id for stable output. When the customer location and a cart's
// pharmacy location are both known, the preview carries the distance in km.
func (s *Store) Previews(customer *types.GeoPoint) []Preview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	previews := make([]Preview, 0, len(s.col.Carts))
	for id, cart := range s.col.Carts {
		preview := Preview{
			PharmacyID:   id,
			PharmacyName: cart.PharmacyName,
			ItemCount:    cartItemCount(cart),
			Total:        cart.Totals.Total,
			Active:       id == s.col.ActivePharmacyID,
		}
		if customer != nil && cart.Location != nil {
			distance := geo.DistanceKM(*customer, *cart.Location)
			preview.DistanceKM = &distance
		}
		previews = append(previews, preview)
	}

	sort.Slice(previews, func(i, j int) bool {
		return previews[i].PharmacyID < previews[j].PharmacyID
	})
	return previews
}

func cartItemCount(cart *PharmacyCart) int {
	count := 0
	for _, line := range cart.Items {
		count += line.Quantity
	}
	return count
}
