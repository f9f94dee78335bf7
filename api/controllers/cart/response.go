package cart

import (
	cartsvc "github.com/curocart/curocart-backend/internal/cart"
	"github.com/shopspring/decimal"
)

// CollectionResponse is the full multi-pharmacy cart view plus the
// cross-cart aggregates the storefront badges display.
type CollectionResponse struct {
	Carts            map[string]*cartsvc.PharmacyCart `json:"carts"`
	ActivePharmacyID string                           `json:"activePharmacyId,omitempty"`
	ItemCount        int                              `json:"itemCount"`
	TotalAmount      decimal.Decimal                  `json:"totalAmount"`
}

// MutationResponse pairs what the mutation did with the cart it left behind.
// Cart is nil when the mutation removed the last line.
type MutationResponse struct {
	Result cartsvc.MutationResult `json:"result"`
	Cart   *cartsvc.PharmacyCart  `json:"cart,omitempty"`
}

type ValidationResponse struct {
	Valid  bool           `json:"valid"`
	Issues []cartsvc.Issue `json:"issues"`
}

func newCollectionResponse(store *cartsvc.Store) CollectionResponse {
	col := store.Collection()
	return CollectionResponse{
		Carts:            col.Carts,
		ActivePharmacyID: col.ActivePharmacyID,
		ItemCount:        store.ItemCount(),
		TotalAmount:      store.TotalAmount(),
	}
}

func newMutationResponse(store *cartsvc.Store, pharmacyID string, result cartsvc.MutationResult) MutationResponse {
	resp := MutationResponse{Result: result}
	if cart, exists := store.Cart(pharmacyID); exists {
		resp.Cart = cart
	}
	return resp
}

func newValidationResponse(issues []cartsvc.Issue) ValidationResponse {
	if issues == nil {
		issues = []cartsvc.Issue{}
	}
	return ValidationResponse{Valid: len(issues) == 0, Issues: issues}
}
