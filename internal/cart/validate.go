package cart

import (
	"context"
	"fmt"

	"github.com/curocart/curocart-backend/pkg/enums"
	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
)

// ValidateCart classifies everything that would block a checkout of the
// pharmacy's cart. The pass is pure: it mutates nothing, and every rule is
// evaluated independently rather than short-circuiting. The engine never
// rejects a mutation because a cart is invalid; findings are advisory until
// checkout consults them.
func (s *Store) ValidateCart(pharmacyID string) ([]Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return validate(cart), nil
}

// RefreshValidation runs the validation pass and stores the snapshot on the
// cart's cached isValid/validationErrors fields. ValidateCart itself never
// touches the cache; reconciling it is an explicit step.
func (s *Store) RefreshValidation(ctx context.Context, pharmacyID string) ([]Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, exists := s.col.Carts[pharmacyID]
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}

	issues := validate(cart)
	cart.IsValid = len(issues) == 0
	cart.ValidationIssues = cloneIssues(issues)

	s.metrics.IncMutation("refresh_validation")
	s.persistCartsLocked()
	return issues, nil
}

func validate(cart *PharmacyCart) []Issue {
	var issues []Issue

	for _, line := range cart.Items {
		if !line.InStock {
			issues = append(issues, Issue{
				Kind:    enums.IssueKindOutOfStock,
				Message: fmt.Sprintf("%s is out of stock", line.Name),
				LineID:  line.ID,
			})
		}
		if line.RequiresApproval && !line.ApprovalSatisfied {
			issues = append(issues, Issue{
				Kind:    enums.IssueKindApprovalRequired,
				Message: fmt.Sprintf("%s requires a prescription", line.Name),
				LineID:  line.ID,
			})
		}
	}

	if cart.Totals.Subtotal.LessThan(cart.Delivery.MinOrderAmount) {
		issues = append(issues, Issue{
			Kind:    enums.IssueKindBelowMinimumOrder,
			Message: fmt.Sprintf("order subtotal is below the minimum of %s", cart.Delivery.MinOrderAmount),
		})
	}

	if !cart.Delivery.DeliveryAvailable {
		issues = append(issues, Issue{
			Kind:    enums.IssueKindDeliveryUnavailable,
			Message: fmt.Sprintf("%s does not deliver to your location", cart.PharmacyName),
		})
	}

	return issues
}
