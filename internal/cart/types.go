package cart

import (
	"time"

	"github.com/curocart/curocart-backend/pkg/config"
	"github.com/curocart/curocart-backend/pkg/enums"
	"github.com/curocart/curocart-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Discount is a line-level price reduction. The kind decides how the value is
// read: a percentage of the unit price, or a fixed amount per unit.
type Discount struct {
	Kind  enums.DiscountKind `json:"kind"`
	Value decimal.Decimal    `json:"value"`
}

// PercentageDiscount builds a percentage-of-unit-price discount.
func PercentageDiscount(value decimal.Decimal) Discount {
	return Discount{Kind: enums.DiscountKindPercentage, Value: value}
}

// FixedDiscount builds a fixed amount-per-unit discount.
func FixedDiscount(value decimal.Decimal) Discount {
	return Discount{Kind: enums.DiscountKindFixed, Value: value}
}

// PerUnit returns the discount applied to one unit at the given price.
func (d Discount) PerUnit(unitPrice decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case enums.DiscountKindPercentage:
		return unitPrice.Mul(d.Value).Div(decimal.NewFromInt(100))
	case enums.DiscountKindFixed:
		return d.Value
	}
	return decimal.Zero
}

// LineItem is one catalog product at one quantity inside a pharmacy cart.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`

	// Display fields, opaque to the engine.
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Strength string `json:"strength,omitempty"`

	UnitPrice decimal.Decimal `json:"unitPrice"`
	ListPrice decimal.Decimal `json:"listPrice"`
	Discount  Discount        `json:"discount"`

	Quantity    int `json:"quantity"`
	MinQuantity int `json:"minQuantity"`
	MaxQuantity int `json:"maxQuantity"`

	InStock           bool `json:"inStock"`
	RequiresApproval  bool `json:"requiresApproval"`
	ApprovalSatisfied bool `json:"approvalSatisfied"`

	PharmacyID   string `json:"pharmacyId"`
	PharmacyName string `json:"pharmacyName"`

	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeliveryConfig carries the per-pharmacy delivery economics.
type DeliveryConfig struct {
	DeliveryAvailable     bool            `json:"deliveryAvailable"`
	FlatDeliveryFee       decimal.Decimal `json:"flatDeliveryFee"`
	FreeDeliveryThreshold decimal.Decimal `json:"freeDeliveryThreshold"`
	MinOrderAmount        decimal.Decimal `json:"minOrderAmount"`
	TaxRate               decimal.Decimal `json:"taxRate"`
	EstimatedDeliveryTime string          `json:"estimatedDeliveryTime,omitempty"`
}

// DeliveryDefaultsFromConfig builds the module-level default delivery
// configuration applied to carts created without an override.
func DeliveryDefaultsFromConfig(cfg config.CartConfig) DeliveryConfig {
	return DeliveryConfig{
		DeliveryAvailable:     true,
		FlatDeliveryFee:       cfg.FlatDeliveryFeeAmount(),
		FreeDeliveryThreshold: cfg.FreeDeliveryThresholdAmount(),
		MinOrderAmount:        cfg.MinOrderAmountValue(),
		TaxRate:               cfg.TaxRateAmount(),
	}
}

// Totals are derived from the current line items and delivery configuration.
// They are recomputed from scratch on every mutation, never patched.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
}

// Issue is an advisory validation finding. It blocks checkout but never a
// cart mutation.
type Issue struct {
	Kind    enums.IssueKind `json:"kind"`
	Message string          `json:"message"`
	LineID  string          `json:"lineId,omitempty"`
}

// PharmacyCart is the aggregate for one pharmacy: its line items plus the
// derived totals and the last stored validation snapshot.
type PharmacyCart struct {
	PharmacyID   string          `json:"pharmacyId"`
	PharmacyName string          `json:"pharmacyName"`
	Location     *types.GeoPoint `json:"location,omitempty"`

	Items    []LineItem     `json:"items"`
	Totals   Totals         `json:"totals"`
	Delivery DeliveryConfig `json:"delivery"`

	IsValid          bool    `json:"isValid"`
	ValidationIssues []Issue `json:"validationErrors,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Collection is the root state: one cart per pharmacy plus the weak pointer
// to the cart currently foregrounded by the UI.
type Collection struct {
	Carts            map[string]*PharmacyCart `json:"carts"`
	ActivePharmacyID string                   `json:"activePharmacyId,omitempty"`
}

// MutationResult reports what a mutation actually did. Accepted is the
// quantity delta applied; Clamped is set when the request hit a line bound.
type MutationResult struct {
	Accepted int  `json:"accepted"`
	Clamped  bool `json:"clamped"`
}

// Preview is a lightweight per-pharmacy summary for multi-cart UI surfaces.
type Preview struct {
	PharmacyID   string          `json:"pharmacyId"`
	PharmacyName string          `json:"pharmacyName"`
	ItemCount    int             `json:"itemCount"`
	Total        decimal.Decimal `json:"total"`
	Active       bool            `json:"active"`
	DistanceKM   *float64        `json:"distanceKm,omitempty"`
}

// ItemInput is the catalog snapshot supplied at add time. Price, stock and
// discount data come from the catalog service; the engine treats them as
// authoritative for the life of the line.
type ItemInput struct {
	ProductID string
	Name      string
	Brand     string
	Strength  string

	UnitPrice decimal.Decimal
	ListPrice decimal.Decimal
	Discount  Discount

	Quantity    int
	MinQuantity int
	MaxQuantity int

	InStock           bool
	RequiresApproval  bool
	ApprovalSatisfied bool

	PharmacyName     string
	PharmacyLocation *types.GeoPoint

	// Delivery overrides the default economics when the pharmacy cart is
	// created lazily by this add. Ignored for existing carts.
	Delivery *DeliveryConfig
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func cloneIssues(issues []Issue) []Issue {
	if issues == nil {
		return nil
	}
	out := make([]Issue, len(issues))
	copy(out, issues)
	return out
}

func cloneCart(cart *PharmacyCart) *PharmacyCart {
	if cart == nil {
		return nil
	}
	out := *cart
	out.Items = cloneItems(cart.Items)
	out.ValidationIssues = cloneIssues(cart.ValidationIssues)
	if cart.Location != nil {
		loc := *cart.Location
		out.Location = &loc
	}
	return &out
}

func cloneCollection(col Collection) Collection {
	out := Collection{
		Carts:            make(map[string]*PharmacyCart, len(col.Carts)),
		ActivePharmacyID: col.ActivePharmacyID,
	}
	for id, cart := range col.Carts {
		out.Carts[id] = cloneCart(cart)
	}
	return out
}
