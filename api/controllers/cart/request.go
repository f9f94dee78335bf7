package cart

import (
	cartsvc "github.com/curocart/curocart-backend/internal/cart"
	"github.com/curocart/curocart-backend/pkg/enums"
	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
	"github.com/curocart/curocart-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the catalog snapshot the storefront sends when adding a
// medicine to a pharmacy cart. Prices travel as decimal strings.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Brand     string `json:"brand,omitempty"`
	Strength  string `json:"strength,omitempty"`

	UnitPrice string          `json:"unitPrice" validate:"required"`
	ListPrice string          `json:"listPrice,omitempty"`
	Discount  DiscountPayload `json:"discount"`

	Quantity    int `json:"quantity" validate:"required,min=1"`
	MinQuantity int `json:"minQuantity,omitempty"`
	MaxQuantity int `json:"maxQuantity" validate:"required,min=1"`

	InStock           bool `json:"inStock"`
	RequiresApproval  bool `json:"requiresApproval"`
	ApprovalSatisfied bool `json:"approvalSatisfied"`

	PharmacyName     string           `json:"pharmacyName" validate:"required"`
	PharmacyLocation *GeoPointPayload `json:"pharmacyLocation,omitempty"`
	Delivery         *DeliveryPayload `json:"delivery,omitempty"`
}

type DiscountPayload struct {
	Kind  string `json:"kind" validate:"required,oneof=percentage fixed"`
	Value string `json:"value" validate:"required"`
}

type GeoPointPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryPayload overrides the default delivery economics when this add
// creates the pharmacy cart.
type DeliveryPayload struct {
	DeliveryAvailable     bool   `json:"deliveryAvailable"`
	FlatDeliveryFee       string `json:"flatDeliveryFee" validate:"required"`
	FreeDeliveryThreshold string `json:"freeDeliveryThreshold" validate:"required"`
	MinOrderAmount        string `json:"minOrderAmount,omitempty"`
	TaxRate               string `json:"taxRate" validate:"required"`
	EstimatedDeliveryTime string `json:"estimatedDeliveryTime,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type SetActiveRequest struct {
	PharmacyID string `json:"pharmacyId" validate:"required"`
}

type CreateCartRequest struct {
	PharmacyID   string `json:"pharmacyId" validate:"required"`
	PharmacyName string `json:"pharmacyName" validate:"required"`
}

func toItemInput(payload AddItemRequest) (cartsvc.ItemInput, error) {
	unitPrice, err := parseAmount("unitPrice", payload.UnitPrice)
	if err != nil {
		return cartsvc.ItemInput{}, err
	}

	listPrice := unitPrice
	if payload.ListPrice != "" {
		if listPrice, err = parseAmount("listPrice", payload.ListPrice); err != nil {
			return cartsvc.ItemInput{}, err
		}
	}

	kind, err := enums.ParseDiscountKind(payload.Discount.Kind)
	if err != nil {
		return cartsvc.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount kind")
	}
	discountValue, err := parseAmount("discount.value", payload.Discount.Value)
	if err != nil {
		return cartsvc.ItemInput{}, err
	}

	input := cartsvc.ItemInput{
		ProductID:         payload.ProductID,
		Name:              payload.Name,
		Brand:             payload.Brand,
		Strength:          payload.Strength,
		UnitPrice:         unitPrice,
		ListPrice:         listPrice,
		Discount:          cartsvc.Discount{Kind: kind, Value: discountValue},
		Quantity:          payload.Quantity,
		MinQuantity:       payload.MinQuantity,
		MaxQuantity:       payload.MaxQuantity,
		InStock:           payload.InStock,
		RequiresApproval:  payload.RequiresApproval,
		ApprovalSatisfied: payload.ApprovalSatisfied,
		PharmacyName:      payload.PharmacyName,
	}

	if payload.PharmacyLocation != nil {
		input.PharmacyLocation = &types.GeoPoint{
			Lat: payload.PharmacyLocation.Lat,
			Lng: payload.PharmacyLocation.Lng,
		}
	}

	if payload.Delivery != nil {
		delivery, err := toDeliveryConfig(*payload.Delivery)
		if err != nil {
			return cartsvc.ItemInput{}, err
		}
		input.Delivery = &delivery
	}

	return input, nil
}

func toDeliveryConfig(payload DeliveryPayload) (cartsvc.DeliveryConfig, error) {
	fee, err := parseAmount("delivery.flatDeliveryFee", payload.FlatDeliveryFee)
	if err != nil {
		return cartsvc.DeliveryConfig{}, err
	}
	threshold, err := parseAmount("delivery.freeDeliveryThreshold", payload.FreeDeliveryThreshold)
	if err != nil {
		return cartsvc.DeliveryConfig{}, err
	}
	taxRate, err := parseAmount("delivery.taxRate", payload.TaxRate)
	if err != nil {
		return cartsvc.DeliveryConfig{}, err
	}

	minOrder := decimal.Zero
	if payload.MinOrderAmount != "" {
		if minOrder, err = parseAmount("delivery.minOrderAmount", payload.MinOrderAmount); err != nil {
			return cartsvc.DeliveryConfig{}, err
		}
	}

	return cartsvc.DeliveryConfig{
		DeliveryAvailable:     payload.DeliveryAvailable,
		FlatDeliveryFee:       fee,
		FreeDeliveryThreshold: threshold,
		MinOrderAmount:        minOrder,
		TaxRate:               taxRate,
		EstimatedDeliveryTime: payload.EstimatedDeliveryTime,
	}, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
			WithDetails(map[string]string{field: "must be a decimal string"})
	}
	return value, nil
}
