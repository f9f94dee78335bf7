package cart

import "github.com/shopspring/decimal"

// recomputeTotals derives the five cart totals from scratch. Incremental
// patching is deliberately avoided so totals can never drift from the lines.
//
//	subtotal      = sum of (unitPrice - discountPerUnit) * quantity
//	totalDiscount = sum of discountPerUnit * quantity
//	deliveryFee   = flat fee while delivery is available and subtotal is
//	                below the free-delivery threshold
//	taxAmount     = subtotal * taxRate (tax applies to the net subtotal)
//	total         = subtotal + deliveryFee + taxAmount
func recomputeTotals(cart *PharmacyCart) {
	if cart == nil {
		return
	}

	if len(cart.Items) == 0 {
		cart.Totals = zeroTotals()
		return
	}

	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	for _, line := range cart.Items {
		quantity := decimal.NewFromInt(int64(line.Quantity))
		perUnit := line.Discount.PerUnit(line.UnitPrice)
		subtotal = subtotal.Add(line.UnitPrice.Sub(perUnit).Mul(quantity))
		totalDiscount = totalDiscount.Add(perUnit.Mul(quantity))
	}

	deliveryFee := decimal.Zero
	if cart.Delivery.DeliveryAvailable && subtotal.LessThan(cart.Delivery.FreeDeliveryThreshold) {
		deliveryFee = cart.Delivery.FlatDeliveryFee
	}

	taxAmount := subtotal.Mul(cart.Delivery.TaxRate)

	cart.Totals = Totals{
		Subtotal:      subtotal,
		TotalDiscount: totalDiscount,
		DeliveryFee:   deliveryFee,
		TaxAmount:     taxAmount,
		Total:         subtotal.Add(deliveryFee).Add(taxAmount),
	}
}

func zeroTotals() Totals {
	return Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		DeliveryFee:   decimal.Zero,
		TaxAmount:     decimal.Zero,
		Total:         decimal.Zero,
	}
}
