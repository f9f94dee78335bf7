package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testDelivery() DeliveryConfig {
	return DeliveryConfig{
		DeliveryAvailable:     true,
		FlatDeliveryFee:       decimal.NewFromInt(50),
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		MinOrderAmount:        decimal.Zero,
		TaxRate:               decimal.RequireFromString("0.05"),
	}
}

func newTestStore(t *testing.T, persister Persister) *Store {
	t.Helper()

	if persister == nil {
		persister = NewMemoryPersister()
	}
	store, err := NewStore(context.Background(), StoreParams{
		Persister: persister,
		Defaults:  testDelivery(),
		Clock:     testClock,
	})
	require.NoError(t, err)
	return store
}

func testItem(productID string, quantity int) ItemInput {
	return ItemInput{
		ProductID:    productID,
		Name:         "Paracetamol 500mg",
		Brand:        "Calpol",
		UnitPrice:    decimal.NewFromInt(100),
		ListPrice:    decimal.NewFromInt(110),
		Discount:     PercentageDiscount(decimal.NewFromInt(10)),
		Quantity:     quantity,
		MinQuantity:  1,
		MaxQuantity:  5,
		InStock:      true,
		PharmacyName: "Apollo",
	}
}

func TestAddItemCreatesCartLazily(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	result, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	require.Equal(t, MutationResult{Accepted: 2}, result)

	cart, exists := store.Cart("ph1")
	require.True(t, exists)
	require.Equal(t, "Apollo", cart.PharmacyName)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.True(t, cart.Totals.Subtotal.Equal(decimal.NewFromInt(180)), "subtotal=%s", cart.Totals.Subtotal)
	require.True(t, cart.Totals.TotalDiscount.Equal(decimal.NewFromInt(20)), "discount=%s", cart.Totals.TotalDiscount)
	require.Equal(t, "ph1", store.ActivePharmacyID())
}

func TestAddItemMergesByCatalogItemAndClampsAtMax(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)

	result, err := store.AddItem(ctx, "ph1", testItem("m1", 10))
	require.NoError(t, err)
	require.True(t, result.Clamped)
	require.Equal(t, 3, result.Accepted)

	cart, _ := store.Cart("ph1")
	require.Len(t, cart.Items, 1, "same catalog item must merge into one line")
	require.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItemQuantityEqualsMinOfSumAndMax(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	requests := []int{1, 2, 1, 4, 3}
	sum := 0
	for _, q := range requests {
		_, err := store.AddItem(ctx, "ph1", testItem("m1", q))
		require.NoError(t, err)
		sum += q

		want := sum
		if want > 5 {
			want = 5
		}
		require.Equal(t, want, store.ProductQuantity("ph1", "m1"))
	}
}

func TestAddItemRaisesBelowMinimumQuantity(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)

	input := testItem("m1", 1)
	input.MinQuantity = 3

	result, err := store.AddItem(context.Background(), "ph1", input)
	require.NoError(t, err)
	require.True(t, result.Clamped)
	require.Equal(t, 3, result.Accepted)
	require.Equal(t, 3, store.ProductQuantity("ph1", "m1"))
}

func TestAddItemRejectsBadInput(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		patch func(*ItemInput)
	}{
		{"missing product", func(i *ItemInput) { i.ProductID = "" }},
		{"missing pharmacy name", func(i *ItemInput) { i.PharmacyName = "" }},
		{"zero quantity", func(i *ItemInput) { i.Quantity = 0 }},
		{"zero max", func(i *ItemInput) { i.MaxQuantity = 0 }},
		{"inverted bounds", func(i *ItemInput) { i.MinQuantity = 9 }},
		{"negative price", func(i *ItemInput) { i.UnitPrice = decimal.NewFromInt(-1) }},
		{"unknown discount kind", func(i *ItemInput) { i.Discount.Kind = "bogo" }},
		{"negative discount", func(i *ItemInput) { i.Discount.Value = decimal.NewFromInt(-5) }},
	}

	for _, tc := range cases {
		input := testItem("m1", 1)
		tc.patch(&input)
		_, err := store.AddItem(ctx, "ph1", input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, tc.name)
		require.Equal(t, pkgerrors.CodeValidation, typed.Code(), tc.name)
	}

	_, err := store.AddItem(ctx, "", testItem("m1", 1))
	require.NotNil(t, pkgerrors.As(err))
}

func TestUpdateQuantityClampsIntoBounds(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	cart, _ := store.Cart("ph1")
	lineID := cart.Items[0].ID

	result, err := store.UpdateQuantity(ctx, "ph1", lineID, 99)
	require.NoError(t, err)
	require.True(t, result.Clamped)
	require.Equal(t, 5, store.ProductQuantity("ph1", "m1"))

	result, err = store.UpdateQuantity(ctx, "ph1", lineID, 3)
	require.NoError(t, err)
	require.False(t, result.Clamped)
	require.Equal(t, -2, result.Accepted)
	require.Equal(t, 3, store.ProductQuantity("ph1", "m1"))
}

func TestUpdateQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	t.Parallel()

	for _, quantity := range []int{0, -5} {
		store := newTestStore(t, nil)
		ctx := context.Background()

		_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
		require.NoError(t, err)
		cart, _ := store.Cart("ph1")
		lineID := cart.Items[0].ID

		result, err := store.UpdateQuantity(ctx, "ph1", lineID, quantity)
		require.NoError(t, err)
		require.Equal(t, -2, result.Accepted, "removal reports the full negative delta")
		require.Equal(t, 0, store.ProductQuantity("ph1", "m1"))

		// The emptied cart goes with its last line.
		_, exists := store.Cart("ph1")
		require.False(t, exists)
		require.Equal(t, "", store.ActivePharmacyID())
	}
}

func TestRemoveItemDeletesEmptiedCart(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "ph1", testItem("m2", 1))
	require.NoError(t, err)

	cart, _ := store.Cart("ph1")
	require.NoError(t, store.RemoveItem(ctx, "ph1", cart.Items[0].ID))

	cart, exists := store.Cart("ph1")
	require.True(t, exists, "cart with remaining lines survives")
	require.Len(t, cart.Items, 1)

	require.NoError(t, store.RemoveItem(ctx, "ph1", cart.Items[0].ID))
	_, exists = store.Cart("ph1")
	require.False(t, exists, "cart emptied by removal is deleted")
}

func TestMutationsOnMissingTargetsReturnNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.UpdateQuantity(ctx, "ph1", "line", 1)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = store.RemoveItem(ctx, "ph1", "line")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = store.AddItem(ctx, "ph1", testItem("m1", 1))
	require.NoError(t, err)
	_, err = store.UpdateQuantity(ctx, "ph1", "bogus", 1)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateCartIsIdempotentAndSetsActive(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.CreateCart(ctx, "ph1", "Apollo"))
	require.Equal(t, "ph1", store.ActivePharmacyID())

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)

	// Second create must not wipe the existing cart.
	require.NoError(t, store.CreateCart(ctx, "ph1", "Apollo"))
	require.Equal(t, 2, store.ProductQuantity("ph1", "m1"))
}

func TestSetActiveCartAcceptsUnknownPharmacy(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	store.SetActiveCart(context.Background(), "ph9")
	require.Equal(t, "ph9", store.ActivePharmacyID())
}

func TestClearCartDropsActivePointer(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "ph2", testItem("m2", 1))
	require.NoError(t, err)

	store.SetActiveCart(ctx, "ph1")
	store.ClearCart(ctx, "ph1")

	_, exists := store.Cart("ph1")
	require.False(t, exists)
	require.Equal(t, "", store.ActivePharmacyID())

	_, exists = store.Cart("ph2")
	require.True(t, exists)
}

func TestClearAllCartsSurvivesReload(t *testing.T) {
	t.Parallel()

	persister := NewMemoryPersister()
	store := newTestStore(t, persister)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	_, err = store.AddItem(ctx, "ph2", testItem("m2", 1))
	require.NoError(t, err)

	store.ClearAllCarts(ctx)
	require.NoError(t, store.Close())

	reloaded := newTestStore(t, persister)
	require.Empty(t, reloaded.Collection().Carts)
	require.Equal(t, "", reloaded.ActivePharmacyID())
	require.NoError(t, reloaded.Close())
}

func TestCollectionRoundTripsThroughPersistence(t *testing.T) {
	t.Parallel()

	persister := NewMemoryPersister()
	store := newTestStore(t, persister)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reloaded := newTestStore(t, persister)
	cart, exists := reloaded.Cart("ph1")
	require.True(t, exists)
	require.Equal(t, 2, cart.Items[0].Quantity)
	require.True(t, cart.Totals.Subtotal.Equal(decimal.NewFromInt(180)))
	require.Equal(t, "ph1", reloaded.ActivePharmacyID())
	require.NoError(t, reloaded.Close())
}

func TestPersistenceFailureDoesNotRollBackMemory(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &failingPersister{})
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err, "mutation must succeed even when persistence fails")
	require.Equal(t, 2, store.ProductQuantity("ph1", "m1"))

	err = store.Close()
	require.Error(t, err, "close reports accumulated write failures")
}

func TestSelectorsReturnCopies(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	_, err := store.AddItem(ctx, "ph1", testItem("m1", 2))
	require.NoError(t, err)

	cart, _ := store.Cart("ph1")
	cart.Items[0].Quantity = 99
	cart.PharmacyName = "tampered"

	fresh, _ := store.Cart("ph1")
	require.Equal(t, 2, fresh.Items[0].Quantity)
	require.Equal(t, "Apollo", fresh.PharmacyName)
}

type failingPersister struct{}

func (failingPersister) Load(ctx context.Context) (Collection, error) {
	return Collection{Carts: map[string]*PharmacyCart{}}, nil
}

func (failingPersister) SaveCarts(ctx context.Context, carts map[string]*PharmacyCart) error {
	return errors.New("kv unavailable")
}

func (failingPersister) SaveActive(ctx context.Context, active string) error {
	return errors.New("kv unavailable")
}

func (failingPersister) Clear(ctx context.Context) error {
	return errors.New("kv unavailable")
}
