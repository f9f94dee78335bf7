package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/curocart/curocart-backend/api/middleware"
	cartsvc "github.com/curocart/curocart-backend/internal/cart"
	"github.com/shopspring/decimal"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	manager, err := cartsvc.NewManager(cartsvc.ManagerParams{
		Factory: func(string) cartsvc.Persister { return cartsvc.NewMemoryPersister() },
		Defaults: cartsvc.DeliveryConfig{
			DeliveryAvailable:     true,
			FlatDeliveryFee:       decimal.NewFromInt(50),
			FreeDeliveryThreshold: decimal.NewFromInt(500),
			TaxRate:               decimal.RequireFromString("0.05"),
		},
	})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	t.Cleanup(func() {
		if err := manager.Close(); err != nil {
			t.Fatalf("close manager: %v", err)
		}
	})

	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", CollectionFetch(manager, nil))
		r.Delete("/", ClearAll(manager, nil))
		r.Get("/previews", Previews(manager, nil))
		r.Put("/active", ActiveSet(manager, nil))
		r.Route("/{pharmacyID}", func(r chi.Router) {
			r.Get("/", CartFetch(manager, nil))
			r.Delete("/", CartClear(manager, nil))
			r.Get("/validation", Validate(manager, nil))
			r.Post("/items", ItemAdd(manager, nil))
			r.Patch("/items/{lineID}", ItemQuantityUpdate(manager, nil))
			r.Delete("/items/{lineID}", ItemRemove(manager, nil))
		})
	})
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(middleware.WithCustomerID(req.Context(), "cust-1"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

const addItemBody = `{
	"productId": "m1",
	"name": "Paracetamol 500mg",
	"unitPrice": "100",
	"discount": {"kind": "percentage", "value": "10"},
	"quantity": 2,
	"maxQuantity": 5,
	"inStock": true,
	"pharmacyName": "Apollo"
}`

func TestItemAddAndCollectionFetch(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", addItemBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data MutationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Result.Accepted != 2 {
		t.Fatalf("expected accepted 2 got %d", envelope.Data.Result.Accepted)
	}
	if envelope.Data.Cart == nil || !envelope.Data.Cart.Totals.Subtotal.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("unexpected cart in response: %+v", envelope.Data.Cart)
	}

	resp = doRequest(t, handler, http.MethodGet, "/api/v1/cart", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var collection struct {
		Data CollectionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if collection.Data.ItemCount != 2 {
		t.Fatalf("expected item count 2 got %d", collection.Data.ItemCount)
	}
	if collection.Data.ActivePharmacyID != "ph1" {
		t.Fatalf("expected active ph1 got %q", collection.Data.ActivePharmacyID)
	}
}

func TestItemAddRejectsUnknownDiscountKind(t *testing.T) {
	handler := testRouter(t)

	body := strings.Replace(addItemBody, `"percentage"`, `"bogo"`, 1)
	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestItemAddRejectsMalformedAmount(t *testing.T) {
	handler := testRouter(t)

	body := strings.Replace(addItemBody, `"unitPrice": "100"`, `"unitPrice": "1oo"`, 1)
	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestItemQuantityUpdateZeroRemovesLine(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", addItemBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data MutationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	lineID := envelope.Data.Cart.Items[0].ID

	resp = doRequest(t, handler, http.MethodPatch, "/api/v1/cart/ph1/items/"+lineID, `{"quantity": 0}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var updated struct {
		Data MutationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Data.Cart != nil {
		t.Fatalf("expected the emptied cart to be removed, got %+v", updated.Data.Cart)
	}

	resp = doRequest(t, handler, http.MethodGet, "/api/v1/cart/ph1", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestItemRemoveUnknownLine(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", addItemBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = doRequest(t, handler, http.MethodDelete, "/api/v1/cart/ph1/items/missing", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestValidationEndpointFlagsOutOfStock(t *testing.T) {
	handler := testRouter(t)

	body := strings.Replace(addItemBody, `"inStock": true`, `"inStock": false`, 1)
	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(t, handler, http.MethodGet, "/api/v1/cart/ph1/validation", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data ValidationResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Valid {
		t.Fatal("expected the cart to be invalid")
	}
	if len(envelope.Data.Issues) != 1 {
		t.Fatalf("expected one issue got %d", len(envelope.Data.Issues))
	}
}

func TestActiveSetAndPreviews(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", addItemBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	resp = doRequest(t, handler, http.MethodPut, "/api/v1/cart/active", `{"pharmacyId": "ph2"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = doRequest(t, handler, http.MethodGet, "/api/v1/cart/previews", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []cartsvc.Preview `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Active {
		t.Fatalf("unexpected previews: %+v", envelope.Data)
	}
}

func TestPreviewsRejectsHalfLocation(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodGet, "/api/v1/cart/previews?lat=12.9", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMissingCustomerContext(t *testing.T) {
	handler := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestClearAllEmptiesCollection(t *testing.T) {
	handler := testRouter(t)

	resp := doRequest(t, handler, http.MethodPost, "/api/v1/cart/ph1/items", addItemBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = doRequest(t, handler, http.MethodDelete, "/api/v1/cart", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data CollectionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Carts) != 0 || envelope.Data.ItemCount != 0 {
		t.Fatalf("expected empty collection: %+v", envelope.Data)
	}
}
