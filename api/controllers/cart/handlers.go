package cart

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/curocart/curocart-backend/api/middleware"
	"github.com/curocart/curocart-backend/api/responses"
	"github.com/curocart/curocart-backend/api/validators"
	cartsvc "github.com/curocart/curocart-backend/internal/cart"
	pkgerrors "github.com/curocart/curocart-backend/pkg/errors"
	"github.com/curocart/curocart-backend/pkg/logger"
	"github.com/curocart/curocart-backend/pkg/types"
)

// CollectionFetch returns every pharmacy cart plus the cross-cart aggregates.
func CollectionFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCollectionResponse(store))
	}
}

// CartFetch returns one pharmacy's cart.
func CartFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, exists := store.Cart(chi.URLParam(r, "pharmacyID"))
		if !exists {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found"))
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// Previews returns per-pharmacy summaries. When the customer passes lat/lng
// query parameters, each preview with a known pharmacy location carries the
// distance in km.
func Previews(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		location, err := locationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Previews(location))
	}
}

// CartCreate inserts an empty cart for the pharmacy and makes it active.
func CartCreate(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CreateCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.CreateCart(r.Context(), payload.PharmacyID, payload.PharmacyName); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, _ := store.Cart(payload.PharmacyID)
		responses.WriteSuccessStatus(w, http.StatusCreated, cart)
	}
}

// ItemAdd adds a catalog snapshot to the pharmacy's cart, creating the cart
// lazily when needed.
func ItemAdd(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toItemInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pharmacyID := chi.URLParam(r, "pharmacyID")
		result, err := store.AddItem(r.Context(), pharmacyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(store, pharmacyID, result))
	}
}

// ItemQuantityUpdate sets a line's quantity. Zero or less removes the line.
func ItemQuantityUpdate(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pharmacyID := chi.URLParam(r, "pharmacyID")
		result, err := store.UpdateQuantity(r.Context(), pharmacyID, chi.URLParam(r, "lineID"), *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(store, pharmacyID, result))
	}
}

// ItemRemove deletes the line unconditionally.
func ItemRemove(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pharmacyID := chi.URLParam(r, "pharmacyID")
		if err := store.RemoveItem(r.Context(), pharmacyID, chi.URLParam(r, "lineID")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(store, pharmacyID, cartsvc.MutationResult{}))
	}
}

// ActiveSet repoints the active cart.
func ActiveSet(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload SetActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.SetActiveCart(r.Context(), payload.PharmacyID)
		responses.WriteSuccess(w, map[string]string{"activePharmacyId": payload.PharmacyID})
	}
}

// CartClear removes one pharmacy's cart entirely.
func CartClear(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.ClearCart(r.Context(), chi.URLParam(r, "pharmacyID"))
		responses.WriteSuccess(w, newCollectionResponse(store))
	}
}

// ClearAll empties the whole collection.
func ClearAll(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.ClearAllCarts(r.Context())
		responses.WriteSuccess(w, newCollectionResponse(store))
	}
}

// Validate runs the checkout validation pass without touching the cart.
func Validate(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issues, err := store.ValidateCart(chi.URLParam(r, "pharmacyID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newValidationResponse(issues))
	}
}

// ValidationRefresh runs the validation pass and stores the snapshot on the
// cart's cached fields.
func ValidationRefresh(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeForRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issues, err := store.RefreshValidation(r.Context(), chi.URLParam(r, "pharmacyID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newValidationResponse(issues))
	}
}

func storeForRequest(manager *cartsvc.Manager, r *http.Request) (*cartsvc.Store, error) {
	if manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable")
	}
	customerID := middleware.CustomerIDFromContext(r.Context())
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing")
	}
	store, err := manager.ForCustomer(r.Context(), customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart collection")
	}
	return store, nil
}

func locationFromQuery(r *http.Request) (*types.GeoPoint, error) {
	latRaw := r.URL.Query().Get("lat")
	lngRaw := r.URL.Query().Get("lng")
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lngRaw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lat")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid lng")
	}
	return &types.GeoPoint{Lat: lat, Lng: lng}, nil
}
