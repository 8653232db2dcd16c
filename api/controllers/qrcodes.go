package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopqr-backend/api/middleware"
	"github.com/angelmondragon/shopqr-backend/api/responses"
	"github.com/angelmondragon/shopqr-backend/api/validators"
	qrsvc "github.com/angelmondragon/shopqr-backend/internal/qrcodes"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
	"github.com/angelmondragon/shopqr-backend/pkg/logger"
)

// ListQRCodes returns every QR code owned by the authenticated shop.
func ListQRCodes(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, svc, logg)
		if !ok {
			return
		}

		views, err := svc.List(r.Context(), shop)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

// GetQRCode returns a single QR code owned by the authenticated shop.
func GetQRCode(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, svc, logg)
		if !ok {
			return
		}

		id, err := qrCodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), shop, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CreateQRCode stores a new QR code for the authenticated shop.
func CreateQRCode(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, svc, logg)
		if !ok {
			return
		}

		var payload qrCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), shop, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// UpdateQRCode replaces the writable fields of an existing QR code.
func UpdateQRCode(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, svc, logg)
		if !ok {
			return
		}

		id, err := qrCodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload qrCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), shop, id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// DeleteQRCode removes a QR code owned by the authenticated shop.
func DeleteQRCode(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop, ok := requireShop(w, r, svc, logg)
		if !ok {
			return
		}

		id, err := qrCodeID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), shop, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

type qrCodeRequest struct {
	Title             string   `json:"title"`
	ProductID         string   `json:"product_id"`
	ProductHandle     string   `json:"product_handle"`
	ProductVariantIDs []string `json:"product_variant_ids"`
	Destination       string   `json:"destination"`
}

func (r qrCodeRequest) toInput() qrsvc.QRCodeInput {
	return qrsvc.QRCodeInput{
		Title:             r.Title,
		ProductID:         r.ProductID,
		ProductHandle:     r.ProductHandle,
		ProductVariantIDs: r.ProductVariantIDs,
		Destination:       r.Destination,
	}
}

func requireShop(w http.ResponseWriter, r *http.Request, svc qrsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "qr code service unavailable"))
		return "", false
	}
	shop := middleware.ShopDomainFromContext(r.Context())
	if shop == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "shop context missing"))
		return "", false
	}
	return shop, true
}

func qrCodeID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid qr code id")
	}
	return id, nil
}
