package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopqr-backend/api/responses"
	qrsvc "github.com/angelmondragon/shopqr-backend/internal/qrcodes"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
	"github.com/angelmondragon/shopqr-backend/pkg/logger"
)

// ScanQRCode records a scan and redirects the scanner to the destination.
// This is the public endpoint encoded into every QR image, so it carries no
// auth; anything that is not a resolvable record reads as a missing
// destination rather than leaking what exists.
func ScanQRCode(svc qrsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "qr code service unavailable"))
			return
		}

		ctx := r.Context()
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Could not find QR code destination"))
			return
		}

		if logg != nil {
			ctx = logg.WithQRCodeID(ctx, id)
		}

		url, err := svc.Scan(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
