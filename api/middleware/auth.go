package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/shopqr-backend/api/responses"
	"github.com/angelmondragon/shopqr-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopqr-backend/pkg/errors"
	"github.com/angelmondragon/shopqr-backend/pkg/logger"
	"github.com/angelmondragon/shopqr-backend/pkg/shopify"
)

// Auth validates an App Bridge session token and seeds the request context
// with the shop it was minted for.
func Auth(cfg config.ShopifyConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := shopify.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			shop := claims.ShopDomain()
			ctx := context.WithValue(r.Context(), ctxShopDomain, shop)
			if claims.Subject != "" {
				ctx = context.WithValue(ctx, ctxActorID, claims.Subject)
			}

			if logg != nil {
				ctx = logg.WithShopDomain(ctx, shop)
				if claims.Subject != "" {
					ctx = logg.WithField(ctx, "actor_id", claims.Subject)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
