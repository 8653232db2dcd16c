package shopify

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/shopqr-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// SessionClaims are the claims carried by an embedded-app session token.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ShopDomain extracts the bare shop domain from the dest claim.
func (c *SessionClaims) ShopDomain() string {
	dest := strings.TrimSpace(c.Dest)
	dest = strings.TrimPrefix(dest, "https://")
	dest = strings.TrimPrefix(dest, "http://")
	return strings.TrimSuffix(dest, "/")
}

// ParseSessionToken validates a session token minted by Shopify App Bridge
// and returns its typed claims. The token must be signed with the app's API
// secret and addressed to the app's API key.
func ParseSessionToken(cfg config.ShopifyConfig, tokenString string) (*SessionClaims, error) {
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("shopify api secret is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("shopify api key is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.APISecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(cfg.APIKey),
	)
	if err != nil {
		return nil, err
	}

	if claims.ShopDomain() == "" {
		return nil, fmt.Errorf("session token missing dest claim")
	}

	return claims, nil
}
