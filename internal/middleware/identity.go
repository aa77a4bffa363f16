package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/news-api/internal/auth"
)

// Context keys set by Authenticate.
const (
	identityKey = "identity"
	claimsKey   = "claims"
)

// CurrentIdentity returns the verified caller, if the request was admitted
// with a token.
func CurrentIdentity(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok && id.Username != ""
}

// CurrentClaims returns the verified token claims.
func CurrentClaims(c echo.Context) (*auth.Claims, bool) {
	cl, ok := c.Get(claimsKey).(*auth.Claims)
	return cl, ok && cl != nil
}

// currentUserID is the rate-limit key component; "anon" before login.
func currentUserID(c echo.Context) string {
	if id, ok := CurrentIdentity(c); ok {
		return id.Username
	}
	return "anon"
}
