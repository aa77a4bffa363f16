package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/news-api/internal/apperr"
	"github.com/iliyamo/news-api/internal/auth"
)

// Authenticate gates every request through the authenticator. Admitted
// requests carry the verified identity in the context; every rejection is
// the same 401 whatever the reason. metrics may be nil.
func Authenticate(a *auth.Authenticator, log logrus.FieldLogger, metrics *Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := a.Authenticate(req.Context(), req.Method, req.URL.Path, req.Header.Get(echo.HeaderAuthorization))
			if metrics != nil {
				metrics.AuthDecisionsTotal.WithLabelValues(res.Decision.String(), string(res.Reason)).Inc()
			}

			if !res.Admitted() {
				entry := log.WithFields(logrus.Fields{
					"reason":     res.Reason,
					"method":     req.Method,
					"uri":        req.RequestURI,
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				})
				if res.Err != nil {
					entry = entry.WithError(res.Err)
				}
				if res.Reason == auth.ReasonLedgerUnavailable {
					entry.Error("revocation ledger unavailable, rejecting request")
				} else {
					entry.Warn("request rejected by authenticator")
				}
				return apperr.Unauthorised()
			}

			if res.Claims != nil {
				c.Set(identityKey, res.Claims.Identity())
				c.Set(claimsKey, res.Claims)
			}
			return next(c)
		}
	}
}
