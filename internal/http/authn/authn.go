// Package authn authenticates service-to-service API calls.
package authn

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

const (
	// HeaderInternalToken carries the shared secret of internal callers.
	HeaderInternalToken = "X-Internal-Token"

	ContextKeyCaller = "auth_caller"

	callerInternal = "internal"
)

// RequireInternalToken rejects requests whose X-Internal-Token header does
// not equal token. An empty token rejects every request.
func RequireInternalToken(token string) echo.MiddlewareFunc {
	expected := []byte(strings.TrimSpace(token))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			if !TokenMatches(expected, c.Request().Header.Get(HeaderInternalToken)) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"code": "UNAUTHORIZED", "message": "unauthorized"})
			}
			c.Set(ContextKeyCaller, callerInternal)
			return next(c)
		}
	}
}

// TokenMatches compares in constant time.
func TokenMatches(expected []byte, presented string) bool {
	if len(expected) == 0 {
		return false
	}
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare(expected, []byte(presented)) == 1
}

// IsInternalCaller reports whether the request passed RequireInternalToken.
func IsInternalCaller(c *echo.Context) bool {
	caller, _ := c.Get(ContextKeyCaller).(string)
	return caller == callerInternal
}
