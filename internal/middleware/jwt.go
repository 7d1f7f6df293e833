package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lpg-distribution/internal/model"
)

// actorContextKey is where the resolved identity lives in the echo context.
const actorContextKey = "actor"

// JWTAuth validates a Bearer access token and resolves the caller into a
// model.Actor stored in the request context.  Role normalization happens
// here, once, via model.ParseRole; handlers downstream consult the actor
// and never re-normalize.  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid claims"})
			}

			actor := model.Actor{
				ID:         claimUint64(claims, "sub"),
				Email:      claimString(claims, "email"),
				Role:       model.ParseRole(claimString(claims, "role")),
				AgencyID:   claimString(claims, "agency_id"),
				CustomerID: claimString(claims, "customer_id"),
				EmployeeID: claimString(claims, "employee_id"),
			}
			if actor.ID == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "invalid subject"})
			}
			c.Set(actorContextKey, actor)
			// String user id kept for rate-limit keying.
			c.Set("user_id", claimString(claims, "sub"))
			return next(c)
		}
	}
}

// ActorFrom returns the resolved identity, or false when none is present
// (e.g. the route skipped JWTAuth).
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(actorContextKey).(model.Actor)
	return a, ok
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	default:
		return ""
	}
}

func claimUint64(claims jwt.MapClaims, key string) uint64 {
	switch v := claims[key].(type) {
	case float64:
		return uint64(v)
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
