package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ActorKey is the echo context key holding the verified actor id.
const ActorKey = "actor_id"

// BearerAuth verifies an HS256 token from the Authorization header and stores
// its subject as the actor id.
func BearerAuth(secret []byte) echo.MiddlewareFunc {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return unauthorized(c, "missing authorization header")
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "invalid authorization header format")
			}

			token, err := jwt.Parse(strings.TrimSpace(auth[7:]), keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithLeeway(30*time.Second),
			)
			if err != nil {
				return unauthorized(c, classifyJWTError(err))
			}
			sub, err := token.Claims.GetSubject()
			if err != nil || strings.TrimSpace(sub) == "" {
				return unauthorized(c, "token has no subject")
			}

			c.Set(ActorKey, sub)
			return next(c)
		}
	}
}

// ActorID returns the actor id set by BearerAuth, or "".
func ActorID(c echo.Context) string {
	v, _ := c.Get(ActorKey).(string)
	return v
}

// IssueToken signs a token for sub. Used by tooling and tests.
func IssueToken(secret []byte, sub string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func classifyJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "disallowed signing algorithm"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	default:
		return "invalid token"
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg, "code": "unauthorized"})
}
