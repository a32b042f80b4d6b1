package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextKeyUser holds the *models.JwtCustomClaims of the authenticated caller
const ContextKeyUser = "user"

var errUnexpectedSigningMethod = errors.New("unexpected signing method")

// JWTAuthMiddleware checks for a valid JWT in the Authorization header and extracts user claims.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	return jwtAuth(secret, bearerToken)
}

// JWTQueryAuthMiddleware also accepts the token as ?token=, for websocket clients that cannot set headers.
func JWTQueryAuthMiddleware(secret string) echo.MiddlewareFunc {
	return jwtAuth(secret, func(c echo.Context) (string, error) {
		if t := c.QueryParam("token"); t != "" {
			return t, nil
		}
		return bearerToken(c)
	})
}

func jwtAuth(secret string, extract func(echo.Context) (string, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := extract(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := ParseToken(secret, tokenString)
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Invalid Authorization header format")
	}
	return parts[1], nil
}

// ParseToken validates an HMAC-signed token and returns its claims
func ParseToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return []byte(secret), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
			return nil, jwt.ErrSignatureInvalid
		}
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
