package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the token payload accepted on mutating routes.
type AdminClaims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken issues an HS256 token with the ADMIN role. Used by
// operators and by tests.
func GenerateAdminToken(secret, sub string, ttl time.Duration) (string, error) {
	c := AdminClaims{
		Sub:  sub,
		Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString([]byte(secret))
}

func parseAdminToken(secret, tokenStr string) (*AdminClaims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := t.Claims.(*AdminClaims); ok && t.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// AdminAuthMiddleware guards mutating routes with a bearer token carrying
// the ADMIN role. An empty secret disables the guard, which keeps local
// setups and the open-by-default catalog working without tokens.
func AdminAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}

			claims, err := parseAdminToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil || claims.Role != "ADMIN" {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid bearer token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAdmin(r.Context(), claims.Sub)))
		})
	}
}
