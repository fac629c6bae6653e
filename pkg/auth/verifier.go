// Package auth verifies bearer tokens issued by the external auth service.
// Issuance, password handling and role checks live in that service; this
// package only establishes who the acting user is so movements can record it.
package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vidaplus/vidaplus-backend/pkg/actor"
	"github.com/vidaplus/vidaplus-backend/pkg/config"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/httputil"
)

// Claims represents the JWT claims the auth service puts in access tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Verifier validates access tokens against the auth service's signing secret
type Verifier struct {
	config *config.JWTConfig
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{config: cfg}
}

// Verify parses and validates an access token, returning its claims
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("unexpected signing method")
		}
		return []byte(v.config.Secret), nil
	}, jwt.WithIssuer(v.config.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Unauthorized("token has expired")
		}
		return nil, errors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Unauthorized("invalid token")
	}

	return claims, nil
}

// Actor converts verified claims to an acting principal
func (c *Claims) Actor() *actor.Actor {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return &actor.Actor{
		ID:       id,
		Email:    c.Email,
		RoleName: c.Role,
	}
}

// Middleware attaches the acting user to the request context when a bearer
// token is present. Requests without a token proceed anonymously; movements
// they admit simply carry no user reference. A token that is present but
// fails verification is rejected.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				httputil.Error(w, errors.Unauthorized("authorization header must use the Bearer scheme"))
				return
			}

			claims, err := v.Verify(tokenString)
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := actor.WithActor(r.Context(), claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
