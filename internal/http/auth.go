package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

const GuestHeader = "X-Guest-ID"

type contextKey string

const (
	principalKey contextKey = "principal"
	requestIDKey contextKey = "request_id"
)

type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.StandardClaims
}

// Principal is the caller of a request: a signed-in user or a guest session.
type Principal struct {
	ID    string
	Role  domain.Role
	Guest bool
}

func (p Principal) Actor() domain.Actor {
	return domain.Actor{ID: p.ID, Role: p.Role}
}

func GenerateToken(secret, userID string, role domain.Role, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user_id")
	}
	if claims.Role != domain.RoleBuyer && claims.Role != domain.RoleSeller {
		return nil, fmt.Errorf("token has unknown role %q", claims.Role)
	}
	return claims, nil
}

// AuthMiddleware resolves the caller. A bearer token wins over a guest header;
// requests with neither pass through anonymous and are rejected by the routes
// that need a principal.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				tokenParts := strings.Split(authHeader, " ")
				if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
					respondError(w, r, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
					return
				}
				claims, err := ValidateToken(secret, tokenParts[1])
				if err != nil {
					respondError(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
					return
				}
				p := Principal{ID: claims.UserID, Role: claims.Role}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
				return
			}

			if guest := strings.TrimSpace(r.Header.Get(GuestHeader)); guest != "" {
				if !domain.IsGuestBuyer(guest) {
					guest = domain.GuestPrefix + guest
				}
				p := Principal{ID: guest, Role: domain.RoleBuyer, Guest: true}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func RequireBuyer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFromContext(r.Context()); !ok {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFromContext(r.Context())
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		if p.Role != domain.RoleSeller {
			respondError(w, r, http.StatusForbidden, "forbidden", "seller account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
