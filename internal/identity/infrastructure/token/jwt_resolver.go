// Package token resolves signed bearer tokens without a session store.
package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/identity/domain"
)

// Claims are the venturebridge JWT claims. Subject is the user id and
// Role the marketplace role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTResolver validates HS256 tokens with a shared secret. Stateless:
// nothing to look up, nothing to revoke before expiry.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Issue signs a token for the identity, valid for ttl.
func (r *JWTResolver) Issue(identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(identity.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Resolve implements domain.Resolver.
func (r *JWTResolver) Resolve(_ context.Context, tokenStr string) (*domain.Identity, error) {
	if tokenStr == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Identity{UserID: userID, Role: role}, nil
}
