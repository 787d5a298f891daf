// Package domain defines who is calling the platform: capital-providing
// sponsors and idea-holding proposers.
package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Role distinguishes the two sides of the marketplace. Sponsors pay for
// visibility; proposers list ideas and respond to interest.
type Role string

const (
	RoleSponsor  Role = "sponsor"
	RoleProposer Role = "proposer"
)

func (r Role) IsValid() bool {
	return r == RoleSponsor || r == RoleProposer
}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// Resolver turns a bearer credential into an identity. Implementations
// exist for opaque session tokens backed by redis and for signed JWTs.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

var (
	// ErrUnknownRole is returned for a role outside the marketplace model.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnauthenticated is returned when a credential is missing, expired,
	// or malformed.
	ErrUnauthenticated = errors.New("unauthenticated")
)
