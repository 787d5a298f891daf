package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	billingApp "github.com/venturebridge/venturebridge/internal/billing/application"
	billingDomain "github.com/venturebridge/venturebridge/internal/billing/domain"
	identityDomain "github.com/venturebridge/venturebridge/internal/identity/domain"
	"github.com/venturebridge/venturebridge/pkg/observability"
)

type identityKey struct{}

type entitlementKey struct{}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (identityDomain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identityDomain.Identity)
	return id, ok
}

// EntitlementFromContext returns the caller's evaluated entitlement,
// if one was attached upstream.
func EntitlementFromContext(ctx context.Context) (billingDomain.Entitlement, bool) {
	ent, ok := ctx.Value(entitlementKey{}).(billingDomain.Entitlement)
	return ent, ok
}

// AuthMiddleware resolves bearer credentials and enforces the access
// gate in front of the marketplace surface.
type AuthMiddleware struct {
	resolver  identityDomain.Resolver
	lifecycle *billingApp.LifecycleManager
	logger    *slog.Logger
	metrics   observability.Metrics
}

func NewAuthMiddleware(
	resolver identityDomain.Resolver,
	lifecycle *billingApp.LifecycleManager,
	logger *slog.Logger,
	metrics observability.Metrics,
) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, lifecycle: lifecycle, logger: logger, metrics: metrics}
}

// Authenticate resolves the Authorization header into an identity and
// attaches it, plus request-scoped correlation ids, to the context.
func (m *AuthMiddleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		identity, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			writeDomainError(w, identityDomain.ErrUnauthenticated)
			return
		}

		ctx := observability.NewRequestContext(r.Context(), r.Header.Get("X-Correlation-ID"))
		ctx = observability.WithUserID(ctx, identity.UserID.String())
		ctx = context.WithValue(ctx, identityKey{}, *identity)
		next(w, r.WithContext(ctx))
	}
}

// WithEntitlement evaluates the sponsor's entitlement once per request
// and attaches it to the context for downstream handlers. Proposers
// are not subscription-gated and pass through untouched.
func (m *AuthMiddleware) WithEntitlement(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeDomainError(w, identityDomain.ErrUnauthenticated)
			return
		}

		if identity.Role == identityDomain.RoleSponsor {
			ent, err := m.lifecycle.EntitlementFor(r.Context(), identity.UserID)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "entitlement check failed",
					"user_id", identity.UserID, "error", err)
				writeDomainError(w, err)
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), entitlementKey{}, ent))
		}
		next(w, r)
	}
}

// RequireEntitlement is the access gate on interaction endpoints.
// Sponsors must hold an active subscription to pass; it reads the
// entitlement WithEntitlement attached. Expired subscriptions are
// denied here without being mutated.
func (m *AuthMiddleware) RequireEntitlement(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeDomainError(w, identityDomain.ErrUnauthenticated)
			return
		}

		if identity.Role == identityDomain.RoleSponsor {
			ent, ok := EntitlementFromContext(r.Context())
			if !ok {
				var err error
				ent, err = m.lifecycle.EntitlementFor(r.Context(), identity.UserID)
				if err != nil {
					m.logger.ErrorContext(r.Context(), "entitlement check failed",
						"user_id", identity.UserID, "error", err)
					writeDomainError(w, err)
					return
				}
			}
			if !ent.Active {
				writeError(w, http.StatusForbidden, "subscription_required",
					"An active subscription is required")
				return
			}
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
