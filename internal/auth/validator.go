package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hongminglow/storefront-be/internal/http/respond"
	"github.com/hongminglow/storefront-be/internal/metrics"
	"github.com/hongminglow/storefront-be/internal/models"
)

// Validator resolves session tokens into identities. It never consults the credential store:
// holding a valid token is what authorizes a request.
type Validator struct {
	tokens   *TokenManager
	channels *Channels
	metrics  *metrics.Auth
}

// NewValidator creates a Validator. m may be nil.
func NewValidator(tokens *TokenManager, channels *Channels, m *metrics.Auth) *Validator {
	return &Validator{tokens: tokens, channels: channels, metrics: m}
}

// Validate checks a raw token.
func (v *Validator) Validate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	return v.tokens.Parse(token)
}

// FromRequest validates the session carried on the given channels, in order.
// A token found on a channel must carry that channel's role.
func (v *Validator) FromRequest(r *http.Request, roles ...models.Role) (Identity, error) {
	result := error(ErrUnauthenticated)
	for _, role := range roles {
		ch, ok := v.channels.For(role)
		if !ok {
			continue
		}
		token, ok := ch.Token(r)
		if !ok {
			continue
		}
		id, err := v.Validate(token)
		if err != nil {
			result = err
			continue
		}
		if id.Role != role {
			result = fmt.Errorf("%w: %s token presented on %s channel", ErrInvalidToken, id.Role, role)
			continue
		}
		return id, nil
	}
	return Identity{}, result
}

// RequireSession rejects requests without a valid session on one of roles' channels
// and stores the identity in the request context.
func (v *Validator) RequireSession(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := v.FromRequest(r, roles...)
			if err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					v.metrics.SessionRejected("missing")
					respond.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
					return
				}
				v.metrics.SessionRejected("invalid_token")
				respond.Error(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalSession attaches the identity when a valid session is present and never rejects.
func (v *Validator) OptionalSession(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := v.FromRequest(r, roles...); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole wraps a handler and ensures the identity in context has role.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, ErrUnauthenticated.Error())
				return
			}
			if id.Role != role {
				respond.Error(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
