package auth

import (
	"context"
	"time"

	"github.com/hongminglow/storefront-be/internal/models"
)

// Identity is what a valid session token proves about the caller.
type Identity struct {
	UserID    string
	Role      models.Role
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

type ctxKey int

const identityKey ctxKey = 1

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity stored by WithIdentity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
