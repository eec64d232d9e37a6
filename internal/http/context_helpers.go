package httpx

import (
	"context"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
)

// userKey is an unexported context key type to avoid collisions across packages.
type userKey struct{}

// SetUserInContext returns a child context carrying the verified user.
// Invalid statuses are not stored; the original ctx is returned unchanged.
func SetUserInContext(ctx context.Context, u domainauth.UserStatus) context.Context {
	if !u.IsValid {
		return ctx
	}
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user RequireAdmin verified for this request.
func UserFromContext(ctx context.Context) (domainauth.UserStatus, bool) {
	u, ok := ctx.Value(userKey{}).(domainauth.UserStatus)
	return u, ok
}
