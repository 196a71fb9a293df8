package auth

import (
	"context"

	"github.com/mind-engage/edukid/internal/account"
)

// Identity is who is making the request. It is resolved once per request by
// Authenticate and read by handlers from the context only.
type Identity struct {
	UserID    int64
	Role      account.Role
	SessionID string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != 0
}
