package auth

import "context"

// Authorize is the access gate consulted before every lifecycle mutation and
// role-scoped read. It resolves the identity from ctx and checks it against
// the required capability. Idempotent, no side effects.
//
// Fails with ErrUnauthenticated when no identity is present and ErrForbidden
// when the identity lacks the capability.
func Authorize(ctx context.Context, required Capability) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return Identity{}, ErrUnauthenticated
	}
	if !identity.Allows(required) {
		return Identity{}, ErrForbidden
	}
	return identity, nil
}
