package colexpr

import (
	"context"

	"github.com/hugr-lab/colexpr/auth"
)

// Authenticator validates bearer tokens and returns the caller identity.
type Authenticator = auth.Authenticator

// BearerAuth creates an Authenticator from a validation function.
//
//	a := colexpr.BearerAuth(func(token string) (string, error) {
//	    user, err := lookup(token)
//	    if err != nil {
//	        return "", colexpr.ErrUnauthorized
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validate)
}

// StaticToken accepts one shared token.
func StaticToken(token, identity string) Authenticator {
	return auth.StaticToken(token, identity)
}

// NoAuth allows every request. For development and tests only.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// IdentityFromContext returns the authenticated identity of a request, or "".
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
