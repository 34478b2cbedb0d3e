// Package auth authenticates Flight exchange requests with bearer tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrUnauthorized is returned by authenticators for rejected tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator validates bearer tokens and returns the caller identity.
// Implementations MUST be goroutine-safe.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

type noAuthenticator struct{}

// NoAuth returns an Authenticator that accepts every token as "anonymous".
// For development and tests only.
func NoAuth() Authenticator { return noAuthenticator{} }

func (noAuthenticator) Authenticate(context.Context, string) (string, error) {
	return "anonymous", nil
}

type bearerAuthenticator struct {
	validate func(token string) (string, error)
}

// BearerAuth adapts a validation function to an Authenticator.
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{validate: validate}
}

func (b *bearerAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	return b.validate(token)
}

type staticToken struct {
	token    []byte
	identity string
}

// StaticToken accepts a single shared token and reports identity for it.
func StaticToken(token, identity string) Authenticator {
	return &staticToken{token: []byte(token), identity: identity}
}

func (s *staticToken) Authenticate(_ context.Context, token string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(token), s.token) != 1 {
		return "", ErrUnauthorized
	}
	return s.identity, nil
}

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated identity, or "" if there is none.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

const bearerPrefix = "Bearer "

// ExtractToken reads the bearer token of the "authorization" header.
// It returns "" when the header is absent.
func ExtractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}
	headers := md.Get("authorization")
	if len(headers) == 0 {
		return "", nil
	}
	if !strings.HasPrefix(headers[0], bearerPrefix) {
		return "", status.Error(codes.Unauthenticated, "authorization header must use Bearer scheme")
	}
	token := strings.TrimPrefix(headers[0], bearerPrefix)
	if token == "" {
		return "", status.Error(codes.Unauthenticated, "bearer token is empty")
	}
	return token, nil
}

// Authorize validates token and returns ctx carrying the identity.
// Failures are Unauthenticated gRPC statuses.
func Authorize(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, fmt.Sprintf("invalid token: %v", err))
	}
	return WithIdentity(ctx, identity), nil
}
