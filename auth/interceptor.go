package auth

import (
	"context"

	"google.golang.org/grpc"
)

// UnaryServerInterceptor creates a gRPC unary interceptor for authentication.
// It validates the bearer token and propagates the identity via context.
// If no authenticator is provided, requests pass through without auth.
func UnaryServerInterceptor(authenticator Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		// If no authenticator, skip auth
		if authenticator == nil {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, authenticator)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor creates a gRPC stream interceptor for authentication.
// DoExchange and DoAction pass through it.
//
// The interceptor:
//  1. Extracts the bearer token from the stream metadata
//  2. Validates it with authenticator
//  3. Hands the handler a stream whose context carries the identity
func StreamServerInterceptor(authenticator Authenticator) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		// If no authenticator, skip auth
		if authenticator == nil {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), authenticator)
		if err != nil {
			return err
		}

		// Wrap the stream with authenticated context
		return handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
	}
}

// authenticate extracts the token from ctx and returns ctx with the identity attached.
func authenticate(ctx context.Context, authenticator Authenticator) (context.Context, error) {
	// Extract token from metadata
	token, err := ExtractToken(ctx)
	if err != nil {
		return ctx, err
	}
	return Authorize(ctx, token, authenticator)
}

// identityStream overrides the stream context with the authenticated one.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the authenticated context.
func (s *identityStream) Context() context.Context { return s.ctx }
