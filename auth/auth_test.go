package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestNoAuth(t *testing.T) {
	identity, err := NoAuth().Authenticate(context.Background(), "")
	if err != nil || identity != "anonymous" {
		t.Errorf("expected anonymous, got %q, %v", identity, err)
	}
}

func TestStaticToken(t *testing.T) {
	a := StaticToken("s3cret", "cli")
	if id, err := a.Authenticate(context.Background(), "s3cret"); err != nil || id != "cli" {
		t.Errorf("expected cli, got %q, %v", id, err)
	}
	if _, err := a.Authenticate(context.Background(), "guess"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBearerAuthConcurrency(t *testing.T) {
	a := BearerAuth(func(token string) (string, error) {
		if token == "valid" {
			return "user", nil
		}
		return "", ErrUnauthorized
	})

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := "valid"
			if i%2 == 1 {
				token = "invalid"
			}
			id, err := a.Authenticate(context.Background(), token)
			if (err == nil) != (token == "valid") || (err == nil && id != "user") {
				errs <- errors.New("unexpected result for " + token)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		code   codes.Code
	}{
		{"bearer", "Bearer abc", "abc", codes.OK},
		{"basic scheme", "Basic abc", "", codes.Unauthenticated},
		{"empty token", "Bearer ", "", codes.Unauthenticated},
		{"no header", "", "", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.header != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.header))
			}
			got, err := ExtractToken(ctx)
			if status.Code(err) != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	interceptor := UnaryServerInterceptor(StaticToken("t", "tester"))
	handler := func(ctx context.Context, _ any) (any, error) {
		return IdentityFromContext(ctx), nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer t"))
	got, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{}, handler)
	if err != nil || got != "tester" {
		t.Errorf("expected tester, got %v, %v", got, err)
	}

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("expected Unauthenticated without token, got %v", err)
	}

	open := UnaryServerInterceptor(nil)
	if _, err := open(context.Background(), nil, &grpc.UnaryServerInfo{}, handler); err != nil {
		t.Errorf("nil authenticator should allow the call: %v", err)
	}
}
