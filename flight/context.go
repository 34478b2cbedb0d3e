package flight

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/hugr-lab/colexpr/auth"
)

// Metadata header keys for request correlation.
const (
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "colexpr-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "colexpr-client-session-id"
)

// RequestMeta identifies one call in the logs.
type RequestMeta struct {
	TraceID   string
	SessionID string
	Identity  string
}

// RequestMetaFromContext reads the correlation headers of an incoming call.
// A trace ID is generated when the client sends none.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta := RequestMeta{Identity: auth.IdentityFromContext(ctx)}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(HeaderTraceID); len(values) > 0 {
			meta.TraceID = values[0]
		}
		if values := md.Get(HeaderSessionID); len(values) > 0 {
			meta.SessionID = values[0]
		}
	}
	if meta.TraceID == "" {
		meta.TraceID = uuid.NewString()
	}
	return meta
}

// Logger returns logger annotated with the request attributes.
func (m RequestMeta) Logger(logger *slog.Logger) *slog.Logger {
	attrs := []any{"trace_id", m.TraceID}
	if m.SessionID != "" {
		attrs = append(attrs, "session_id", m.SessionID)
	}
	if m.Identity != "" {
		attrs = append(attrs, "identity", m.Identity)
	}
	return logger.With(attrs...)
}
