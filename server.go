package colexpr

import (
	"fmt"

	"google.golang.org/grpc"

	"github.com/hugr-lab/colexpr/auth"
	"github.com/hugr-lab/colexpr/flight"
)

// NewServer registers the filter/project Flight service on grpcServer.
//
// The function:
//  1. Validates the ServerConfig
//  2. Creates the Flight service over the config's Engine
//  3. Registers it on grpcServer
//
// Returns error if config is invalid (e.g., nil Engine).
// Does NOT start the gRPC server; the caller controls its lifecycle via grpcServer.Serve().
//
// For authentication, create the gRPC server with ServerOptions():
//
//	config := colexpr.ServerConfig{Engine: engine, Auth: colexpr.BearerAuth(validate)}
//	grpcServer := grpc.NewServer(colexpr.ServerOptions(config)...)
//	if err := colexpr.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	// Validate configuration
	if err := validateServerConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	engine := config.Engine

	// Create Flight server sharing the engine's allocator, logger and plan cache
	flightServer := flight.NewServer(engine, engine.Allocator(), engine.Logger(), config.Codec)

	// Register Flight service
	flight.RegisterFlightServer(grpcServer, flightServer)

	// Log successful registration
	engine.Logger().Info("Flight exchange server registered",
		"has_auth", config.Auth != nil,
		"codec", config.Codec.String(),
		"max_message_size", config.MaxMessageSize,
	)
	return nil
}

// validateServerConfig checks that required ServerConfig fields are set.
func validateServerConfig(config ServerConfig) error {
	if config.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	return nil
}

// ServerOptions returns gRPC server options for config.
// Pass them to grpc.NewServer before calling NewServer.
//
// The options include:
//   - unary and stream authentication interceptors when config.Auth is set
//   - receive and send message size limits when config.MaxMessageSize > 0
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var opts []grpc.ServerOption

	// Add auth interceptors if configured
	if config.Auth != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(auth.UnaryServerInterceptor(config.Auth)),
			grpc.StreamInterceptor(auth.StreamServerInterceptor(config.Auth)),
		)
	}

	// Batches larger than the gRPC default of 4MB need a raised limit
	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
