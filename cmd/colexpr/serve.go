package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/hugr-lab/colexpr"
	"github.com/hugr-lab/colexpr/buffer"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filter and projection over Arrow Flight DoExchange",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", ":50051", "listen address")
	cmd.Flags().String("token", "", "bearer token required from clients; empty disables authentication")
	cmd.Flags().Int("max-message-size", 0, "maximum gRPC message size in bytes, 0 uses the gRPC default")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	codec, err := buffer.ParseCodec(s.Codec)
	if err != nil {
		return err
	}

	engine, err := newEngine(s)
	if err != nil {
		return err
	}
	defer engine.Close()

	config := colexpr.ServerConfig{
		Engine:         engine,
		Codec:          codec,
		MaxMessageSize: s.MaxMessage,
	}
	if s.Token != "" {
		config.Auth = colexpr.StaticToken(s.Token, "client")
	}

	grpcServer := grpc.NewServer(colexpr.ServerOptions(config)...)
	if err := colexpr.NewServer(grpcServer, config); err != nil {
		return err
	}

	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		engine.Logger().Info("Shutting down")
		grpcServer.GracefulStop()
	}()

	engine.Logger().Info("Flight exchange server listening", "addr", lis.Addr().String())
	return grpcServer.Serve(lis)
}
