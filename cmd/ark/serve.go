package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/ark/observability"
	"github.com/tailored-agentic-units/ark/observability/stream"
	"github.com/tailored-agentic-units/ark/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve FILE",
	Short: "Serve a document over Connect RPC",
	Long: `Serve a document as ark.v1.DocumentService (Get, Put, Patch).

The server runs until interrupted (Ctrl+C) or it receives SIGTERM. Store
events are forwarded to NATS and/or Redis Streams when the "events" section
of the config names a broker.

Example:
  ark serve data/app.json --addr 127.0.0.1:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger := newLogger(cmd)

	events, closeEvents, err := stream.New(&cfg.Events, observability.NewSlogObserver(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEvents(); err != nil {
			logger.Warn("failed to close event streams", "error", err)
		}
	}()

	s, err := openStore(cmd, cfg, events)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, server.NewService(s), logger)
	done, err := srv.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", s.Path(), srv.Addr())

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out", "timeout", shutdownTimeout.String())
			return context.DeadlineExceeded
		}
	}
}
