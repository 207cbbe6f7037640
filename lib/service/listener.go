// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ListenerConfig configures a Listener.
type ListenerConfig struct {
	// Name labels log lines, e.g. "realtime" or "webhook".
	Name string

	// Address is the TCP address to bind. Port 0 picks a free port.
	Address string

	Handler http.Handler
	Logger  *slog.Logger

	// Streaming drops the read and write timeouts. Hijacked websocket
	// connections keep whatever deadlines were armed before the
	// upgrade, so the realtime listener needs it.
	Streaming bool

	// ShutdownTimeout bounds the drain of in-flight requests.
	// Defaults to 10 seconds.
	ShutdownTimeout time.Duration
}

// Listener is one HTTP endpoint of a kanban binary.
type Listener struct {
	config ListenerConfig
	logger *slog.Logger
	bound  chan struct{}
	addr   net.Addr
}

// NewListener panics when Address, Handler or Logger is missing.
func NewListener(config ListenerConfig) *Listener {
	switch {
	case config.Address == "":
		panic("service.Listener: Address is required")
	case config.Handler == nil:
		panic("service.Listener: Handler is required")
	case config.Logger == nil:
		panic("service.Listener: Logger is required")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	return &Listener{
		config: config,
		logger: config.Logger.With("listener", config.Name),
		bound:  make(chan struct{}),
	}
}

// Bound is closed once the socket is bound.
func (l *Listener) Bound() <-chan struct{} {
	return l.bound
}

// Addr is the bound address. Valid after Bound is closed.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Serve binds and serves until ctx is done, then drains in-flight
// requests for up to ShutdownTimeout.
func (l *Listener) Serve(ctx context.Context) error {
	socket, err := net.Listen("tcp", l.config.Address)
	if err != nil {
		return fmt.Errorf("%s listener: %w", l.config.Name, err)
	}
	l.addr = socket.Addr()
	close(l.bound)

	server := &http.Server{
		Handler:           l.config.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if !l.config.Streaming {
		server.ReadTimeout = 30 * time.Second
		server.WriteTimeout = 30 * time.Second
	}

	failed := make(chan error, 1)
	go func() {
		failed <- server.Serve(socket)
	}()
	l.logger.Info("listening", "address", l.addr.String(), "streaming", l.config.Streaming)

	select {
	case err := <-failed:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s listener: %w", l.config.Name, err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), l.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("%s listener shutdown: %w", l.config.Name, err)
	}
	l.logger.Info("stopped")
	return nil
}

// RunAll serves every listener until ctx is done or one of them stops.
// The first to stop takes the others down. Errors are joined.
func RunAll(ctx context.Context, listeners ...*Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan error, len(listeners))
	for _, listener := range listeners {
		go func() {
			stopped <- listener.Serve(ctx)
		}()
	}

	var errs []error
	for range listeners {
		if err := <-stopped; err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	return errors.Join(errs...)
}
