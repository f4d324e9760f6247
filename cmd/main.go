// Package main is the entry point of a discovery node. It loads configuration (env + optional YAML),
// picks the transport (adapters.NewTransport), builds the discovery engine (service.NewDiscover) and
// exposes the peer table over HTTP (echo) and the node health over gRPC. On SIGINT/SIGTERM it announces
// its departure, then stops both servers.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"

	"github.com/ezloteam/cote/adapters"
	"github.com/ezloteam/cote/domain"
	"github.com/ezloteam/cote/handlers"
	"github.com/ezloteam/cote/service"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		level.Error(newLogger(os.Stderr, defaultLogLevel)).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)

	hostName, err := cfg.hostName()
	if err != nil {
		level.Error(logger).Log("msg", "cannot determine host name", "err", err)
		os.Exit(1)
	}
	identity := domain.NewIdentity(hostName, "")
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"hostname", identity.HostName,
		"iid", identity.InstanceID,
		"service_port_http", cfg.HTTPPort,
		"service_port_grpc", cfg.GRPCPort,
		"reuse_addr", cfg.reuseAddr(),
	)

	var discover *service.Discover
	{
		transport, err := adapters.NewTransport(cfg.Discover, identity, logger)
		if err != nil {
			level.Error(logger).Log("msg", "failed to create transport", "err", err)
			os.Exit(1)
		}
		discover, err = service.NewDiscover(
			cfg.Discover, transport, identity, logger,
			service.WithTimeProvider(service.NewTimeProvider(func() time.Time { return time.Now().UTC() })),
		)
		if err != nil {
			level.Error(logger).Log("msg", "invalid discover settings", "err", err)
			os.Exit(1)
		}
		discover.Subscribe(logNodeEvent(logger))
	}

	grpcServer, healthServer := newGRPCServer()
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		level.Error(logger).Log("msg", "failed to listen", "err", err)
		os.Exit(1)
	}
	go func() {
		level.Info(logger).Log("msg", "starting gRPC server", "addr", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			level.Error(logger).Log("msg", "gRPC server error", "err", err)
		}
	}()

	var e *echo.Echo
	{
		e = echo.New()
		e.HideBanner = true
		e.HidePort = true
		service.RegisterErrorHandler(e, logger)
		handlers.RegisterHandlers(e, handlers.NewHTTPServer(discover, logger))
	}
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		level.Info(logger).Log("msg", "starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			level.Error(logger).Log("msg", "HTTP server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := discover.Start(startCtx); err != nil {
		startCancel()
		level.Error(logger).Log("msg", "failed to start discovery", "err", err)
		grpcServer.Stop()
		os.Exit(1)
	}
	startCancel()
	setServing(healthServer, true)
	level.Info(logger).Log("msg", "discovery started")

	<-quit
	level.Info(logger).Log("msg", "shutting down")
	setServing(healthServer, false)
	discover.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		level.Error(logger).Log("msg", "error during HTTP server shutdown", "err", err)
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		grpcServer.Stop()
	}
	level.Info(logger).Log("msg", "node stopped")
}

// logNodeEvent logs membership changes at info, hellos at debug and engine errors at error.
func logNodeEvent(logger log.Logger) func(domain.NodeEvent) {
	logger = log.With(logger, "component", "events")
	return func(ev domain.NodeEvent) {
		switch ev.Kind {
		case domain.NodeAdded, domain.NodeRemoved:
			level.Info(logger).Log("msg", "node "+ev.Kind.String(), "id", ev.Node.ID, "hostname", ev.Node.HostName, "weight", ev.Node.Weight)
		case domain.DiscoverError:
			level.Error(logger).Log("msg", "discovery error", "err", ev.Err)
		case domain.ChannelMessage:
			level.Debug(logger).Log("msg", "channel message", "channel", ev.Channel, "sender", ev.SenderID)
		default:
			level.Debug(logger).Log("msg", ev.Kind.String(), "id", ev.Node.ID)
		}
	}
}
