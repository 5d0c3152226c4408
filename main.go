package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"i4.energy/across/lteproxy/modem"
	"i4.energy/across/lteproxy/proxy"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", modem.DefaultBaudRate, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:80", "Bind address for the front end")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("apn", "CTNET", "Packet-domain APN")
	flag.String("default-host", "www.gzxxzlk.com", "Origin fetched when a request names no URL")
	flag.String("default-path", "/", "Path fetched when a request names no URL")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	modemConfig, err := modem.NewConfigBuilder().
		WithLogger(logger.With("component", "modem")).
		WithAPN(config.APN).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			Mode:     &serial.Mode{BaudRate: config.BaudRate},
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	engine, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem engine", "error", err)
		os.Exit(1)
	}

	coordinator := proxy.NewCoordinator()
	server := &Server{
		Logger: logger.With("component", "server"),
		Parser: proxy.Parser{
			DefaultHost: config.DefaultHost,
			DefaultPath: config.DefaultPath,
		},
		Coordinator: coordinator,
	}

	listener, err := net.Listen("tcp", config.BindAddress)
	if err != nil {
		logger.Error("Failed to listen", "address", config.BindAddress, "error", err)
		os.Exit(1)
	}

	logger.Info("Starting LTE proxy gateway", "address", config.BindAddress, "serial_port", config.SerialPort)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return engine.Run(gctx, coordinator)
	})
	group.Go(func() error {
		return server.Serve(gctx, listener)
	})
	group.Go(func() error {
		<-gctx.Done()
		return listener.Close()
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, net.ErrClosed) {
		logger.Error("Gateway stopped", "error", err)
	}

	logger.Info("Closing modem connection")
	if err := engine.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}
}
