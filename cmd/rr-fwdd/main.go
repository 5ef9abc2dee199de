package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/common/clock"
	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/config"
	"github.com/haukened/rr-fwd/internal/dns/gateways/transport"
	"github.com/haukened/rr-fwd/internal/dns/gateways/upstream"
	"github.com/haukened/rr-fwd/internal/dns/gateways/wire"
	"github.com/haukened/rr-fwd/internal/dns/repos/dnscache"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-fwdd"

	defaultShutdownTimeout = 10 * time.Second
)

// snapshotter is implemented by caches that persist across restarts.
type snapshotter interface {
	SaveSnapshot(path string) (int, error)
	LoadSnapshot(path string) (int, error)
}

// Application holds all the components of the DNS forwarder.
type Application struct {
	config    *config.AppConfig
	transport resolver.ServerTransport
	resolver  *resolver.Resolver
	cache     resolver.Cache
	blocklist *loadedBlocklist
	logger    log.Logger
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Argument error: %v\n", err)
		os.Exit(2)
	}
	if opts.Version {
		fmt.Printf("%s %s\n", appName, version)
		return
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"cache_size": cfg.CacheSize,
		"upstream":   cfg.Upstream,
	}, "Starting RR-FWD server")

	app, err := buildApplication(cfg, log.GetLogger())
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "Server failed")
	}

	log.Info(nil, "RR-FWD server stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (*Application, error) {
	clk := clock.RealClock{}

	codec := wire.NewUDPCodec(log.WithComponent(logger, "wire"))

	cache, err := buildCache(cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	bl, err := loadBlocklist(cfg, log.WithComponent(logger, "blocklist"))
	if err != nil {
		return nil, fmt.Errorf("failed to load blocklist: %w", err)
	}
	blockRCode, err := resolver.ParseBlockStrategy(cfg.BlocklistStrategy)
	if err != nil {
		return nil, err
	}

	forwarder, err := upstream.NewForwarder(upstream.Options{
		Servers:    cfg.Upstream,
		Timeout:    cfg.UpstreamTimeout,
		Parallel:   cfg.Parallel,
		BufferSize: cfg.BufferSize,
		Logger:     log.WithComponent(logger, "upstream"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}
	logger.Info(map[string]any{
		"servers":  cfg.Upstream,
		"timeout":  cfg.UpstreamTimeout.String(),
		"parallel": cfg.Parallel,
	}, "Upstream DNS client configured")

	res := resolver.NewResolver(resolver.ResolverOptions{
		Codec:      codec,
		Cache:      cache,
		Blocklist:  bl.decider(),
		Upstream:   forwarder,
		Clock:      clk,
		Logger:     log.WithComponent(logger, "resolver"),
		BlockRCode: blockRCode,
	})

	udp, err := transport.NewTransport(transport.TransportUDP, transport.Options{
		Addr:       cfg.ListenAddr(),
		BufferSize: cfg.BufferSize,
		Workers:    cfg.Workers,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		Logger:     log.WithComponent(logger, "transport"),
	})
	if err != nil {
		return nil, err
	}

	return &Application{
		config:    cfg,
		transport: udp,
		resolver:  res,
		cache:     cache,
		blocklist: bl,
		logger:    logger,
	}, nil
}

// buildCache creates the answer cache and restores a snapshot if configured.
func buildCache(cfg *config.AppConfig, clk clock.Clock, logger log.Logger) (resolver.Cache, error) {
	if cfg.DisableCache {
		logger.Info(map[string]any{"disabled": true}, "DNS response caching disabled")
		return dnscache.NoopCache{}, nil
	}
	cache, err := dnscache.New(cfg.CacheSize, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info(map[string]any{"type": "LRU", "size": cfg.CacheSize}, "DNS response cache configured")

	if cfg.SnapshotPath != "" {
		n, err := cache.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			// A bad snapshot only costs a cold cache.
			logger.Warn(map[string]any{"path": cfg.SnapshotPath, "error": err.Error()}, "Failed to restore cache snapshot")
		} else {
			logger.Info(map[string]any{"path": cfg.SnapshotPath, "entries": n}, "Cache snapshot restored")
		}
	}
	return cache, nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	app.logger.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
	}, "DNS server started")

	<-ctx.Done()
	app.logger.Info(nil, "Shutdown initiated")
	return app.shutdown()
}

// shutdown stops the transport, then persists and releases state. It gives
// up waiting on the transport after defaultShutdownTimeout.
func (app *Application) shutdown() error {
	done := make(chan error, 1)
	go func() { done <- app.transport.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			app.logger.Warn(map[string]any{"error": err.Error()}, "Error during transport shutdown")
		}
	case <-time.After(defaultShutdownTimeout):
		app.logger.Warn(map[string]any{"timeout": defaultShutdownTimeout.String()}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}

	if s, ok := app.cache.(snapshotter); ok && app.config.SnapshotPath != "" {
		n, err := s.SaveSnapshot(app.config.SnapshotPath)
		if err != nil {
			app.logger.Warn(map[string]any{"path": app.config.SnapshotPath, "error": err.Error()}, "Failed to save cache snapshot")
		} else {
			app.logger.Info(map[string]any{"path": app.config.SnapshotPath, "entries": n}, "Cache snapshot saved")
		}
	}

	if err := app.blocklist.Close(); err != nil {
		app.logger.Warn(map[string]any{"error": err.Error()}, "Error closing blocklist store")
	}
	app.logger.Info(nil, "Graceful shutdown completed")
	return nil
}
