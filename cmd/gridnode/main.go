package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studio-grid/kernel/kernel"
	"github.com/studio-grid/kernel/observability"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to node config JSON file (required)")
		listenAddr = flag.String("listen", "", "Probe listen address (overrides config)")
		nodeName   = flag.String("name", "", "Node name (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: gridnode -config <file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := kernel.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *listenAddr != "" {
		cfg.Probes.Addr = *listenAddr
	}
	if *nodeName != "" {
		cfg.Node.Name = *nodeName
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	promObserver, err := observability.NewPromObserver(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("Failed to create metrics observer: %v", err)
	}
	observer := observability.NewMultiObserver(
		observability.NewSlogObserver(logger),
		promObserver,
	)

	k, err := kernel.New(cfg, kernel.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create kernel: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phase, failures := k.Start(ctx)
	if len(failures) > 0 {
		for _, f := range failures {
			logger.Error("hook failed", "hook", f.Hook, "phase", f.Phase.String(), "error", f.Err)
		}
		log.Fatalf("Startup failed, final phase: %s", phase)
	}

	logger.Info("node running",
		"node", k.Node().Name,
		"node_id", string(k.Node().NodeID),
		"instance_id", string(k.Node().InstanceID),
		"probes", cfg.Probes.Addr,
	)

	<-ctx.Done()
	stop()

	phase, failures = k.Stop(context.Background())
	for _, f := range failures {
		logger.Error("shutdown hook failed", "hook", f.Hook, "error", f.Err)
	}
	logger.Info("node stopped", "phase", phase.String())
}
