// devmapperd maintains the /dev namespace of device special files from
// kernel hotplug events read off the devctl channel.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"devmapperd/internal/attributes"
	"devmapperd/internal/config"
	"devmapperd/internal/devnode"
	"devmapperd/internal/eventloop"
	"devmapperd/internal/otel"
	"devmapperd/internal/registry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// setupTracing initializes the OTEL provider and the span attribute
// evaluator when tracing is enabled. Returns a nil tracer otherwise.
func setupTracing(cfg *config.Config) (trace.Tracer, *attributes.Evaluator, func(), error) {
	if !cfg.TracingEnabled {
		return nil, nil, func() {}, nil
	}

	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	tp, err := otel.InitProvider(otelCfg)
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.Printf("Error shutting down OTEL provider: %v", err)
		}
	}

	attrDefs, err := cfg.CustomAttributes()
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	evaluator, err := attributes.NewEvaluator(attrDefs)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	return tp.Tracer("devmapperd"), evaluator, cleanup, nil
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	devctlFile, err := os.Open(cfg.DevctlPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := devctlFile.Close(); err != nil {
			log.Printf("Error closing %s: %v", cfg.DevctlPath, err)
		}
	}()

	tracer, evaluator, cleanupTracing, err := setupTracing(cfg)
	if err != nil {
		return err
	}
	defer cleanupTracing()

	manager := devnode.NewManager(cfg.DevRoot, cfg.NodeIndexRoot, devnode.NewUnixSystem(), registry.New())
	loop := eventloop.New(devctlFile, manager, tracer, evaluator)

	log.Printf("devmapperd: draining device events from %s", cfg.DevctlPath)
	return loop.Run()
}
