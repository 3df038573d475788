/*
 * Consumes render-queue: dedups, drives a headless browser to render
 * each page, and runs the shared finish sequence.
 */

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/config"
	"github.com/TheSnook/debias-crawler/internal/dedup"
	"github.com/TheSnook/debias-crawler/internal/finish"
	"github.com/TheSnook/debias-crawler/internal/frontier"
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/render"
	"github.com/TheSnook/debias-crawler/internal/renderworker"
)

var configFile = flag.String("config", "", "YAML configuration file.")
var objectStoreTarget = flag.String("objects", "", "Object store target, e.g. s3:us-east-1:bucket-name.")
var debuggerURL = flag.String("debugger_url", "", "Existing Chrome remote-debugging URL; empty launches a managed instance.")

func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Flag --config is required")
	}
	cfg := mustLoadConfig(*configFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := broker.Connect(ctx, cfg.NATS.DSN)
	if err != nil {
		log.Fatalf("Could not connect to broker: %v", err)
	}

	cache, err := dedup.NewRedisCache(cfg.KeyValue.DSN)
	if err != nil {
		log.Fatalf("Could not connect to dedup cache: %v", err)
	}
	defer cache.Close()

	objects, err := objectstore.New(*objectStoreTarget)
	if err != nil {
		log.Fatalf("Could not open object store: %v", err)
	}
	defer objects.Close()

	meta, err := metastore.Open(ctx, cfg.Postgres.Connection)
	if err != nil {
		log.Fatalf("Could not connect to metadata store: %v", err)
	}
	defer meta.Close()
	if err := meta.Init(ctx); err != nil {
		log.Fatalf("Could not initialize metadata tables: %v", err)
	}

	targets, err := cfg.TargetRegistry()
	if err != nil {
		log.Fatalf("Invalid target configuration: %v", err)
	}

	renderer, err := render.New(*debuggerURL)
	if err != nil {
		log.Fatalf("Could not start renderer: %v", err)
	}
	defer renderer.Close()

	sub, err := b.Subscriber(ctx, broker.SubjectRender, "renderworker")
	if err != nil {
		log.Fatalf("Could not subscribe to %s: %v", broker.SubjectRender, err)
	}

	worker := &renderworker.Worker{
		Subscriber: sub,
		Targets:    targets,
		Dedup:      cache,
		Renderer:   renderer,
		Finish: &finish.Sequence{
			Objects:        objects,
			Metadata:       meta,
			Publisher:      b.Publisher(),
			ExpandFrontier: (&frontier.Expander{Publisher: b.Publisher()}).Expand,
		},
	}

	log.Printf("renderworker consuming %s with %d registered targets", broker.SubjectRender, targets.Len())
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}

func mustLoadConfig(path string) *config.Config {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Could not read config file %q: %v", path, err)
	}
	cfg, err := config.Load(data)
	if err != nil {
		log.Fatalf("Could not parse config file %q: %v", path, err)
	}
	return cfg
}
