/*
 * Consumes process-queue: downloads the stored artifact, runs it
 * through the NLP collaborator, and persists the analytics result.
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
	"github.com/TheSnook/debias-crawler/internal/metastore"
	"github.com/TheSnook/debias-crawler/internal/nlp"
	"github.com/TheSnook/debias-crawler/internal/objectstore"
	"github.com/TheSnook/debias-crawler/internal/processworker"
	"github.com/TheSnook/debias-crawler/internal/wordstore"
)

var configFile = flag.String("config", "", "YAML configuration file.")
var objectStoreTarget = flag.String("objects", "", "Object store target, e.g. s3:us-east-1:bucket-name.")

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

	words, err := wordstore.Open(ctx, cfg.Postgres.Connection)
	if err != nil {
		log.Fatalf("Could not connect to analytics store: %v", err)
	}
	defer words.Close()
	if err := words.Init(ctx); err != nil {
		log.Fatalf("Could not initialize analytics tables: %v", err)
	}

	if err := seedTargetDimensions(ctx, words, cfg); err != nil {
		log.Fatalf("Could not seed target dimensions: %v", err)
	}

	sub, err := b.Subscriber(ctx, broker.SubjectProcess, "processworker")
	if err != nil {
		log.Fatalf("Could not subscribe to %s: %v", broker.SubjectProcess, err)
	}

	worker := &processworker.Worker{
		Subscriber: sub,
		Metadata:   meta,
		Objects:    objects,
		NLP:        nlp.NewHeuristicProcessor(),
		Words:      words,
	}

	log.Printf("processworker consuming %s", broker.SubjectProcess)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}

func seedTargetDimensions(ctx context.Context, words *wordstore.PgStore, cfg *config.Config) error {
	dims := make([]wordstore.TargetDimension, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		dims = append(dims, wordstore.TargetDimension{
			ID:        t.ID,
			Name:      t.Name,
			MainPage:  t.Root,
			Country:   t.Country,
			Alignment: t.Alignment,
		})
	}
	return words.SeedTargets(ctx, dims)
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
