/*
 * Publishes a FetchRequest for each configured target's root URL,
 * starting (or restarting) a crawl.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/TheSnook/debias-crawler/internal/broker"
	"github.com/TheSnook/debias-crawler/internal/config"
	"github.com/TheSnook/debias-crawler/internal/frontier"
	"github.com/TheSnook/debias-crawler/internal/urlutil"
)

var configFile = flag.String("config", "", "YAML configuration file.")

func main() {
	log.SetOutput(os.Stderr)
	flag.Parse()

	if *configFile == "" {
		log.Fatal("Flag --config is required")
	}
	cfg := mustLoadConfig(*configFile)

	ctx := context.Background()
	b, err := broker.Connect(ctx, cfg.NATS.DSN)
	if err != nil {
		log.Fatalf("Could not connect to broker: %v", err)
	}
	defer b.Close()

	pub := b.Publisher()
	for _, t := range cfg.Targets {
		url, err := urlutil.Normalize(t.Root)
		if err != nil {
			log.Printf("Skipping target %q: could not normalize root_url %q: %v", t.ID, t.Root, err)
			continue
		}
		payload, err := json.Marshal(frontier.FetchRequest{URL: url})
		if err != nil {
			log.Printf("Skipping target %q: could not marshal fetch request: %v", t.ID, err)
			continue
		}
		if err := pub.Publish(ctx, broker.SubjectFetch, payload); err != nil {
			log.Printf("Could not seed target %q: %v", t.ID, err)
			continue
		}
		log.Printf("Seeded %s for target %q", url, t.ID)
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
