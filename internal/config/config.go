// Package config loads and validates the YAML configuration surface
// enumerated in spec.md §6: broker DSN, object-store credentials,
// metadata-store connection, dedup-cache DSN, HTTP user agent, and the
// target list. Adapted from the teacher's site.Load (site/config.go):
// same gopkg.in/yaml.v3 decoder with KnownFields(true), generalized
// from one site's resource rules to the whole process's config
// surface.
package config

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheSnook/debias-crawler/internal/target"
)

// Config is the root configuration object, covering exactly the
// surface named in spec.md §6. Keys outside this surface are ignored;
// unknown keys within a known section are a load error.
type Config struct {
	NATS     NATSConfig        `yaml:"nats"`
	HTTP     HTTPConfig        `yaml:"http"`
	S3       S3Config          `yaml:"s3"`
	Postgres PostgresConfig    `yaml:"pg"`
	KeyValue KeyValueConfig    `yaml:"keyvalue"`
	Render   RenderTuning      `yaml:"render"`
	Targets  []TargetConfig    `yaml:"targets"`
	// Extra collects top-level keys outside the surface above so that
	// KnownFields(true) only rejects unknown keys inside known sections.
	Extra    map[string]any    `yaml:",inline"`
}

// NATSConfig is the broker connection surface.
type NATSConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig is the fetch worker's HTTP client surface.
type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
}

// S3Config is the object-store credential surface.
type S3Config struct {
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
	BucketName string `yaml:"bucket_name"`
	Region     string `yaml:"region"`
}

// PostgresConfig is the metadata/analytics store connection surface.
type PostgresConfig struct {
	Connection string `yaml:"connection"`
}

// KeyValueConfig is the dedup-cache connection surface.
type KeyValueConfig struct {
	DSN string `yaml:"dsn"`
}

// RenderTuning exposes the auto-render sample-length threshold as
// config instead of a magic number (spec.md §9 design note).
type RenderTuning struct {
	AutoThreshold int `yaml:"auto_threshold"`
}

// TargetConfig mirrors target.Config for YAML decoding; see
// spec.md §3 for field semantics.
type TargetConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Root         string `yaml:"root_url"`
	DomainOnly   bool   `yaml:"domain_only"`
	Render       string `yaml:"render"`
	TextSelector string `yaml:"text_selector"`
	HrefSelector string `yaml:"href_selector"`
	Country      string `yaml:"country"`
	Alignment    string `yaml:"alignment"`
}

const defaultAutoThreshold = 300

// Load decodes and validates a Config from YAML bytes.
func Load(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Render.AutoThreshold == 0 {
		cfg.Render.AutoThreshold = defaultAutoThreshold
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required fields and closed-set values across
// the whole configuration surface.
func (c *Config) Validate() error {
	if c.NATS.DSN == "" {
		return fmt.Errorf("config: nats.dsn is required")
	}
	if c.Postgres.Connection == "" {
		return fmt.Errorf("config: pg.connection is required")
	}
	if c.KeyValue.DSN == "" {
		return fmt.Errorf("config: keyvalue.dsn is required")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("config: at least one target is required")
	}
	seen := make(map[string]struct{}, len(c.Targets))
	for _, t := range c.Targets {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("config: duplicate target id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
		if _, err := t.toTargetConfig(); err != nil {
			return err
		}
	}
	return nil
}

// toTargetConfig validates and converts one TargetConfig into the
// target package's runtime Config, rejecting unknown render policies
// at load time (spec.md §9 design note).
func (t TargetConfig) toTargetConfig() (target.Config, error) {
	href := t.HrefSelector
	if href == "" {
		href = "a[href]"
	}
	renderPolicy := target.RenderPolicy(t.Render)
	if renderPolicy == "" {
		renderPolicy = target.RenderAuto
	}
	cfg := target.Config{
		ID:           t.ID,
		Name:         t.Name,
		RootURL:      t.Root,
		DomainOnly:   t.DomainOnly,
		Render:       renderPolicy,
		TextSelector: t.TextSelector,
		HrefSelector: href,
		Country:      t.Country,
		Alignment:    t.Alignment,
	}
	if err := cfg.Validate(); err != nil {
		return target.Config{}, err
	}
	return cfg, nil
}

// TargetRegistry builds the read-only target.Registry this
// configuration describes.
func (c *Config) TargetRegistry() (*target.Registry, error) {
	cfgs := make([]target.Config, 0, len(c.Targets))
	for _, t := range c.Targets {
		cfg, err := t.toTargetConfig()
		if err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return target.NewRegistry(cfgs)
}

// AutoRenderThreshold returns the configured sample-length threshold,
// falling back to the documented default of 300 characters.
func (c *Config) AutoRenderThreshold() int {
	if c.Render.AutoThreshold <= 0 {
		return defaultAutoThreshold
	}
	return c.Render.AutoThreshold
}

// HTTPTimeout is the per-request timeout used by the fetch worker's
// HTTP client (spec.md §5: "each external call has an
// implementation-defined timeout").
const HTTPTimeout = 30 * time.Second
