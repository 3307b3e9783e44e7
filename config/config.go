// Package config provides configuration loading and management for kgraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/modonty1-rgb/modonty-sub005/fetch"
	"github.com/modonty1-rgb/modonty-sub005/graph"
	"github.com/modonty1-rgb/modonty-sub005/storage"
	"github.com/modonty1-rgb/modonty-sub005/validation"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

var structValidator = validator.New()

// Config represents the complete kgraph configuration
type Config struct {
	Site       SiteConfig           `yaml:"site"`
	Validation validation.Overrides `yaml:"validation"`
	Vocabulary VocabularyConfig     `yaml:"vocabulary"`
	Fetch      FetchConfig          `yaml:"fetch"`
	Storage    StorageConfig        `yaml:"storage"`
	Content    ContentConfig        `yaml:"content"`
	HTTP       HTTPConfig           `yaml:"http"`
}

// SiteConfig describes the public site the graphs are generated for
type SiteConfig struct {
	// Root is the site origin, e.g. https://example.com
	Root     string `yaml:"root" validate:"required,url"`
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	// Collection is the path segment of content pages (default: articles)
	Collection string `yaml:"collection"`
	HomeName   string `yaml:"home_name"`
	// TenantMarkers are path fragments that mark a URL as tenant-scoped
	TenantMarkers []string `yaml:"tenant_markers"`
}

// VocabularyConfig configures the schema.org vocabulary source
type VocabularyConfig struct {
	// URL is the release document to download
	URL string `yaml:"url" validate:"omitempty,url"`
	// File loads the release from disk instead of URL
	File string `yaml:"file"`
	// TTL is how long a loaded vocabulary is served before a refresh
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
	// Timeout bounds the vocabulary download
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// FetchConfig configures page fetching for audits
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxContentSize int64         `yaml:"max_content_size" validate:"gte=0"`
	UserAgent      string        `yaml:"user_agent"`
}

// StorageConfig configures where graph records are kept
type StorageConfig struct {
	// Backend is memory or nats
	Backend string `yaml:"backend" validate:"oneof=memory nats"`
	// NATSURL is the NATS server URL, required for the nats backend
	NATSURL string `yaml:"nats_url" validate:"required_if=Backend nats"`
	// Bucket is the JetStream KV bucket name
	Bucket string `yaml:"bucket" validate:"required"`
}

// ContentConfig configures the content export the fetcher reads
type ContentConfig struct {
	// Dir holds one <id>.json file per content record
	Dir string `yaml:"dir"`
	// Pattern selects records for batch regeneration (doublestar glob)
	Pattern string `yaml:"pattern"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Root:       "https://example.com",
			Collection: "articles",
			HomeName:   "Home",
		},
		Vocabulary: VocabularyConfig{
			URL:     schemaorg.DefaultURL,
			TTL:     schemaorg.DefaultTTL,
			Timeout: fetch.DefaultTimeout,
		},
		Fetch: FetchConfig{
			Timeout:        fetch.DefaultTimeout,
			MaxContentSize: fetch.DefaultMaxContentSize,
			UserAgent:      fetch.DefaultUserAgent,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Bucket:  storage.DefaultBucket,
		},
		Content: ContentConfig{
			Dir:     "content",
			Pattern: "*.json",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.ValidationOptions().Validate(); err != nil {
		return err
	}
	return nil
}

// ValidationOptions returns the business-rule options with the configured
// overrides applied to the defaults.
func (c *Config) ValidationOptions() validation.Options {
	return validation.DefaultOptions().Apply(c.Validation)
}

// GraphSite returns the generator site settings.
func (c *Config) GraphSite() graph.Site {
	return graph.Site{
		Root:          c.Site.Root,
		Name:          c.Site.Name,
		Language:      c.Site.Language,
		Collection:    c.Site.Collection,
		HomeName:      c.Site.HomeName,
		TenantMarkers: c.Site.TenantMarkers,
	}
}

// FetchOptions returns the page fetcher options.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Timeout:        c.Fetch.Timeout,
		UserAgent:      c.Fetch.UserAgent,
		MaxContentSize: c.Fetch.MaxContentSize,
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// loadOverlay parses a YAML file onto an empty Config so that only the
// keys present in the file are set.
func loadOverlay(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Site
	setString(&c.Site.Root, other.Site.Root)
	setString(&c.Site.Name, other.Site.Name)
	setString(&c.Site.Language, other.Site.Language)
	setString(&c.Site.Collection, other.Site.Collection)
	setString(&c.Site.HomeName, other.Site.HomeName)
	if len(other.Site.TenantMarkers) > 0 {
		c.Site.TenantMarkers = other.Site.TenantMarkers
	}

	// Validation: each override is independent
	ov := other.Validation
	if ov.RequirePublisherLogo != nil {
		c.Validation.RequirePublisherLogo = ov.RequirePublisherLogo
	}
	if ov.RequireHeroImage != nil {
		c.Validation.RequireHeroImage = ov.RequireHeroImage
	}
	if ov.RequireAuthorBio != nil {
		c.Validation.RequireAuthorBio = ov.RequireAuthorBio
	}
	if ov.MinHeadlineLength != nil {
		c.Validation.MinHeadlineLength = ov.MinHeadlineLength
	}
	if ov.MaxHeadlineLength != nil {
		c.Validation.MaxHeadlineLength = ov.MaxHeadlineLength
	}

	// Vocabulary
	setString(&c.Vocabulary.URL, other.Vocabulary.URL)
	setString(&c.Vocabulary.File, other.Vocabulary.File)
	if other.Vocabulary.TTL != 0 {
		c.Vocabulary.TTL = other.Vocabulary.TTL
	}
	if other.Vocabulary.Timeout != 0 {
		c.Vocabulary.Timeout = other.Vocabulary.Timeout
	}

	// Fetch
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.MaxContentSize != 0 {
		c.Fetch.MaxContentSize = other.Fetch.MaxContentSize
	}
	setString(&c.Fetch.UserAgent, other.Fetch.UserAgent)

	// Storage
	setString(&c.Storage.Backend, other.Storage.Backend)
	setString(&c.Storage.Bucket, other.Storage.Bucket)
	if other.Storage.NATSURL != "" {
		c.Storage.NATSURL = other.Storage.NATSURL
		if other.Storage.Backend == "" {
			c.Storage.Backend = BackendNATS
		}
	}

	// Content
	setString(&c.Content.Dir, other.Content.Dir)
	setString(&c.Content.Pattern, other.Content.Pattern)

	// HTTP
	setString(&c.HTTP.Addr, other.HTTP.Addr)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
