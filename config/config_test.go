package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modonty1-rgb/modonty-sub005/storage"
	"github.com/modonty1-rgb/modonty-sub005/validation"
	"github.com/modonty1-rgb/modonty-sub005/vocabulary/schemaorg"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("expected memory backend by default, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Bucket != storage.DefaultBucket {
		t.Errorf("expected bucket %s, got %s", storage.DefaultBucket, cfg.Storage.Bucket)
	}
	if cfg.Vocabulary.TTL != schemaorg.DefaultTTL {
		t.Errorf("expected vocabulary ttl %v, got %v", schemaorg.DefaultTTL, cfg.Vocabulary.TTL)
	}
	if cfg.ValidationOptions() != validation.DefaultOptions() {
		t.Errorf("expected default validation options, got %+v", cfg.ValidationOptions())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing site root",
			modify:  func(c *Config) { c.Site.Root = "" },
			wantErr: true,
		},
		{
			name:    "site root not a url",
			modify:  func(c *Config) { c.Site.Root = "example" },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Storage.Backend = "postgres" },
			wantErr: true,
		},
		{
			name:    "nats backend without url",
			modify:  func(c *Config) { c.Storage.Backend = BackendNATS },
			wantErr: true,
		},
		{
			name: "nats backend with url",
			modify: func(c *Config) {
				c.Storage.Backend = BackendNATS
				c.Storage.NATSURL = "nats://localhost:4222"
			},
			wantErr: false,
		},
		{
			name:    "negative ttl",
			modify:  func(c *Config) { c.Vocabulary.TTL = -time.Second },
			wantErr: true,
		},
		{
			name: "inverted headline window",
			modify: func(c *Config) {
				lo, hi := 80, 40
				c.Validation.MinHeadlineLength = &lo
				c.Validation.MaxHeadlineLength = &hi
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
site:
  root: "https://news.example"
  name: "Example News"
  tenant_markers: ["/tenants/"]
validation:
  require_author_bio: true
  min_headline_length: 20
vocabulary:
  file: "testdata/schemaorg.jsonld"
  ttl: 1h
storage:
  backend: nats
  nats_url: "nats://test:4222"
http:
  addr: ":9090"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Site.Root != "https://news.example" {
		t.Errorf("expected site root https://news.example, got %s", cfg.Site.Root)
	}
	if cfg.Site.Collection != "articles" {
		t.Errorf("expected default collection to survive, got %s", cfg.Site.Collection)
	}
	if len(cfg.Site.TenantMarkers) != 1 {
		t.Errorf("expected 1 tenant marker, got %d", len(cfg.Site.TenantMarkers))
	}
	opts := cfg.ValidationOptions()
	if !opts.RequireAuthorBio || opts.MinHeadlineLength != 20 || opts.MaxHeadlineLength != validation.DefaultMaxHeadlineLength {
		t.Errorf("unexpected validation options %+v", opts)
	}
	if cfg.Vocabulary.TTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.Vocabulary.TTL)
	}
	if cfg.Storage.Backend != BackendNATS || cfg.Storage.NATSURL != "nats://test:4222" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected addr :9090, got %s", cfg.HTTP.Addr)
	}
	if site := cfg.GraphSite(); site.Name != "Example News" {
		t.Errorf("expected site name in generator settings, got %+v", site)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	no := false
	override := &Config{
		Site:       SiteConfig{Root: "https://override.example"},
		Validation: validation.Overrides{RequireHeroImage: &no},
		Storage:    StorageConfig{NATSURL: "nats://override:4222"},
	}

	base.Merge(override)

	if base.Site.Root != "https://override.example" {
		t.Errorf("expected overridden root, got %s", base.Site.Root)
	}
	// Collection should remain from base since override didn't set it
	if base.Site.Collection != "articles" {
		t.Errorf("expected collection to remain default, got %s", base.Site.Collection)
	}
	if base.ValidationOptions().RequireHeroImage {
		t.Error("expected hero image requirement to be switched off")
	}
	if !base.ValidationOptions().RequirePublisherLogo {
		t.Error("publisher logo requirement should be untouched")
	}
	if base.Storage.Backend != BackendNATS {
		t.Errorf("a NATS url should select the nats backend, got %s", base.Storage.Backend)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Site.Name = "Saved Site"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Site.Name != "Saved Site" {
		t.Errorf("expected site name Saved Site, got %s", loaded.Site.Name)
	}
	if loaded.Vocabulary.TTL != cfg.Vocabulary.TTL {
		t.Errorf("ttl did not round-trip: %v", loaded.Vocabulary.TTL)
	}
}
