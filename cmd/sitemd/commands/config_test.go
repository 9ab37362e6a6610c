package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/sitemd/internal/crawler"
	"github.com/jmylchreest/sitemd/pkg/sitemd"
)

func validConfig() crawlConfig {
	return crawlConfig{
		URL:         "https://example.com",
		Concurrency: 10,
		Output:      "output_site",
		Timeout:     10 * time.Second,
		Format:      "json",
		TextMode:    "markdown",
		MaxDepth:    -1,
	}
}

func TestCrawlConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*crawlConfig)
		wantErr string
	}{
		{"valid", func(*crawlConfig) {}, ""},
		{"yaml with limits", func(c *crawlConfig) { c.Format = "yaml"; c.MaxPages = 50; c.MaxDepth = 2 }, ""},
		{"missing url", func(c *crawlConfig) { c.URL = "" }, "--url is required"},
		{"relative url", func(c *crawlConfig) { c.URL = "example.com/docs" }, "--url must be an absolute http(s) URL"},
		{"ftp url", func(c *crawlConfig) { c.URL = "ftp://example.com" }, "--url must be an absolute http(s) URL"},
		{"zero concurrency", func(c *crawlConfig) { c.Concurrency = 0 }, "--concurrency must be at least 1"},
		{"zero timeout", func(c *crawlConfig) { c.Timeout = 0 }, "--timeout must be greater than 0"},
		{"bad format", func(c *crawlConfig) { c.Format = "xml" }, "--format must be one of: json, yaml"},
		{"bad text mode", func(c *crawlConfig) { c.TextMode = "pdf" }, "--text-mode must be one of: markdown, readability, raw"},
		{"negative max pages", func(c *crawlConfig) { c.MaxPages = -5 }, "--max-pages must be at least 0"},
		{"max depth below -1", func(c *crawlConfig) { c.MaxDepth = -2 }, "--max-depth must be at least -1"},
		{"empty output", func(c *crawlConfig) { c.Output = "" }, "--output is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCrawlConfig_Validate_ReportsEveryField(t *testing.T) {
	cfg := validConfig()
	cfg.URL = ""
	cfg.Concurrency = 0
	cfg.Format = "toml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"--url", "--concurrency", "--format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadCrawlConfig(t *testing.T) {
	v := viper.New()
	v.Set(keyURL, "https://flag.example")
	v.Set(keyConcurrency, 4)
	v.Set(keyOutput, "mirror")
	v.Set(keyTimeout, "5s")
	v.Set(keyFormat, "YAML")
	v.Set(keyTextMode, "Readability")
	v.Set(keyDB, "sitemd.db")
	v.Set(keyMaxPages, 100)
	v.Set(keyMaxDepth, 3)
	v.Set(keyContents, true)

	cfg := loadCrawlConfig(v, nil)

	if cfg.URL != "https://flag.example" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.Concurrency != 4 || cfg.MaxPages != 100 || cfg.MaxDepth != 3 {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Format != "yaml" || cfg.TextMode != "readability" {
		t.Errorf("expected lowercased format and mode, got %q / %q", cfg.Format, cfg.TextMode)
	}
	if cfg.DB != "sitemd.db" || !cfg.Contents || cfg.Output != "mirror" {
		t.Errorf("unexpected output settings: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadCrawlConfig_PositionalURLWins(t *testing.T) {
	v := viper.New()
	v.Set(keyURL, "https://flag.example")

	cfg := loadCrawlConfig(v, []string{"https://arg.example"})
	if cfg.URL != "https://arg.example" {
		t.Errorf("URL = %q, want the positional argument", cfg.URL)
	}
}

func TestCrawlConfig_Options(t *testing.T) {
	cfg := validConfig()
	if got := len(cfg.Options()); got != 8 {
		t.Errorf("expected 8 base options, got %d", got)
	}

	cfg.UserAgent = "bot/1.0"
	cfg.DB = "sitemd.db"
	if got := len(cfg.Options()); got != 10 {
		t.Errorf("expected 10 options with user agent and catalog, got %d", got)
	}
}

func TestFailureBreakdown(t *testing.T) {
	st := sitemd.Stats{Failed: map[crawler.FailureReason]int{
		crawler.FailureTimeout: 2,
		crawler.FailureStatus:  5,
	}}
	if got := failureBreakdown(st); got != "status 5, timeout 2" {
		t.Errorf("failureBreakdown() = %q", got)
	}
}
