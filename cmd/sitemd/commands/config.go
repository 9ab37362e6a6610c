package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitemd/pkg/cleaner"
	"github.com/jmylchreest/sitemd/pkg/sitemd"
)

// crawlConfig is the resolved configuration of one crawl command, after
// flags, SITEMD_* environment variables and the config file are merged.
type crawlConfig struct {
	URL         string        `validate:"required,url,startswith=http"`
	Concurrency int           `validate:"min=1,max=256"`
	Output      string        `validate:"required"`
	Timeout     time.Duration `validate:"gt=0"`
	Format      string        `validate:"oneof=json yaml"`
	TextMode    string        `validate:"oneof=markdown readability raw"`
	UserAgent   string
	DB          string
	MaxPages    int `validate:"min=0"`
	MaxDepth    int `validate:"min=-1"`
	Contents    bool
}

// Viper keys for crawl settings.
const (
	keyURL         = "url"
	keyConcurrency = "concurrency"
	keyOutput      = "output"
	keyTimeout     = "timeout"
	keyFormat      = "format"
	keyTextMode    = "text_mode"
	keyUserAgent   = "user_agent"
	keyDB          = "db"
	keyMaxPages    = "max_pages"
	keyMaxDepth    = "max_depth"
	keyContents    = "contents"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// loadCrawlConfig reads crawl settings from v. A positional URL argument
// takes precedence over --url.
func loadCrawlConfig(v *viper.Viper, args []string) crawlConfig {
	cfg := crawlConfig{
		URL:         v.GetString(keyURL),
		Concurrency: v.GetInt(keyConcurrency),
		Output:      v.GetString(keyOutput),
		Timeout:     v.GetDuration(keyTimeout),
		Format:      strings.ToLower(v.GetString(keyFormat)),
		TextMode:    strings.ToLower(v.GetString(keyTextMode)),
		UserAgent:   v.GetString(keyUserAgent),
		DB:          v.GetString(keyDB),
		MaxPages:    v.GetInt(keyMaxPages),
		MaxDepth:    v.GetInt(keyMaxDepth),
		Contents:    v.GetBool(keyContents),
	}
	if len(args) > 0 {
		cfg.URL = args[0]
	}
	return cfg
}

// Validate checks the configuration and returns one error listing every
// invalid field.
func (c crawlConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", flagName(e.Field()), formatValidationError(e)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Options converts the configuration to library options.
func (c crawlConfig) Options() []sitemd.Option {
	opts := []sitemd.Option{
		sitemd.WithOutputDir(c.Output),
		sitemd.WithConcurrency(c.Concurrency),
		sitemd.WithTimeout(c.Timeout),
		sitemd.WithIndexFormat(c.Format),
		sitemd.WithTextMode(cleaner.Mode(c.TextMode)),
		sitemd.WithMaxPages(c.MaxPages),
		sitemd.WithMaxDepth(c.MaxDepth),
		sitemd.WithContents(c.Contents),
	}
	if c.UserAgent != "" {
		opts = append(opts, sitemd.WithUserAgent(c.UserAgent))
	}
	if c.DB != "" {
		opts = append(opts, sitemd.WithCatalog(c.DB))
	}
	return opts
}

func flagName(field string) string {
	switch field {
	case "URL":
		return "--url"
	case "TextMode":
		return "--text-mode"
	case "MaxPages":
		return "--max-pages"
	case "MaxDepth":
		return "--max-depth"
	case "UserAgent":
		return "--user-agent"
	default:
		return "--" + strings.ToLower(field)
	}
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "url", "startswith":
		return "must be an absolute http(s) URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
