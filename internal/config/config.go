// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ContentURLEnv overrides the content origin with a base URL.
const ContentURLEnv = "FOLIO_CONTENT_URL"

// SiteConfig holds the configuration from the site.yaml file.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`

	// ContentDir is read through a directory fetcher unless ContentURL is set.
	ContentDir string `yaml:"content_dir"`
	ContentURL string `yaml:"content_url"`

	// Engine selects the markdown engine: "lite" or "goldmark".
	Engine       string `yaml:"engine"`
	Sanitize     bool   `yaml:"sanitize"`
	WrapAllLists bool   `yaml:"wrap_all_lists"`

	// VerifyScripts makes sketch scripts fail to load when the content
	// origin does not serve them.
	VerifyScripts bool `yaml:"verify_scripts"`
	// TemplateDir overrides the embedded page templates.
	TemplateDir string `yaml:"template_dir"`

	FetchTimeout string `yaml:"fetch_timeout"`
	Port         int    `yaml:"port"`

	Canvas CanvasConfig `yaml:"canvas"`
}

// CanvasConfig sizes the gallery canvases.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Frames int `yaml:"frames"`
}

// Default returns the configuration used when no site.yaml exists.
func Default() SiteConfig {
	return SiteConfig{
		Title:        "folio",
		ContentDir:   "content",
		Engine:       "lite",
		FetchTimeout: "10s",
		Port:         1313,
		Canvas: CanvasConfig{
			Width:  320,
			Height: 240,
			Frames: 60,
		},
	}
}

// LoadSiteConfig reads path over the defaults. A missing file is not an error.
func LoadSiteConfig(path string) (SiteConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return SiteConfig{}, fmt.Errorf("could not read config file at %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if u := os.Getenv(ContentURLEnv); u != "" {
		cfg.ContentURL = u
	}
	if err := cfg.validate(); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Timeout returns the HTTP fetch timeout, defaulting to 10s.
func (c SiteConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Under resolves the relative directories of c against root, usually the
// directory holding site.yaml.
func (c SiteConfig) Under(root string) SiteConfig {
	if c.ContentDir != "" && !filepath.IsAbs(c.ContentDir) {
		c.ContentDir = filepath.Join(root, c.ContentDir)
	}
	if c.TemplateDir != "" && !filepath.IsAbs(c.TemplateDir) {
		c.TemplateDir = filepath.Join(root, c.TemplateDir)
	}
	return c
}

func (c SiteConfig) validate() error {
	switch c.Engine {
	case "", "lite", "goldmark":
	default:
		return fmt.Errorf("unknown engine %q (valid: lite, goldmark)", c.Engine)
	}
	if c.ContentDir == "" && c.ContentURL == "" {
		return errors.New("one of content_dir or content_url is required")
	}
	if c.Canvas.Width < 0 || c.Canvas.Height < 0 || c.Canvas.Frames < 0 {
		return errors.New("canvas dimensions must not be negative")
	}
	return nil
}
