package presskit

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// PermalinkStyle controls how post paths are built by the theme layer.
type PermalinkStyle string

const (
	PermalinkPlain        PermalinkStyle = "plain"
	PermalinkYear         PermalinkStyle = "year"
	PermalinkYearMonth    PermalinkStyle = "year-month"
	PermalinkYearMonthDay PermalinkStyle = "year-month-day"
)

// Config is the site-level configuration, loadable from a TOML file.
type Config struct {
	BaseURL           string            `toml:"base_url"`           // BaseURL is the absolute root of the site, without a trailing slash.
	Title             string            `toml:"title"`              // Title is the site title.
	AuthorPathPrefix  string            `toml:"author_path_prefix"` // AuthorPathPrefix is the path segment for author profile pages. Default is "authors".
	PermalinkStyle    PermalinkStyle    `toml:"permalink_style"`    // PermalinkStyle selects the post path shape. Default is plain.
	PageSize          int               `toml:"page_size"`          // PageSize is the default number of posts per query page. Default is 10.
	AvatarBaseURL     string            `toml:"avatar_base_url"`    // AvatarBaseURL is the base for hashed avatar URLs. Default is the gravatar endpoint.
	FrontmatterFormat FrontmatterFormat `toml:"frontmatter_format"` // FrontmatterFormat is the format written for post frontmatter. Default is TOML.
	Taxonomies        map[string]string `toml:"taxonomies"`         // Taxonomies maps plural taxonomy names to their singular names.
	Roles             Grants            `toml:"roles"`              // Roles overrides the default role to capability grants when non-empty.
}

// LoadConfig reads a Config from a TOML file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.AuthorPathPrefix == "" {
		c.AuthorPathPrefix = "authors"
	}

	if c.PermalinkStyle == "" {
		c.PermalinkStyle = PermalinkPlain
	}

	if c.PageSize < 1 {
		c.PageSize = 10
	}

	if c.AvatarBaseURL == "" {
		c.AvatarBaseURL = "https://www.gravatar.com/avatar/"
	}

	if c.FrontmatterFormat == "" {
		c.FrontmatterFormat = FrontmatterTOML
	}

	if c.Taxonomies == nil {
		c.Taxonomies = map[string]string{
			"categories": "category",
			"tags":       "tag",
		}
	}
}

// RoleGrants returns the configured grants, or the defaults when the config
// carries none.
func (c *Config) RoleGrants() Grants {
	if len(c.Roles) > 0 {
		return c.Roles
	}
	return DefaultGrants()
}
